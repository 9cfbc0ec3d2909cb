package report_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/runstore/pkg/alg/rle"
	"github.com/Sumatoshi-tech/runstore/pkg/report"
	"github.com/Sumatoshi-tech/runstore/pkg/setexpr"
	"github.com/Sumatoshi-tech/runstore/pkg/workload"
)

func newRenderer(t *testing.T, format string, maxRuns int) (*report.Renderer, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer

	r, err := report.New(&buf, report.Config{Format: format, MaxRuns: maxRuns})
	require.NoError(t, err)

	return r, &buf
}

func mustStore(t *testing.T, expr string) *rle.RunStore {
	t.Helper()

	store, err := setexpr.ParseStore(expr)
	require.NoError(t, err)

	return store
}

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r, err := report.New(&buf, report.Config{})
	require.NoError(t, err)
	require.NoError(t, r.Count("and", 65536))
	assert.Contains(t, buf.String(), "Keys: 65,536")

	_, err = report.New(&bytes.Buffer{}, report.Config{Format: "csv"})
	assert.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestStore_Table(t *testing.T) {
	t.Parallel()

	r, buf := newRenderer(t, report.FormatTable, 0)

	require.NoError(t, r.Store("Result", mustStore(t, "5-10,1000-2999")))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Result\n"))
	assert.Contains(t, out, "1000")
	assert.Contains(t, out, "2999")
	assert.Contains(t, out, "2,000")
	assert.Contains(t, out, "2,006")
}

func TestStore_TableTruncates(t *testing.T) {
	t.Parallel()

	r, buf := newRenderer(t, report.FormatTable, 1)

	require.NoError(t, r.Store("Result", mustStore(t, "1,3,5,7")))

	assert.Contains(t, buf.String(), "3 more runs")
}

func TestStore_Plain(t *testing.T) {
	t.Parallel()

	r, buf := newRenderer(t, report.FormatPlain, 0)

	require.NoError(t, r.Store("ignored", mustStore(t, "0-4,8-12,40")))
	require.NoError(t, r.Store("ignored", rle.New()))

	assert.Equal(t, "0-4,8-12,40\n\n", buf.String())
}

func TestStore_JSON(t *testing.T) {
	t.Parallel()

	r, buf := newRenderer(t, report.FormatJSON, 0)

	require.NoError(t, r.Store("xor", mustStore(t, "0-4,40")))

	var got struct {
		Title string      `json:"title"`
		Expr  string      `json:"expr"`
		Runs  [][2]uint16 `json:"runs"`
		Count int         `json:"count"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "xor", got.Title)
	assert.Equal(t, "0-4,40", got.Expr)
	assert.Equal(t, [][2]uint16{{0, 4}, {40, 40}}, got.Runs)
	assert.Equal(t, 6, got.Count)
}

func TestCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{report.FormatTable, "Keys: 65,536"},
		{report.FormatPlain, "65536\n"},
		{report.FormatJSON, `"count": 65536`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			r, buf := newRenderer(t, tt.format, 0)

			require.NoError(t, r.Count("or", rle.MaxKey+1))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestInserts(t *testing.T) {
	t.Parallel()

	changes := []report.InsertChange{{Key: 4, Changed: true}, {Key: 7, Changed: false}}
	final := mustStore(t, "4-10")

	plain, buf := newRenderer(t, report.FormatPlain, 0)
	require.NoError(t, plain.Inserts(changes, final))
	assert.Equal(t, "4 true\n7 false\n4-10\n", buf.String())

	tbl, buf := newRenderer(t, report.FormatTable, 0)
	require.NoError(t, tbl.Inserts(changes, final))
	assert.Contains(t, buf.String(), "1 of 2")
	assert.Contains(t, buf.String(), "yes")

	js, buf := newRenderer(t, report.FormatJSON, 0)
	require.NoError(t, js.Inserts(changes, final))
	assert.Contains(t, buf.String(), `"changed": true`)
	assert.Contains(t, buf.String(), `"expr": "4-10"`)
}

var errClosed = errors.New("writer closed")

// closedWriter fails every write.
type closedWriter struct{}

func (closedWriter) Write([]byte) (int, error) { return 0, errClosed }

func TestInserts_ReturnsWriteError(t *testing.T) {
	t.Parallel()

	changes := []report.InsertChange{{Key: 1, Changed: true}}
	final := mustStore(t, "1")

	for _, format := range []string{report.FormatPlain, report.FormatTable, report.FormatJSON} {
		r, err := report.New(closedWriter{}, report.Config{Format: format})
		require.NoError(t, err)

		assert.ErrorIs(t, r.Inserts(changes, final), errClosed, format)
	}
}

func sampleResult(t *testing.T) *workload.Result {
	t.Helper()

	return &workload.Result{
		Name: "sample",
		Steps: []workload.StepResult{
			{Index: 0, Op: "or", Store: mustStore(t, "0-14"), Count: 15, Duration: 3 * time.Microsecond},
			{
				Index: 1,
				Op:    "and",
				Store: mustStore(t, "5-9"),
				Count: 5,
				Mismatch: &workload.Mismatch{
					Expected: "5-8",
					Actual:   "5-9",
					Diff:     "5-[-8-]{+9+}",
				},
			},
			{Index: 2, Op: "count(xor)", Count: 10},
		},
	}
}

func TestWorkload_Table(t *testing.T) {
	t.Parallel()

	r, buf := newRenderer(t, report.FormatTable, 0)

	require.NoError(t, r.Workload(sampleResult(t)))

	out := buf.String()
	assert.Contains(t, out, "Workload sample")
	assert.Contains(t, out, "count(xor)")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "1 of 3 failed")
	assert.Contains(t, out, "step 1 (and): expectation not met")
	assert.Contains(t, out, "diff:     5-[-8-]{+9+}")
}

func TestWorkload_Plain(t *testing.T) {
	t.Parallel()

	r, buf := newRenderer(t, report.FormatPlain, 0)

	require.NoError(t, r.Workload(sampleResult(t)))

	assert.Equal(t, "0 or 0-14 15 pass\n1 and 5-9 5 FAIL\n2 count(xor) - 10 pass\n", buf.String())
}

func TestWorkload_JSON(t *testing.T) {
	t.Parallel()

	r, buf := newRenderer(t, report.FormatJSON, 0)

	require.NoError(t, r.Workload(sampleResult(t)))

	var got struct {
		Name   string `json:"name"`
		Failed bool   `json:"failed"`
		Steps  []struct {
			Op     string  `json:"op"`
			Expr   *string `json:"expr"`
			Passed bool    `json:"passed"`
			Diff   string  `json:"diff"`
		} `json:"steps"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "sample", got.Name)
	assert.True(t, got.Failed)
	require.Len(t, got.Steps, 3)
	assert.True(t, got.Steps[0].Passed)
	assert.False(t, got.Steps[1].Passed)
	assert.Equal(t, "5-[-8-]{+9+}", got.Steps[1].Diff)
	assert.Nil(t, got.Steps[2].Expr)
}
