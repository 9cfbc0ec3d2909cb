package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/runstore/pkg/setexpr"
	"github.com/Sumatoshi-tech/runstore/pkg/workload"
)

const (
	statusPass = "pass"
	statusFail = "FAIL"
)

var diffMarkers = regexp.MustCompile(`\[-.*?-\]|\{\+.*?\+\}`)

type stepJSON struct {
	Index    int     `json:"index"`
	Op       string  `json:"op"`
	Set      string  `json:"set,omitempty"`
	Expr     *string `json:"expr,omitempty"`
	Runs     *int    `json:"runs,omitempty"`
	Count    int     `json:"count"`
	Changed  int     `json:"changed,omitempty"`
	Micros   int64   `json:"duration_us"`
	Passed   bool    `json:"passed"`
	Expected string  `json:"expected,omitempty"`
	Diff     string  `json:"diff,omitempty"`
}

type workloadJSON struct {
	Name   string     `json:"name"`
	Failed bool       `json:"failed"`
	Steps  []stepJSON `json:"steps"`
}

// Workload renders the outcome of a workload run.
func (r *Renderer) Workload(res *workload.Result) error {
	switch r.cfg.Format {
	case FormatJSON:
		return r.writeJSON(newWorkloadJSON(res))
	case FormatPlain:
		for _, s := range res.Steps {
			fmt.Fprintf(r.out, "%d %s %s %d %s\n", s.Index, s.Op, resultText(s), s.Count, stepStatus(s))
		}

		return nil
	default:
		return r.workloadTable(res)
	}
}

func newWorkloadJSON(res *workload.Result) workloadJSON {
	out := workloadJSON{Name: res.Name, Failed: res.Failed(), Steps: make([]stepJSON, 0, len(res.Steps))}

	for _, s := range res.Steps {
		sj := stepJSON{
			Index:   s.Index,
			Op:      s.Op,
			Set:     s.Set,
			Count:   s.Count,
			Changed: s.Changed,
			Micros:  s.Duration.Microseconds(),
			Passed:  s.Mismatch == nil,
		}

		if s.Store != nil {
			expr, runs := setexpr.Format(s.Store), s.Store.Len()
			sj.Expr, sj.Runs = &expr, &runs
		}

		if s.Mismatch != nil {
			sj.Expected, sj.Diff = s.Mismatch.Expected, s.Mismatch.Diff
		}

		out.Steps = append(out.Steps, sj)
	}

	return out
}

func (r *Renderer) workloadTable(res *workload.Result) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Step", "Op", "Set", "Runs", "Keys", "Time", "Status"})

	var total time.Duration

	for _, s := range res.Steps {
		total += s.Duration

		runs := "-"
		if s.Store != nil {
			runs = humanize.Comma(int64(s.Store.Len()))
		}

		status := r.pass.Sprint(statusPass)
		if s.Mismatch != nil {
			status = r.fail.Sprint(statusFail)
		}

		tbl.AppendRow(table.Row{s.Index, s.Op, s.Set, runs, humanize.Comma(int64(s.Count)), s.Duration.Round(time.Microsecond), status})
	}

	tbl.AppendFooter(table.Row{"", "", "", "", "", total.Round(time.Microsecond), summary(res)})

	r.heading.Fprintf(r.out, "Workload %s\n", res.Name)
	fmt.Fprintln(r.out, tbl.Render())

	for _, s := range res.Mismatches() {
		fmt.Fprintln(r.out)
		r.fail.Fprintf(r.out, "step %d (%s): expectation not met\n", s.Index, s.Op)
		fmt.Fprintf(r.out, "  expected: %s\n", s.Mismatch.Expected)
		fmt.Fprintf(r.out, "  actual:   %s\n", s.Mismatch.Actual)
		fmt.Fprintf(r.out, "  diff:     %s\n", r.colorDiff(s.Mismatch.Diff))
	}

	return nil
}

// colorDiff highlights the [-removed-] and {+added+} spans of a diff.
func (r *Renderer) colorDiff(diff string) string {
	return diffMarkers.ReplaceAllStringFunc(diff, func(span string) string {
		if strings.HasPrefix(span, "[-") {
			return r.removed.Sprint(span)
		}

		return r.added.Sprint(span)
	})
}

func summary(res *workload.Result) string {
	failed := len(res.Mismatches())
	if failed == 0 {
		return fmt.Sprintf("%d passed", len(res.Steps))
	}

	return fmt.Sprintf("%d of %d failed", failed, len(res.Steps))
}

func resultText(s workload.StepResult) string {
	if s.Store == nil {
		return "-"
	}

	expr := setexpr.Format(s.Store)
	if expr == "" {
		return "{}"
	}

	return expr
}

func stepStatus(s workload.StepResult) string {
	if s.Mismatch != nil {
		return statusFail
	}

	return statusPass
}
