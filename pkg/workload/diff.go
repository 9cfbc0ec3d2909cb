package workload

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Mismatch describes a step whose result differs from its expectation.
type Mismatch struct {
	Expected string
	Actual   string
	// Diff marks deletions from Expected as [-text-] and insertions as {+text+}.
	Diff string
}

func newMismatch(expected, actual string) *Mismatch {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(expected, actual, false))

	return &Mismatch{
		Expected: expected,
		Actual:   actual,
		Diff:     renderDiff(diffs),
	}
}

func renderDiff(diffs []diffmatchpatch.Diff) string {
	var sb strings.Builder

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-")
			sb.WriteString(d.Text)
			sb.WriteString("-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+")
			sb.WriteString(d.Text)
			sb.WriteString("+}")
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		}
	}

	return sb.String()
}
