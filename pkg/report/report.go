// Package report renders run stores and workload results for the terminal
// as tables, plain text or JSON.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/runstore/pkg/alg/rle"
	"github.com/Sumatoshi-tech/runstore/pkg/setexpr"
)

// Output formats.
const (
	FormatTable = "table"
	FormatPlain = "plain"
	FormatJSON  = "json"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("report: unknown format")

// Config controls rendering.
type Config struct {
	Format string
	// MaxRuns truncates rendered runs; zero renders all of them.
	MaxRuns int
	Color   bool
}

// Renderer writes reports to an output stream.
type Renderer struct {
	out     io.Writer
	cfg     Config
	heading *color.Color
	pass    *color.Color
	fail    *color.Color
	removed *color.Color
	added   *color.Color
}

// New creates a Renderer writing to out.
func New(out io.Writer, cfg Config) (*Renderer, error) {
	switch cfg.Format {
	case FormatTable, FormatPlain, FormatJSON:
	case "":
		cfg.Format = FormatTable
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
	}

	r := &Renderer{
		out:     out,
		cfg:     cfg,
		heading: color.New(color.Bold, color.FgCyan),
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed, color.Bold),
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
	}

	if !cfg.Color {
		for _, c := range []*color.Color{r.heading, r.pass, r.fail, r.removed, r.added} {
			c.DisableColor()
		}
	}

	return r, nil
}

// storeJSON is the JSON form of a store.
type storeJSON struct {
	Title string      `json:"title,omitempty"`
	Expr  string      `json:"expr"`
	Runs  [][2]uint16 `json:"runs"`
	Count int         `json:"count"`
}

func newStoreJSON(title string, store *rle.RunStore) storeJSON {
	runs := make([][2]uint16, 0, store.Len())
	count := 0

	for iv := range store.All() {
		runs = append(runs, [2]uint16{iv.Start, iv.End()})
		count += iv.Cardinality()
	}

	return storeJSON{Title: title, Expr: setexpr.Format(store), Runs: runs, Count: count}
}

// Store renders one store under title.
func (r *Renderer) Store(title string, store *rle.RunStore) error {
	switch r.cfg.Format {
	case FormatJSON:
		return r.writeJSON(newStoreJSON(title, store))
	case FormatPlain:
		_, err := fmt.Fprintln(r.out, setexpr.Format(store))

		return err
	default:
		r.heading.Fprintln(r.out, title)

		_, err := fmt.Fprintln(r.out, r.runsTable(store).Render())

		return err
	}
}

// Count renders a cardinality computed without materializing a store.
func (r *Renderer) Count(title string, count int) error {
	switch r.cfg.Format {
	case FormatJSON:
		return r.writeJSON(struct {
			Title string `json:"title,omitempty"`
			Count int    `json:"count"`
		}{title, count})
	case FormatPlain:
		_, err := fmt.Fprintln(r.out, count)

		return err
	default:
		r.heading.Fprintln(r.out, title)

		_, err := fmt.Fprintf(r.out, "Keys: %s\n", humanize.Comma(int64(count)))

		return err
	}
}

// InsertChange records whether inserting Key changed a store.
type InsertChange struct {
	Key     uint16 `json:"key"`
	Changed bool   `json:"changed"`
}

// Inserts renders the outcome of a sequence of inserts and the final store.
func (r *Renderer) Inserts(changes []InsertChange, final *rle.RunStore) error {
	switch r.cfg.Format {
	case FormatJSON:
		return r.writeJSON(struct {
			Inserts []InsertChange `json:"inserts"`
			Result  storeJSON      `json:"result"`
		}{changes, newStoreJSON("", final)})
	case FormatPlain:
		for _, c := range changes {
			_, err := fmt.Fprintf(r.out, "%d %t\n", c.Key, c.Changed)
			if err != nil {
				return err
			}
		}

		return r.Store("", final)
	default:
		tbl := newTable()
		tbl.AppendHeader(table.Row{"Key", "Changed"})

		changed := 0

		for _, c := range changes {
			mark := r.fail.Sprint("no")
			if c.Changed {
				mark = r.pass.Sprint("yes")
				changed++
			}

			tbl.AppendRow(table.Row{c.Key, mark})
		}

		tbl.AppendFooter(table.Row{"Added", fmt.Sprintf("%d of %d", changed, len(changes))})

		_, err := r.heading.Fprintln(r.out, "Inserts")
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(r.out, "%s\n\n", tbl.Render())
		if err != nil {
			return err
		}

		return r.Store("Result", final)
	}
}

func (r *Renderer) runsTable(store *rle.RunStore) table.Writer {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Start", "End", "Keys"})

	count := 0

	for i, iv := range store.Intervals() {
		count += iv.Cardinality()

		if r.cfg.MaxRuns > 0 && i >= r.cfg.MaxRuns {
			continue
		}

		tbl.AppendRow(table.Row{i, iv.Start, iv.End(), humanize.Comma(int64(iv.Cardinality()))})
	}

	if hidden := store.Len() - r.cfg.MaxRuns; r.cfg.MaxRuns > 0 && hidden > 0 {
		tbl.AppendRow(table.Row{"…", "", "", strconv.Itoa(hidden) + " more runs"})
	}

	tbl.AppendFooter(table.Row{"Runs", store.Len(), "Keys", humanize.Comma(int64(count))})

	return tbl
}

func (r *Renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	return nil
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = true
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}
