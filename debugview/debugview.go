// Package debugview renders the rows of a tabula View as a fixed-width text
// table, one line per key, for terminal debugging.
package debugview

import (
	"bufio"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/edwinsyarief/tabula"
)

// DefaultMaxCellWidth is used when Options.MaxCellWidth is zero.
const DefaultMaxCellWidth = 24

const ellipsis = "…"

// Options controls rendering.
type Options struct {
	// MaxCellWidth caps the display width of every cell. Longer text is
	// truncated with an ellipsis.
	MaxCellWidth int
	// Mapper formats field values. Defaults to tabula.Stringify.
	Mapper tabula.Mapper
}

// Render writes the rows of v to w. Each key of the view snapshot is opened
// with the view's schema for the time it takes to project it; absent
// optional fields render as empty cells.
//
// A key whose required cell vanished since the view's last update yields a
// *tabula.SchemaViolation, which is returned as is.
func Render(w io.Writer, t *tabula.Table, v *tabula.View, opts Options) error {
	if opts.MaxCellWidth <= 0 {
		opts.MaxCellWidth = DefaultMaxCellWidth
	}
	s := v.Schema()
	header := append([]string{"Key"}, s.Header()...)
	var lines [][]string
	for key := range v.Keys() {
		row, err := s.Open(t, key)
		if err != nil {
			return err
		}
		cells := make([]string, 0, len(header))
		cells = append(cells, key.String())
		for _, p := range row.Project(opts.Mapper) {
			cells = append(cells, p.Text)
		}
		row.Release()
		lines = append(lines, cells)
	}
	f := newFormatter(header, lines, opts.MaxCellWidth)
	bw := bufio.NewWriter(w)
	f.writeLine(bw, header)
	f.writeRule(bw)
	for _, cells := range lines {
		f.writeLine(bw, cells)
	}
	bw.WriteString("(" + humanize.Comma(int64(len(lines))) + " " + plural(len(lines)) + ")\n")
	return bw.Flush()
}

func plural(n int) string {
	if n == 1 {
		return "row"
	}
	return "rows"
}

// formatter lays out columns at fixed display widths.
type formatter struct {
	widths []int
	limit  int
}

func newFormatter(header []string, lines [][]string, limit int) formatter {
	f := formatter{widths: make([]int, len(header)), limit: limit}
	measure := func(cells []string) {
		for i, c := range cells {
			if w := min(runewidth.StringWidth(flatten(c)), limit); w > f.widths[i] {
				f.widths[i] = w
			}
		}
	}
	measure(header)
	for _, cells := range lines {
		measure(cells)
	}
	return f
}

// flatten keeps a cell on one line.
func flatten(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

func (f formatter) cell(s string, i int) string {
	s = flatten(s)
	if runewidth.StringWidth(s) > f.limit {
		s = runewidth.Truncate(s, f.limit, ellipsis)
	}
	return runewidth.FillRight(s, f.widths[i])
}

func (f formatter) writeLine(w *bufio.Writer, cells []string) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = f.cell(c, i)
	}
	w.WriteString(strings.TrimRight(strings.Join(parts, " | "), " "))
	w.WriteByte('\n')
}

func (f formatter) writeRule(w *bufio.Writer) {
	parts := make([]string, len(f.widths))
	for i, width := range f.widths {
		parts[i] = strings.Repeat("-", width)
	}
	w.WriteString(strings.Join(parts, "-+-"))
	w.WriteByte('\n')
}
