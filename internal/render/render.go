package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/foundersandcoders/app-data/internal/pivot"
)

// Format names an output encoding for a report table.
type Format string

const (
	Markdown Format = "markdown"
	CSV      Format = "csv"
	TSV      Format = "tsv"
	Console  Format = "table"
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "tsv":
		return TSV, nil
	case "table", "console", "":
		return Console, nil
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// Grid is a renderable table of string cells. Pivot tables convert to
// grids; reports with non-numeric columns build grids directly.
type Grid struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// FromTable converts a pivot table to a grid. Bold row markers survive
// only in markdown; every other format carries the plain cells.
func FromTable(t pivot.Table, f Format) Grid {
	g := Grid{Title: t.Title, Headers: t.Headers}
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row.Values)+1)
		cells = append(cells, row.Label)
		for _, v := range row.Values {
			cells = append(cells, strconv.Itoa(v))
		}
		if f == Markdown && row.Bold {
			for i := range cells {
				cells[i] = "**" + cells[i] + "**"
			}
		}
		g.Rows = append(g.Rows, cells)
	}
	return g
}

// Write renders a pivot table to w in the given format.
func Write(w io.Writer, t pivot.Table, f Format) error {
	return WriteGrid(w, FromTable(t, f), f)
}

// WriteGrid renders a grid to w in the given format.
func WriteGrid(w io.Writer, g Grid, f Format) error {
	switch f {
	case Markdown:
		return writeMarkdown(w, g)
	case CSV:
		return writeDelimited(w, g, ',')
	case TSV:
		return writeDelimited(w, g, '\t')
	case Console:
		return writeConsole(w, g)
	}
	return fmt.Errorf("unknown output format %q", f)
}

func writeMarkdown(w io.Writer, g Grid) error {
	var b strings.Builder
	if g.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", g.Title)
	}
	b.WriteString("| " + strings.Join(g.Headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(g.Headers)) + "\n")
	for _, row := range g.Rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDelimited(w io.Writer, g Grid, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(g.Headers); err != nil {
		return err
	}
	for _, row := range g.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeConsole(w io.Writer, g Grid) error {
	widths := make([]int, len(g.Headers))
	numeric := make([]bool, len(g.Headers))
	for i, h := range g.Headers {
		widths[i] = len(h)
		numeric[i] = i > 0
	}
	for _, row := range g.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
			// A single non-numeric value turns off right-alignment for
			// the whole column.
			if numeric[i] && cell != "" {
				if _, err := strconv.Atoi(cell); err != nil {
					numeric[i] = false
				}
			}
		}
	}

	var b strings.Builder
	if g.Title != "" {
		b.WriteString(g.Title + "\n")
		b.WriteString(strings.Repeat("=", len(g.Title)) + "\n")
	}
	writeLine := func(cols []string) {
		for i, cell := range cols {
			if i > 0 {
				b.WriteString("  ")
			}
			if i < len(numeric) && numeric[i] {
				fmt.Fprintf(&b, "%*s", widths[i], cell)
			} else {
				fmt.Fprintf(&b, "%-*s", widths[i], cell)
			}
		}
		b.WriteString("\n")
	}
	writeLine(g.Headers)
	for _, row := range g.Rows {
		writeLine(row)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
