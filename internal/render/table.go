package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Table returns a go-pretty writer loaded with the grid. Headers keep
// the column names as written.
func Table(g Grid) table.Writer {
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	style.HTML = table.HTMLOptions{
		CSSClass:    "result-grid",
		EmptyColumn: "",
		EscapeText:  true,
		Newline:     "<br/>",
	}

	t := table.NewWriter()
	t.SetStyle(style)

	header := make(table.Row, len(g.Header))
	for i, col := range g.Header {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, cells := range g.Rows {
		row := make(table.Row, len(cells))
		for i, cell := range cells {
			row[i] = cell
		}
		t.AppendRow(row)
	}
	return t
}

// String renders a grid as a light box-drawn table.
func String(g Grid) string {
	if g.Empty() {
		return ""
	}
	return Table(g).Render()
}

func writeTable(w io.Writer, grids []Grid) error {
	first := true
	for _, g := range grids {
		if g.Empty() {
			continue
		}
		if !first {
			_, _ = fmt.Fprintln(w)
		}
		first = false

		_, _ = fmt.Fprintln(w, Table(g).Render())
		if _, err := fmt.Fprintf(w, "(%d rows)\n", len(g.Rows)); err != nil {
			return err
		}
	}
	return nil
}

func writeMarkdown(w io.Writer, grids []Grid) error {
	first := true
	for _, g := range grids {
		if g.Empty() {
			continue
		}
		if !first {
			_, _ = fmt.Fprintln(w)
		}
		first = false

		if _, err := fmt.Fprintln(w, Table(g).RenderMarkdown()); err != nil {
			return err
		}
	}
	return nil
}

func writeHTML(w io.Writer, grids []Grid) error {
	for _, g := range grids {
		if g.Empty() {
			continue
		}
		if _, err := fmt.Fprintln(w, Table(g).RenderHTML()); err != nil {
			return err
		}
	}
	return nil
}

// writeCSV separates result sets with an empty record.
func writeCSV(w io.Writer, grids []Grid) error {
	cw := csv.NewWriter(w)
	first := true
	for _, g := range grids {
		if g.Empty() {
			continue
		}
		if !first {
			if err := cw.Write([]string{""}); err != nil {
				return err
			}
		}
		first = false

		if err := cw.Write(g.Header); err != nil {
			return err
		}
		if err := cw.WriteAll(g.Rows); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
