package layout

import (
	"dxp/docx"
)

type wrappedCell struct {
	x, width float64
	borders  docx.CellBorders
	lines    []Line
	height   float64
}

type wrappedRow struct {
	cells  []wrappedCell
	height float64
}

type wrappedTable struct {
	x, width float64
	rows     []wrappedRow
}

// wrapTable lays out every cell at its column width. The row height is the
// tallest cell; widths wider than the text column are shrunk proportionally.
func (w *wrapper) wrapTable(t *docx.Table, originX, avail float64) *wrappedTable {
	wt := &wrappedTable{x: originX}

	for _, row := range t.Rows {
		declared := make([]float64, len(row.Cells))
		for i, cell := range row.Cells {
			declared[i] = cell.Width
		}
		widths := fitColumnWidths(declared, avail)

		wr := wrappedRow{}
		x := originX
		for i, cell := range row.Cells {
			wc := wrappedCell{x: x, width: widths[i], borders: cell.Borders}
			for _, para := range cell.Paragraphs {
				wp := w.wrapParagraph(para, x, widths[i], true)
				wc.lines = append(wc.lines, wp.lines...)
			}
			for j := range wc.lines {
				wc.height += wc.lines[j].Height
			}
			if wc.height > wr.height {
				wr.height = wc.height
			}
			x += widths[i]
			wr.cells = append(wr.cells, wc)
		}
		if rowWidth := x - originX; rowWidth > wt.width {
			wt.width = rowWidth
		}
		wt.rows = append(wt.rows, wr)
	}
	return wt
}

// fitColumnWidths keeps declared widths when they fit and otherwise divides
// the available width proportionally. The last column absorbs the rounding
// remainder so the sum always matches the target exactly.
func fitColumnWidths(declared []float64, avail float64) []float64 {
	if len(declared) == 0 {
		return nil
	}
	var total float64
	for _, w := range declared {
		total += w
	}
	if total <= 0 {
		// No usable declared widths: equal columns.
		widths := make([]float64, len(declared))
		each := avail / float64(len(declared))
		var used float64
		for i := range widths[:len(widths)-1] {
			widths[i] = each
			used += each
		}
		widths[len(widths)-1] = avail - used
		return widths
	}
	if total <= avail {
		return declared
	}
	scale := avail / total
	widths := make([]float64, len(declared))
	var used float64
	for i := range declared[:len(declared)-1] {
		widths[i] = declared[i] * scale
		used += widths[i]
	}
	widths[len(widths)-1] = avail - used
	return widths
}
