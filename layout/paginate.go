package layout

import (
	"go.uber.org/zap"

	"dxp/docx"
)

// paginator owns the vertical cursor and the growing page list. It is the
// only mutable state of the layout pass and is used from a single goroutine.
type paginator struct {
	geom   docx.Geometry
	usable float64
	pages  []*Page
	cur    *Page
	y      float64
	log    *zap.Logger
}

func newPaginator(geom docx.Geometry, log *zap.Logger) *paginator {
	pg := &paginator{
		geom:   geom,
		usable: geom.PageHeight - geom.MarginTop - geom.MarginBottom,
		log:    log,
	}
	pg.open()
	return pg
}

func (pg *paginator) open() {
	pg.cur = &Page{}
	pg.y = pg.geom.MarginTop
}

func (pg *paginator) breakPage() {
	pg.pages = append(pg.pages, pg.cur)
	pg.open()
}

func (pg *paginator) finish() []*Page {
	pg.pages = append(pg.pages, pg.cur)
	pg.cur = nil
	return pg.pages
}

func (pg *paginator) remaining() float64 {
	return pg.geom.PageHeight - pg.geom.MarginBottom - pg.y
}

func (pg *paginator) empty() bool {
	return len(pg.cur.Lines) == 0 && len(pg.cur.Rules) == 0 && len(pg.cur.Images) == 0
}

func (pg *paginator) advance(dy float64) {
	pg.y += dy
}

func (pg *paginator) advanceTo(y float64) {
	pg.y = y
}

// placeLine puts a line at the cursor and advances it. The optional label
// chunk joins the line without affecting its measurements.
func (pg *paginator) placeLine(line Line, label *PlacedChunk) {
	pg.placeLineAt(line, pg.y, label)
	pg.y += line.Height
}

// placeLineAt records a line with its baseline at top+ascent, registering
// image boxes and text decoration rules along the way.
func (pg *paginator) placeLineAt(line Line, top float64, label *PlacedChunk) {
	baseline := top + line.Ascent

	chunks := line.Chunks
	if label != nil {
		merged := make([]PlacedChunk, 0, len(chunks)+1)
		merged = append(merged, *label)
		merged = append(merged, chunks...)
		chunks = merged
	}

	var kept []PlacedChunk
	for _, c := range chunks {
		if c.Image != nil {
			pg.cur.Images = append(pg.cur.Images, PlacedImage{
				Image:  c.Image,
				X:      c.X,
				Y:      baseline - c.Height,
				Width:  c.Width,
				Height: c.Height,
			})
			continue
		}
		kept = append(kept, c)
		pg.decorationRules(c, baseline)
	}

	pg.cur.Lines = append(pg.cur.Lines, PlacedLine{
		Line:     Line{Chunks: kept, Width: line.Width, Height: line.Height, Ascent: line.Ascent},
		Baseline: baseline,
	})
}

// decorationRules draws underline and strikethrough strokes as thin filled
// rectangles relative to the baseline.
func (pg *paginator) decorationRules(c PlacedChunk, baseline float64) {
	if c.Underline {
		pg.cur.Rules = append(pg.cur.Rules, Rule{
			X:      c.X,
			Y:      baseline + 0.07*c.Size,
			Width:  c.Width,
			Height: 0.05 * c.Size,
			Color:  c.Color,
		})
	}
	if c.Strike {
		pg.cur.Rules = append(pg.cur.Rules, Rule{
			X:      c.X,
			Y:      baseline - 0.25*c.Size,
			Width:  c.Width,
			Height: 0.05 * c.Size,
			Color:  c.Color,
		})
	}
}

// cellBorderRules draws the declared borders of one table cell box.
func (pg *paginator) cellBorderRules(cell wrappedCell, top, height float64) {
	b := cell.borders
	if b.Top != nil {
		pg.cur.Rules = append(pg.cur.Rules, Rule{
			X: cell.x, Y: top, Width: cell.width, Height: b.Top.Width, Color: b.Top.Color,
		})
	}
	if b.Bottom != nil {
		pg.cur.Rules = append(pg.cur.Rules, Rule{
			X: cell.x, Y: top + height - b.Bottom.Width, Width: cell.width, Height: b.Bottom.Width, Color: b.Bottom.Color,
		})
	}
	if b.Left != nil {
		pg.cur.Rules = append(pg.cur.Rules, Rule{
			X: cell.x, Y: top, Width: b.Left.Width, Height: height, Color: b.Left.Color,
		})
	}
	if b.Right != nil {
		pg.cur.Rules = append(pg.cur.Rules, Rule{
			X: cell.x + cell.width - b.Right.Width, Y: top, Width: b.Right.Width, Height: height, Color: b.Right.Color,
		})
	}
}
