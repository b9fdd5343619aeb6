package layout

import (
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dxp/docx"
	"dxp/fonts"
	"dxp/styles"
)

// Engine paginates a document. Paragraph wrapping runs on a bounded worker
// pool; the pagination pass is sequential so page order always matches
// content order.
type Engine struct {
	doc     *docx.Document
	wrapper *wrapper
	workers int
	log     *zap.Logger
}

// New builds an engine. The style resolver and font resolver must cover the
// given document; both are read-only during layout.
func New(doc *docx.Document, res *styles.Resolver, fr *fonts.Resolver, workers int, log *zap.Logger) *Engine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		doc:     doc,
		wrapper: &wrapper{res: res, fonts: fr, log: log},
		workers: workers,
		log:     log,
	}
}

// Layout wraps and paginates the whole document.
func (e *Engine) Layout() []*Page {
	geom := e.doc.Geometry
	originX := geom.MarginLeft
	avail := geom.PageWidth - geom.MarginLeft - geom.MarginRight

	// Wrapping is independent per block once fonts and styles exist; the
	// result slice keeps document order regardless of completion order.
	wrapped := make([]any, len(e.doc.Blocks))
	var eg errgroup.Group
	eg.SetLimit(e.workers)
	for i, block := range e.doc.Blocks {
		eg.Go(func() error {
			switch b := block.(type) {
			case *docx.Paragraph:
				wrapped[i] = e.wrapper.wrapParagraph(b, originX, avail, false)
			case *docx.Table:
				wrapped[i] = e.wrapper.wrapTable(b, originX, avail)
			}
			return nil
		})
	}
	_ = eg.Wait()

	pg := newPaginator(geom, e.log)
	var prev *wrappedPara
	for i, block := range wrapped {
		switch b := block.(type) {
		case *wrappedPara:
			gap := blockGap(prev, b)
			if b.eff.KeepNext {
				if next, ok := nextPara(wrapped, i+1); ok {
					e.keepTogether(pg, b, next, gap)
				}
			}
			e.placePara(pg, b, gap, avail)
			prev = b
		case *wrappedTable:
			if prev != nil {
				pg.advance(prev.eff.SpaceAfter)
			}
			e.placeTable(pg, b)
			prev = nil
		}
	}
	return pg.finish()
}

func nextPara(wrapped []any, from int) (*wrappedPara, bool) {
	if from >= len(wrapped) {
		return nil, false
	}
	p, ok := wrapped[from].(*wrappedPara)
	return p, ok
}

// blockGap is the vertical space between two adjacent paragraphs: the
// previous space-after plus the next space-before, collapsed entirely when
// contextual spacing applies.
func blockGap(prev, next *wrappedPara) float64 {
	if prev == nil {
		return next.eff.SpaceBefore
	}
	if styles.SuppressSpacing(prev.eff, next.eff) {
		return 0
	}
	return prev.eff.SpaceAfter + next.eff.SpaceBefore
}

// keepTogether breaks the page early when a keep-with-next pair would be
// split and the pair can fit a page by itself.
func (e *Engine) keepTogether(pg *paginator, cur, next *wrappedPara, gap float64) {
	needed := gap + cur.height() + blockGap(cur, next) + next.height()
	if needed <= pg.remaining() || pg.empty() {
		return
	}
	if needed > pg.usable {
		return // the pair cannot fit any page, the rule yields
	}
	pg.breakPage()
}

// placePara handles the vertical placement of one wrapped paragraph,
// including widow and orphan control.
func (e *Engine) placePara(pg *paginator, wp *wrappedPara, gap float64, avail float64) {
	if !pg.empty() {
		if gap > pg.remaining() {
			pg.breakPage()
		} else {
			pg.advance(gap)
		}
	}

	lines := wp.lines
	fitsOnePage := wp.height() <= pg.usable
	label := wp.label

	for len(lines) > 0 {
		fit := fitCount(lines, pg.remaining())
		if fit < len(lines) && fitsOnePage {
			// Never strand a single line at either side of the break when
			// the paragraph could move whole or split more evenly.
			if len(lines)-fit == 1 && fit > 1 {
				fit--
			}
			if fit == 1 && len(lines) > 1 {
				fit = 0
			}
		}
		if fit == 0 {
			if !pg.empty() {
				pg.breakPage()
				continue
			}
			// A single line taller than the page: place it clipped.
			e.log.Warn("Layout overflow: line taller than the page, clipping",
				zap.Float64("height", lines[0].Height), zap.Float64("usable", pg.usable))
			fit = 1
		}
		for i := 0; i < fit; i++ {
			pg.placeLine(lines[i], label)
			label = nil
		}
		lines = lines[fit:]
		if len(lines) > 0 {
			pg.breakPage()
		}
	}

	if b := wp.eff.BorderBottom; b != nil {
		x := pg.geom.MarginLeft + wp.eff.IndentLeft
		pg.cur.Rules = append(pg.cur.Rules, Rule{
			X:      x,
			Y:      pg.y + b.Space,
			Width:  avail - wp.eff.IndentLeft,
			Height: b.Width,
			Color:  b.Color,
		})
	}
}

func fitCount(lines []Line, remaining float64) int {
	fit := 0
	for _, l := range lines {
		if remaining < l.Height {
			break
		}
		remaining -= l.Height
		fit++
	}
	return fit
}

// placeTable places rows one by one; rows only break between each other,
// a row taller than a page is clipped with a warning.
func (e *Engine) placeTable(pg *paginator, wt *wrappedTable) {
	for _, row := range wt.rows {
		if row.height > pg.remaining() {
			if pg.empty() {
				e.log.Warn("Layout overflow: table row taller than the page, clipping",
					zap.Float64("height", row.height), zap.Float64("usable", pg.usable))
			} else {
				pg.breakPage()
				if row.height > pg.usable {
					e.log.Warn("Layout overflow: table row taller than the page, clipping",
						zap.Float64("height", row.height), zap.Float64("usable", pg.usable))
				}
			}
		}
		rowTop := pg.y
		for _, cell := range row.cells {
			y := rowTop
			for _, line := range cell.lines {
				pg.placeLineAt(line, y, nil)
				y += line.Height
			}
			pg.cellBorderRules(cell, rowTop, row.height)
		}
		pg.advanceTo(rowTop + row.height)
	}
}
