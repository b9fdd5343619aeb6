package layout

import (
	"strings"

	"go.uber.org/zap"

	"dxp/docx"
	"dxp/fonts"
	"dxp/styles"
)

// wrappedPara is one paragraph after line breaking, before pagination.
type wrappedPara struct {
	eff   styles.Effective
	lines []Line
	// label is the list marker, drawn in the hanging gutter on the first
	// line.
	label *PlacedChunk
}

func (p *wrappedPara) height() float64 {
	var h float64
	for i := range p.lines {
		h += p.lines[i].Height
	}
	return h
}

type wrapper struct {
	res   *styles.Resolver
	fonts *fonts.Resolver
	log   *zap.Logger
}

// wrapParagraph breaks one paragraph into lines. originX is the absolute
// left edge of the text column, avail its width. Inside table cells spacing
// collapses and lines are set solid, matching how cells are rendered.
func (w *wrapper) wrapParagraph(para *docx.Paragraph, originX, avail float64, inCell bool) *wrappedPara {
	eff := w.res.Resolve(para)
	if inCell {
		eff.SpaceBefore = 0
		eff.SpaceAfter = 0
		eff.LineSpacing = 1.0
		eff.ContextualSpacing = false
		eff.KeepNext = false
	}
	wp := &wrappedPara{eff: eff}

	chunks := w.chunkRuns(para, eff)
	textLeft := originX + eff.IndentLeft
	hasLabel := para.ListLabel != ""

	// With a list label the gutter holds the marker and every line starts at
	// the indent; without one the hanging value outdents the first line.
	firstStart, restStart := textLeft, textLeft
	if !hasLabel {
		firstStart = textLeft - eff.IndentHanging
	}
	firstAvail := avail - (firstStart - originX)
	restAvail := avail - (restStart - originX)

	if len(chunks) == 0 {
		if line, ok := w.emptyLine(para, eff, firstStart); ok {
			wp.lines = append(wp.lines, line)
		}
	} else {
		wp.lines = w.breakLines(chunks, eff, firstStart, firstAvail, restStart, restAvail)
	}

	if hasLabel && len(wp.lines) > 0 {
		label := w.labelChunk(para, eff)
		label.X = textLeft - eff.IndentHanging
		wp.label = &label
	}
	return wp
}

// chunkRuns splits run text into word chunks and appends inline images as
// single oversized chunks.
func (w *wrapper) chunkRuns(para *docx.Paragraph, eff styles.Effective) []Chunk {
	var chunks []Chunk
	for _, run := range para.Runs {
		rp := w.res.ResolveRun(eff, run)
		font := w.fonts.Resolve(rp.FontName, rp.Bold, rp.Italic)
		for _, word := range strings.Fields(run.Text) {
			encoded := fonts.EncodeWinAnsi(word)
			if len(encoded) == 0 {
				continue
			}
			chunks = append(chunks, Chunk{
				Text:      encoded,
				Font:      font,
				Size:      rp.FontSize,
				Color:     rp.Color,
				Underline: rp.Underline,
				Strike:    rp.Strike,
				Width:     font.TextWidth(encoded, rp.FontSize),
			})
		}
	}
	for _, img := range para.Images {
		chunks = append(chunks, Chunk{
			Image:  img,
			Width:  img.DisplayWidth,
			Height: img.DisplayHeight,
		})
	}
	return chunks
}

// emptyLine keeps the vertical room of a paragraph that has sized runs but
// no words (the synthetic paragraph-mark run case). Paragraphs with no runs
// at all contribute spacing only.
func (w *wrapper) emptyLine(para *docx.Paragraph, eff styles.Effective, startX float64) (Line, bool) {
	if len(para.Runs) == 0 {
		return Line{}, false
	}
	var height, ascent float64
	for _, run := range para.Runs {
		rp := w.res.ResolveRun(eff, run)
		font := w.fonts.Resolve(rp.FontName, rp.Bold, rp.Italic)
		if h := font.LineHeightRatio * rp.FontSize; h > height {
			height = h
			ascent = font.AscentRatio * rp.FontSize
		}
	}
	return Line{Height: height * eff.LineSpacing, Ascent: ascent}, true
}

func (w *wrapper) labelChunk(para *docx.Paragraph, eff styles.Effective) PlacedChunk {
	rp := eff.Run
	font := w.fonts.Resolve(rp.FontName, rp.Bold, rp.Italic)
	encoded := fonts.EncodeWinAnsi(para.ListLabel)
	return PlacedChunk{Chunk: Chunk{
		Text:  encoded,
		Font:  font,
		Size:  rp.FontSize,
		Color: rp.Color,
		Width: font.TextWidth(encoded, rp.FontSize),
	}}
}

// breakLines is the greedy accumulator: chunks join the current line while
// they fit, a chunk wider than the whole line is placed alone and clipped.
func (w *wrapper) breakLines(chunks []Chunk, eff styles.Effective, firstStart, firstAvail, restStart, restAvail float64) []Line {
	var lines []Line
	var cur []Chunk
	var curWidth float64

	startX, availX := firstStart, firstAvail

	flush := func(final bool) {
		if len(cur) == 0 {
			return
		}
		lines = append(lines, buildLine(cur, eff, startX, availX, final))
		cur, curWidth = nil, 0
		startX, availX = restStart, restAvail
	}

	for _, chunk := range chunks {
		gap := 0.0
		if len(cur) > 0 {
			gap = spaceWidth(chunk)
		}
		if len(cur) > 0 && curWidth+gap+chunk.Width > availX {
			flush(false)
			gap = 0
		}
		if len(cur) == 0 && chunk.Width > availX {
			w.log.Warn("Layout overflow: item wider than the text column, clipping",
				zap.Float64("width", chunk.Width), zap.Float64("available", availX))
			cur = append(cur, chunk)
			curWidth = chunk.Width
			flush(false)
			continue
		}
		cur = append(cur, chunk)
		curWidth += gap + chunk.Width
	}
	flush(true)
	return lines
}

// spaceWidth is the inter-word gap in front of a chunk, measured in the
// chunk's own font.
func spaceWidth(c Chunk) float64 {
	if c.Image != nil || c.Font == nil {
		return 0
	}
	return c.Font.AdvanceWidth(' ', c.Size)
}

// buildLine assigns final x positions: alignment offsets the line as a
// whole, justification widens the inter-word gaps of non-final lines.
func buildLine(chunks []Chunk, eff styles.Effective, startX, avail float64, final bool) Line {
	var natural float64
	gaps := 0
	for i, c := range chunks {
		if i > 0 {
			natural += spaceWidth(c)
			gaps++
		}
		natural += c.Width
	}

	offset, extra := 0.0, 0.0
	leftover := avail - natural
	if leftover > 0 {
		switch eff.Alignment {
		case docx.AlignCenter:
			offset = leftover / 2
		case docx.AlignRight:
			offset = leftover
		case docx.AlignJustify:
			if !final && gaps > 0 {
				extra = leftover / float64(gaps)
			}
		}
	}

	line := Line{Chunks: make([]PlacedChunk, 0, len(chunks))}
	x := startX + offset
	var height, ascent float64
	for i, c := range chunks {
		if i > 0 {
			x += spaceWidth(c) + extra
		}
		line.Chunks = append(line.Chunks, PlacedChunk{Chunk: c, X: x})
		x += c.Width

		if c.Image != nil {
			if c.Height > height {
				height = c.Height
				if c.Height > ascent {
					ascent = c.Height
				}
			}
			continue
		}
		if h := c.Font.LineHeightRatio * c.Size; h*eff.LineSpacing > height {
			height = h * eff.LineSpacing
		}
		if a := c.Font.AscentRatio * c.Size; a > ascent {
			ascent = a
		}
	}
	line.Width = x - startX - offset
	line.Height = height
	line.Ascent = ascent
	return line
}
