// Package layout turns resolved document content and font metrics into
// positioned lines, rules and images grouped into pages. Coordinates are in
// points with the origin at the top left of the page; the emitter flips
// them into PDF space.
package layout

import (
	"dxp/docx"
	"dxp/fonts"
)

// Chunk is one unbreakable horizontal piece: a word (or list label) with
// uniform formatting, or an inline image.
type Chunk struct {
	Text      []byte // WinAnsi encoded, empty for images
	Font      *fonts.Handle
	Size      float64
	Color     docx.Color
	Underline bool
	Strike    bool

	Image *docx.Image // non-nil for image chunks

	Width  float64
	Height float64 // images only; text height comes from font metrics
}

// PlacedChunk is a chunk with its absolute x position.
type PlacedChunk struct {
	Chunk
	X float64
}

// Line is a laid-out row of chunks. Chunk positions are final; the line's
// vertical position is assigned during pagination.
type Line struct {
	Chunks []PlacedChunk
	Width  float64
	// Height is the advance to the next line, line spacing applied.
	Height float64
	// Ascent is the baseline offset from the line top.
	Ascent float64
}

// PlacedLine is a line with its absolute baseline.
type PlacedLine struct {
	Line
	Baseline float64
}

// Rule is a filled rectangle: paragraph bottom borders, table cell borders,
// underline and strikethrough strokes.
type Rule struct {
	X, Y          float64 // top-left corner
	Width, Height float64
	Color         docx.Color
}

// PlacedImage is an image with its absolute box.
type PlacedImage struct {
	Image         *docx.Image
	X, Y          float64 // top-left corner
	Width, Height float64
}

// Page is the finished layout of one page.
type Page struct {
	Lines  []PlacedLine
	Rules  []Rule
	Images []PlacedImage
}
