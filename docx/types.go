// Package docx builds a structured document model from the parts of a
// WordprocessingML package. Style references and direct formatting are
// captured raw; resolution happens later in the styles package.
package docx

import "errors"

// ErrMalformedInput is returned when a required package part is missing or
// does not have the expected structural shape.
var ErrMalformedInput = errors.New("malformed document input")

// Alignment is horizontal paragraph alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

// Color is an RGB triple.
type Color [3]uint8

// Border describes a paragraph bottom border. Width and Space are in points.
type Border struct {
	Width float64
	Space float64
	Color Color
}

// Extra is the vertical room the border takes below the paragraph text.
func (b Border) Extra() float64 {
	return b.Width + b.Space
}

// Geometry holds the page box in points. One section per document; the
// first sectPr wins.
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
	LinePitch    float64
}

// Defaults are the document-wide fallback properties from docDefaults,
// applied before any style or direct formatting.
type Defaults struct {
	FontSize    float64
	FontName    string
	SpaceAfter  float64
	LineSpacing float64
}

// ThemeFonts are the latin typefaces of the document theme, consulted when a
// run references a theme font slot instead of a concrete family.
type ThemeFonts struct {
	Major string
	Minor string
}

// RunProps are run-level formatting overrides. Nil means "not set here,
// inherit".
type RunProps struct {
	FontName  *string
	FontSize  *float64
	Bold      *bool
	Italic    *bool
	Underline *bool
	Strike    *bool
	Color     *Color
}

// ParaProps are paragraph-level formatting overrides. Nil means "not set
// here, inherit".
type ParaProps struct {
	Alignment         *Alignment
	SpaceBefore       *float64
	SpaceAfter        *float64
	LineSpacing       *float64
	IndentLeft        *float64
	IndentHanging     *float64
	ContextualSpacing *bool
	KeepNext          *bool
	BorderBottom      *Border
}

// Style is one named paragraph style. Styles form a forest via BasedOn.
type Style struct {
	ID      string
	BasedOn string
	Para    ParaProps
	Run     RunProps
}

// Run is a contiguous span of text sharing formatting.
type Run struct {
	Text  string
	Props RunProps
}

// Image is an inline raster image, normalized to JPEG bytes. Display sizes
// are in points.
type Image struct {
	Data          []byte
	PixelWidth    int
	PixelHeight   int
	DisplayWidth  float64
	DisplayHeight float64
}

// Paragraph is an ordered run sequence plus its raw formatting sources.
// List fields come from the numbering part and were computed in document
// order during the build (counters are stateful).
type Paragraph struct {
	StyleID string
	Props   ParaProps
	Runs    []Run
	Images  []*Image

	ListLabel         string
	ListIndentLeft    float64
	ListIndentHanging float64
}

// CellBorders are the per-side borders of a table cell. Nil sides are not
// drawn.
type CellBorders struct {
	Top    *Border
	Bottom *Border
	Left   *Border
	Right  *Border
}

// Cell holds a declared width in points and the cell content.
type Cell struct {
	Width      float64
	Borders    CellBorders
	Paragraphs []*Paragraph
}

type Row struct {
	Cells []Cell
}

// Table with grid column widths as declared (possibly empty when the grid
// is absent; layout auto-fits in that case).
type Table struct {
	ColWidths []float64
	Rows      []Row
}

// Block is a top-level content node: *Paragraph or *Table.
type Block interface {
	block()
}

func (*Paragraph) block() {}
func (*Table) block()     {}

// FontKey identifies one face: lowercased family name plus style bits.
type FontKey struct {
	Family string
	Bold   bool
	Italic bool
}

// Document is the fully built model. Immutable after Parse returns.
type Document struct {
	Geometry Geometry
	Defaults Defaults
	Theme    ThemeFonts
	Styles   map[string]*Style
	Blocks   []Block

	// EmbeddedFonts maps a face key to the deobfuscated font program.
	EmbeddedFonts map[FontKey][]byte
}
