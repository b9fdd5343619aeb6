package pdf

import (
	"bytes"
	"fmt"
	"math"

	"dxp/docx"
	"dxp/fonts"
	"dxp/layout"
)

// content builds one page's content stream. Layout coordinates come in with
// the origin at the top left; every y is flipped into PDF space here.
type content struct {
	buf        bytes.Buffer
	pageHeight float64
	fonts      map[*fonts.Handle]Name
	images     map[*docx.Image]Name
}

func newContent(pageHeight float64, fontNames map[*fonts.Handle]Name, imageNames map[*docx.Image]Name) *content {
	return &content{pageHeight: pageHeight, fonts: fontNames, images: imageNames}
}

func (c *content) bytes() []byte { return c.buf.Bytes() }

func (c *content) op(format string, args ...any) {
	fmt.Fprintf(&c.buf, format, args...)
	c.buf.WriteByte('\n')
}

func num(v float64) string { return Number(v).String() }

func (c *content) color(col docx.Color) {
	c.op("%s %s %s rg", num(float64(col[0])/255), num(float64(col[1])/255), num(float64(col[2])/255))
}

// rule fills one rectangle. x, y are the top-left corner in layout space.
func (c *content) rule(r layout.Rule) {
	c.color(r.Color)
	c.op("%s %s %s %s re f", num(r.X), num(c.pageHeight-r.Y-r.Height), num(r.Width), num(r.Height))
}

// image places one XObject into its box.
func (c *content) image(img layout.PlacedImage) {
	name, ok := c.images[img.Image]
	if !ok {
		return
	}
	c.op("q")
	c.op("%s 0 0 %s %s %s cm", num(img.Width), num(img.Height), num(img.X), num(c.pageHeight-img.Y-img.Height))
	c.op("%s Do", name.String())
	c.op("Q")
}

// line shows one laid-out line. Consecutive chunks sharing a font, size and
// color merge into one text object.
func (c *content) line(line layout.PlacedLine) {
	chunks := line.Chunks
	for start := 0; start < len(chunks); {
		end := start + 1
		for end < len(chunks) && sameShow(chunks[start], chunks[end]) {
			end++
		}
		c.show(chunks[start:end], c.pageHeight-line.Baseline)
		start = end
	}
}

func sameShow(a, b layout.PlacedChunk) bool {
	return a.Font == b.Font && a.Size == b.Size && a.Color == b.Color
}

// show emits one text object for a run of chunks. The TJ array carries the
// words, the kern adjustments inside them and the exact inter-word gaps, all
// in thousandths of the em.
func (c *content) show(chunks []layout.PlacedChunk, baseline float64) {
	first := chunks[0]
	font := first.Font
	size := first.Size

	var elems []Object
	pen := first.X
	for i, ch := range chunks {
		if i > 0 {
			// The word gap is a real space glyph so extracted text keeps its
			// word boundaries; the residual (justification stretch) is a TJ
			// offset.
			gap := ch.X - pen
			residual := gap - font.AdvanceWidth(' ', size)
			if math.Abs(residual) > 1e-6 {
				elems = append(elems, Number(-residual/size*1000))
			}
			elems = appendText(elems, font, append([]byte{' '}, ch.Text...))
		} else {
			elems = appendText(elems, font, ch.Text)
		}
		pen = ch.X + ch.Width
	}

	c.color(first.Color)
	c.op("BT")
	c.op("%s %s Tf", c.fonts[font].String(), num(size))
	c.op("%s %s Td", num(first.X), num(baseline))
	if len(elems) == 1 {
		c.op("%s Tj", elems[0].String())
	} else {
		c.op("%s TJ", Array(elems).String())
	}
	c.op("ET")
}

// appendText splits encoded text at kern pairs, interleaving the pair
// adjustments. TJ offsets are thousandths of the em, kern values already are.
func appendText(elems []Object, font *fonts.Handle, encoded []byte) []Object {
	seg := 0
	for i := 1; i < len(encoded); i++ {
		k := kern1000(font, encoded[i-1], encoded[i])
		if k == 0 {
			continue
		}
		elems = append(elems, Str(encoded[seg:i]), Number(-k))
		seg = i
	}
	return append(elems, Str(encoded[seg:]))
}

func kern1000(font *fonts.Handle, left, right byte) float64 {
	if font.Kern == nil {
		return 0
	}
	return font.Kern[[2]byte{left, right}]
}
