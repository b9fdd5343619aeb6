package docx

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// OOXML unit conversions. Geometry and spacing come in twentieths of a point,
// font sizes in half-points, border widths in eighths of a point and drawing
// extents in EMU.
const (
	twipsPerPoint       = 20.0
	emuPerPoint         = 12700.0
	lineUnitsPerEm      = 240.0
	borderUnitsPerPoint = 8.0
)

func parseXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	if err := doc.ReadFromBytes(bytes.TrimLeft(data, "\xef\xbb\xbf")); err != nil {
		return nil, fmt.Errorf("parsing xml: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("xml has no root element")
	}
	return doc, nil
}

// attrVal returns the w:val attribute of the named child element, or "" when
// either is absent.
func attrVal(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return child.SelectAttrValue("w:val", "")
}

// floatAttr parses the named attribute as a float, tolerating a nil element.
func floatAttr(el *etree.Element, key string) (float64, bool) {
	if el == nil {
		return 0, false
	}
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// twipsAttr parses the named attribute as twips and converts to points.
func twipsAttr(el *etree.Element, key string) (float64, bool) {
	f, ok := floatAttr(el, key)
	if !ok {
		return 0, false
	}
	return f / twipsPerPoint, true
}

// onOff interprets a toggle element (w:b, w:i, w:keepNext, ...): present
// without w:val means on, otherwise w:val decides.
func onOff(el *etree.Element) bool {
	if el == nil {
		return false
	}
	switch el.SelectAttrValue("w:val", "") {
	case "0", "false", "off", "none":
		return false
	}
	return true
}

// parseHexColor accepts a six-digit RRGGBB value. "auto" and anything
// malformed return no color.
func parseHexColor(val string) *Color {
	if len(val) != 6 || val == "auto" {
		return nil
	}
	var c Color
	for i := 0; i < 3; i++ {
		b, err := strconv.ParseUint(val[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil
		}
		c[i] = uint8(b)
	}
	return &c
}

func parseAlignment(val string) Alignment {
	switch val {
	case "center":
		return AlignCenter
	case "right", "end":
		return AlignRight
	case "both":
		return AlignJustify
	default:
		return AlignLeft
	}
}
