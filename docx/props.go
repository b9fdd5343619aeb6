package docx

import "github.com/beevik/etree"

// resolveFont maps an rFonts element to a concrete family name: the explicit
// w:ascii face wins, then a theme slot reference, otherwise nothing.
func resolveFont(rfonts *etree.Element, theme ThemeFonts) *string {
	if rfonts == nil {
		return nil
	}
	if f := rfonts.SelectAttrValue("w:ascii", ""); f != "" {
		return &f
	}
	switch rfonts.SelectAttrValue("w:asciiTheme", "") {
	case "majorHAnsi":
		f := theme.Major
		return &f
	case "minorHAnsi":
		f := theme.Minor
		return &f
	}
	return nil
}

// parseRunProps reads an rPr element. A nil element yields empty props.
func parseRunProps(rpr *etree.Element, theme ThemeFonts) RunProps {
	var p RunProps
	if rpr == nil {
		return p
	}
	if sz := rpr.SelectElement("w:sz"); sz != nil {
		if hp, ok := floatAttr(sz, "w:val"); ok {
			pt := hp / 2.0
			p.FontSize = &pt
		}
	}
	p.FontName = resolveFont(rpr.SelectElement("w:rFonts"), theme)
	if b := rpr.SelectElement("w:b"); b != nil {
		v := onOff(b)
		p.Bold = &v
	}
	if i := rpr.SelectElement("w:i"); i != nil {
		v := onOff(i)
		p.Italic = &v
	}
	if u := rpr.SelectElement("w:u"); u != nil {
		v := u.SelectAttrValue("w:val", "single") != "none"
		p.Underline = &v
	}
	if s := rpr.SelectElement("w:strike"); s != nil {
		v := onOff(s)
		p.Strike = &v
	}
	p.Color = parseHexColor(attrVal(rpr, "w:color"))
	return p
}

// parseParaProps reads a pPr element. A nil element yields empty props.
func parseParaProps(ppr *etree.Element) ParaProps {
	var p ParaProps
	if ppr == nil {
		return p
	}
	if jc := attrVal(ppr, "w:jc"); jc != "" {
		a := parseAlignment(jc)
		p.Alignment = &a
	}
	if spacing := ppr.SelectElement("w:spacing"); spacing != nil {
		if v, ok := twipsAttr(spacing, "w:before"); ok {
			p.SpaceBefore = &v
		}
		if v, ok := twipsAttr(spacing, "w:after"); ok {
			p.SpaceAfter = &v
		}
		if v, ok := floatAttr(spacing, "w:line"); ok {
			ls := v / lineUnitsPerEm
			p.LineSpacing = &ls
		}
	}
	if ind := ppr.SelectElement("w:ind"); ind != nil {
		if v, ok := twipsAttr(ind, "w:left"); ok {
			p.IndentLeft = &v
		}
		if v, ok := twipsAttr(ind, "w:hanging"); ok {
			p.IndentHanging = &v
		}
	}
	if cs := ppr.SelectElement("w:contextualSpacing"); cs != nil {
		v := onOff(cs)
		p.ContextualSpacing = &v
	}
	if kn := ppr.SelectElement("w:keepNext"); kn != nil {
		v := onOff(kn)
		p.KeepNext = &v
	}
	p.BorderBottom = parseBorderBottom(ppr)
	return p
}

// parseCellBorders reads tcPr/tcBorders into per-side borders.
func parseCellBorders(tcBorders *etree.Element) CellBorders {
	if tcBorders == nil {
		return CellBorders{}
	}
	return CellBorders{
		Top:    parseBorderEdge(tcBorders.SelectElement("w:top")),
		Bottom: parseBorderEdge(tcBorders.SelectElement("w:bottom")),
		Left:   parseBorderEdge(tcBorders.SelectElement("w:left")),
		Right:  parseBorderEdge(tcBorders.SelectElement("w:right")),
	}
}

func parseBorderEdge(edge *etree.Element) *Border {
	if edge == nil {
		return nil
	}
	switch edge.SelectAttrValue("w:val", "none") {
	case "none", "nil":
		return nil
	}
	b := Border{Width: 0.5}
	if v, ok := floatAttr(edge, "w:sz"); ok {
		b.Width = v / borderUnitsPerPoint
	}
	if v, ok := floatAttr(edge, "w:space"); ok {
		b.Space = v
	}
	if c := parseHexColor(edge.SelectAttrValue("w:color", "")); c != nil {
		b.Color = *c
	}
	return &b
}

// parseBorderBottom reads pPr/pBdr/bottom.
func parseBorderBottom(ppr *etree.Element) *Border {
	pbdr := ppr.SelectElement("w:pBdr")
	if pbdr == nil {
		return nil
	}
	return parseBorderEdge(pbdr.SelectElement("w:bottom"))
}
