package docx

import (
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"dxp/archive"
)

// Defaults for the page box when the body carries no section properties:
// US Letter with one-inch margins.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
	defaultMargin     = 72.0
)

// Options tunes the model build.
type Options struct {
	// JPEGQuality is used when non-JPEG media has to be re-encoded.
	JPEGQuality int
}

type builder struct {
	c         *archive.Container
	theme     ThemeFonts
	defaults  Defaults
	styles    map[string]*Style
	numbering *numbering
	media     *mediaReader
	log       *zap.Logger
}

// Parse reads all relevant package parts and builds the document model.
// Optional parts that are missing or unreadable fall back to defaults; a
// missing main document part is ErrMalformedInput.
func Parse(c *archive.Container, opts Options, log *zap.Logger) (*Document, error) {
	const mainPart = "word/document.xml"
	if !c.Has(mainPart) {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedInput, mainPart)
	}

	b := &builder{c: c, log: log}
	b.theme = parseTheme(c, log)
	b.defaults, b.styles = parseStyles(c, b.theme, log)
	b.numbering = parseNumbering(c, log)
	b.media = &mediaReader{
		c:       c,
		rels:    parseRels(c, "word/_rels/document.xml.rels", log),
		quality: opts.JPEGQuality,
		log:     log,
	}

	data, err := c.Part(mainPart)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %s", ErrMalformedInput, mainPart, err)
	}
	xml, err := parseXML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %s", ErrMalformedInput, mainPart, err)
	}

	body := xml.Root().SelectElement("w:body")
	if body == nil {
		return nil, fmt.Errorf("%w: document has no body", ErrMalformedInput)
	}

	doc := &Document{
		Geometry:      b.parseGeometry(body),
		Defaults:      b.defaults,
		Theme:         b.theme,
		Styles:        b.styles,
		EmbeddedFonts: parseFontTable(c, log),
	}

	for _, node := range body.ChildElements() {
		switch node.Tag {
		case "p":
			doc.Blocks = append(doc.Blocks, b.parseParagraph(node))
		case "tbl":
			doc.Blocks = append(doc.Blocks, b.parseTable(node))
		case "sectPr":
			// handled by parseGeometry
		default:
			log.Warn("Unsupported block element, skipping", zap.String("tag", node.Tag))
		}
	}
	return doc, nil
}

func (b *builder) parseGeometry(body *etree.Element) Geometry {
	g := Geometry{
		PageWidth:    defaultPageWidth,
		PageHeight:   defaultPageHeight,
		MarginTop:    defaultMargin,
		MarginBottom: defaultMargin,
		MarginLeft:   defaultMargin,
		MarginRight:  defaultMargin,
		LinePitch:    b.defaults.FontSize * b.defaults.LineSpacing,
	}
	sect := body.SelectElement("w:sectPr")
	if sect == nil {
		return g
	}
	if pgSz := sect.SelectElement("w:pgSz"); pgSz != nil {
		if v, ok := twipsAttr(pgSz, "w:w"); ok {
			g.PageWidth = v
		}
		if v, ok := twipsAttr(pgSz, "w:h"); ok {
			g.PageHeight = v
		}
	}
	if pgMar := sect.SelectElement("w:pgMar"); pgMar != nil {
		if v, ok := twipsAttr(pgMar, "w:top"); ok {
			g.MarginTop = v
		}
		if v, ok := twipsAttr(pgMar, "w:bottom"); ok {
			g.MarginBottom = v
		}
		if v, ok := twipsAttr(pgMar, "w:left"); ok {
			g.MarginLeft = v
		}
		if v, ok := twipsAttr(pgMar, "w:right"); ok {
			g.MarginRight = v
		}
	}
	if grid := sect.SelectElement("w:docGrid"); grid != nil {
		if v, ok := twipsAttr(grid, "w:linePitch"); ok {
			g.LinePitch = v
		}
	}
	return g
}

func (b *builder) parseParagraph(node *etree.Element) *Paragraph {
	ppr := node.SelectElement("w:pPr")

	para := &Paragraph{Props: parseParaProps(ppr)}
	if ppr != nil {
		para.StyleID = attrVal(ppr, "w:pStyle")
	}

	if numPr := selectChild(ppr, "w:numPr"); numPr != nil {
		numID := attrVal(numPr, "w:numId")
		level := 0
		if v, ok := floatAttr(numPr.SelectElement("w:ilvl"), "w:val"); ok {
			level = int(v)
		}
		if numID != "" {
			if label, left, hanging, ok := b.numbering.label(numID, level); ok {
				para.ListLabel = label
				para.ListIndentLeft = left
				para.ListIndentHanging = hanging
			}
		}
	}

	for _, child := range node.ChildElements() {
		switch child.Tag {
		case "r":
			b.appendRun(para, child)
		case "hyperlink":
			// link targets are not rendered, the runs inside still are
			for _, inner := range child.ChildElements() {
				if inner.Tag == "r" {
					b.appendRun(para, inner)
				}
			}
		case "pPr", "drawing", "proofErr", "bookmarkStart", "bookmarkEnd":
		default:
			b.log.Warn("Unsupported paragraph element, skipping", zap.String("tag", child.Tag))
		}
	}

	// Empty paragraphs with an explicit size in the paragraph mark still take
	// vertical space, so they get a synthetic empty run.
	if len(para.Runs) == 0 {
		if mark := selectChild(ppr, "w:rPr"); mark != nil {
			props := parseRunProps(mark, b.theme)
			if props.FontSize != nil {
				para.Runs = append(para.Runs, Run{Props: props})
			}
		}
	}

	para.Images = b.media.paragraphImages(node)
	return para
}

func (b *builder) appendRun(para *Paragraph, node *etree.Element) {
	var text string
	for _, child := range node.ChildElements() {
		switch child.Tag {
		case "t":
			text += child.Text()
		case "tab":
			text += "\t"
		}
	}
	if text == "" {
		return
	}
	para.Runs = append(para.Runs, Run{
		Text:  text,
		Props: parseRunProps(node.SelectElement("w:rPr"), b.theme),
	})
}

func (b *builder) parseTable(node *etree.Element) *Table {
	table := &Table{}
	if grid := node.SelectElement("w:tblGrid"); grid != nil {
		for _, col := range grid.ChildElements() {
			if col.Tag != "gridCol" {
				continue
			}
			if v, ok := twipsAttr(col, "w:w"); ok {
				table.ColWidths = append(table.ColWidths, v)
			}
		}
	}
	for _, tr := range node.ChildElements() {
		if tr.Tag != "tr" {
			continue
		}
		var row Row
		for _, tc := range tr.ChildElements() {
			if tc.Tag != "tc" {
				continue
			}
			cell := Cell{}
			if tcPr := tc.SelectElement("w:tcPr"); tcPr != nil {
				if tcW := tcPr.SelectElement("w:tcW"); tcW != nil {
					if v, ok := twipsAttr(tcW, "w:w"); ok {
						cell.Width = v
					}
				}
				cell.Borders = parseCellBorders(tcPr.SelectElement("w:tcBorders"))
			}
			if cell.Width == 0 {
				if idx := len(row.Cells); idx < len(table.ColWidths) {
					cell.Width = table.ColWidths[idx]
				} else {
					cell.Width = defaultMargin
				}
			}
			for _, p := range tc.ChildElements() {
				if p.Tag == "p" {
					cell.Paragraphs = append(cell.Paragraphs, b.parseParagraph(p))
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// selectChild is SelectElement tolerating a nil parent.
func selectChild(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	return el.SelectElement(tag)
}
