package docx

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"dxp/archive"
)

type levelDef struct {
	format        string
	text          string
	indentLeft    float64
	indentHanging float64
}

type numKey struct {
	numID string
	level int
}

// numbering is build-time state: the abstractNum/num indirection from
// word/numbering.xml plus per-list counters advanced in document order.
// It does not outlive Parse.
type numbering struct {
	abstract map[string]map[int]levelDef
	numToAbs map[string]string
	counters map[numKey]int
}

func parseNumbering(c *archive.Container, log *zap.Logger) *numbering {
	n := &numbering{
		abstract: make(map[string]map[int]levelDef),
		numToAbs: make(map[string]string),
		counters: make(map[numKey]int),
	}

	const part = "word/numbering.xml"
	if !c.Has(part) {
		return n
	}
	data, err := c.Part(part)
	if err != nil {
		log.Warn("Unable to read numbering part, lists will be plain", zap.Error(err))
		return n
	}
	doc, err := parseXML(data)
	if err != nil {
		log.Warn("Unable to parse numbering part, lists will be plain", zap.Error(err))
		return n
	}

	for _, node := range doc.Root().ChildElements() {
		switch node.Tag {
		case "abstractNum":
			absID := node.SelectAttrValue("w:abstractNumId", "")
			if absID == "" {
				continue
			}
			levels := make(map[int]levelDef)
			for _, lvl := range node.ChildElements() {
				if lvl.Tag != "lvl" {
					continue
				}
				ilvl, err := strconv.Atoi(lvl.SelectAttrValue("w:ilvl", ""))
				if err != nil {
					continue
				}
				def := levelDef{
					format: attrVal(lvl, "w:numFmt"),
					text:   attrVal(lvl, "w:lvlText"),
				}
				if def.format == "" {
					def.format = "bullet"
				}
				if ppr := lvl.SelectElement("w:pPr"); ppr != nil {
					if ind := ppr.SelectElement("w:ind"); ind != nil {
						if v, ok := twipsAttr(ind, "w:left"); ok {
							def.indentLeft = v
						}
						if v, ok := twipsAttr(ind, "w:hanging"); ok {
							def.indentHanging = v
						}
					}
				}
				levels[ilvl] = def
			}
			n.abstract[absID] = levels
		case "num":
			numID := node.SelectAttrValue("w:numId", "")
			absID := attrVal(node, "w:abstractNumId")
			if numID != "" && absID != "" {
				n.numToAbs[numID] = absID
			}
		}
	}
	return n
}

// label advances the counter for (numID, level) and renders the list label.
// Bullets render as "•"; numbered formats substitute the current counter for
// the level's %N placeholder.
func (n *numbering) label(numID string, level int) (label string, indentLeft, indentHanging float64, ok bool) {
	absID, found := n.numToAbs[numID]
	if !found {
		return "", 0, 0, false
	}
	def, found := n.abstract[absID][level]
	if !found {
		return "", 0, 0, false
	}

	key := numKey{numID: numID, level: level}
	n.counters[key]++

	if def.format == "bullet" {
		label = "•"
	} else {
		placeholder := "%" + strconv.Itoa(level+1)
		label = strings.ReplaceAll(def.text, placeholder, strconv.Itoa(n.counters[key]))
	}
	return label, def.indentLeft, def.indentHanging, true
}
