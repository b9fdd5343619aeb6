package docx

import (
	"go.uber.org/zap"

	"dxp/archive"
)

// Built-in document defaults, used when the styles part or docDefaults is
// absent or unreadable.
func builtinDefaults(theme ThemeFonts) Defaults {
	return Defaults{
		FontSize:    12.0,
		FontName:    theme.Minor,
		SpaceAfter:  8.0,
		LineSpacing: 1.2,
	}
}

// parseStyles reads word/styles.xml into document defaults and a raw style
// registry. Styles are captured as-declared; basedOn chains are folded later
// by the style resolver.
func parseStyles(c *archive.Container, theme ThemeFonts, log *zap.Logger) (Defaults, map[string]*Style) {
	defaults := builtinDefaults(theme)
	registry := make(map[string]*Style)

	const part = "word/styles.xml"
	if !c.Has(part) {
		return defaults, registry
	}
	data, err := c.Part(part)
	if err != nil {
		log.Warn("Unable to read styles part, using defaults", zap.Error(err))
		return defaults, registry
	}
	doc, err := parseXML(data)
	if err != nil {
		log.Warn("Unable to parse styles part, using defaults", zap.Error(err))
		return defaults, registry
	}
	root := doc.Root()

	if dd := root.SelectElement("w:docDefaults"); dd != nil {
		if rprDefault := dd.SelectElement("w:rPrDefault"); rprDefault != nil {
			if rpr := rprDefault.SelectElement("w:rPr"); rpr != nil {
				props := parseRunProps(rpr, theme)
				if props.FontSize != nil {
					defaults.FontSize = *props.FontSize
				}
				if props.FontName != nil {
					defaults.FontName = *props.FontName
				}
			}
		}
		if pprDefault := dd.SelectElement("w:pPrDefault"); pprDefault != nil {
			if ppr := pprDefault.SelectElement("w:pPr"); ppr != nil {
				props := parseParaProps(ppr)
				if props.SpaceAfter != nil {
					defaults.SpaceAfter = *props.SpaceAfter
				}
				if props.LineSpacing != nil {
					defaults.LineSpacing = *props.LineSpacing
				}
			}
		}
	}

	for _, node := range root.ChildElements() {
		if node.Tag != "style" {
			continue
		}
		if node.SelectAttrValue("w:type", "") != "paragraph" {
			continue
		}
		id := node.SelectAttrValue("w:styleId", "")
		if id == "" {
			log.Warn("Paragraph style without styleId, skipping")
			continue
		}
		registry[id] = &Style{
			ID:      id,
			BasedOn: attrVal(node, "w:basedOn"),
			Para:    parseParaProps(node.SelectElement("w:pPr")),
			Run:     parseRunProps(node.SelectElement("w:rPr"), theme),
		}
	}

	return defaults, registry
}
