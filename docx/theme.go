package docx

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"

	"dxp/archive"
)

// Theme slot defaults used when the package carries no theme part. These are
// the faces current Word builds reference for majorHAnsi/minorHAnsi.
const (
	defaultMajorFont = "Aptos Display"
	defaultMinorFont = "Aptos"
)

// parseTheme extracts the latin typefaces of the major and minor font
// schemes. The theme part name varies, so it is located by prefix match.
func parseTheme(c *archive.Container, log *zap.Logger) ThemeFonts {
	theme := ThemeFonts{Major: defaultMajorFont, Minor: defaultMinorFont}

	names := c.Match("word/theme/", ".xml")
	if len(names) == 0 {
		return theme
	}
	data, err := c.Part(names[0])
	if err != nil {
		log.Warn("Unable to read theme part, using defaults", zap.String("part", names[0]), zap.Error(err))
		return theme
	}
	doc, err := parseXML(data)
	if err != nil {
		log.Warn("Unable to parse theme part, using defaults", zap.String("part", names[0]), zap.Error(err))
		return theme
	}

	for _, slot := range doc.Root().FindElements("//majorFont") {
		if tf := latinTypeface(slot); tf != "" {
			theme.Major = tf
		}
	}
	for _, slot := range doc.Root().FindElements("//minorFont") {
		if tf := latinTypeface(slot); tf != "" {
			theme.Minor = tf
		}
	}
	return theme
}

func latinTypeface(slot *etree.Element) string {
	latin := slot.SelectElement("latin")
	if latin == nil {
		return ""
	}
	return latin.SelectAttrValue("typeface", "")
}
