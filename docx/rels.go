package docx

import (
	"strings"

	"go.uber.org/zap"

	"dxp/archive"
)

// parseRels reads an OPC relationships part into an Id→Target map. Missing
// or unreadable rels parts are not an error, they just resolve nothing.
func parseRels(c *archive.Container, part string, log *zap.Logger) map[string]string {
	rels := make(map[string]string)
	if !c.Has(part) {
		return rels
	}
	data, err := c.Part(part)
	if err != nil {
		log.Warn("Unable to read relationships part", zap.String("part", part), zap.Error(err))
		return rels
	}
	doc, err := parseXML(data)
	if err != nil {
		log.Warn("Unable to parse relationships part", zap.String("part", part), zap.Error(err))
		return rels
	}
	for _, node := range doc.Root().ChildElements() {
		if node.Tag != "Relationship" {
			continue
		}
		id := node.SelectAttrValue("Id", "")
		target := node.SelectAttrValue("Target", "")
		if id != "" && target != "" {
			rels[id] = target
		}
	}
	return rels
}

// relTargetPath maps a relationship target to an archive part name. Targets
// are relative to word/ unless they start with a slash.
func relTargetPath(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return "word/" + target
}
