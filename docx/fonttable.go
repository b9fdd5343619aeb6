package docx

import (
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"go.uber.org/zap"

	"dxp/archive"
)

var embedVariants = []struct {
	tag    string
	bold   bool
	italic bool
}{
	{"w:embedRegular", false, false},
	{"w:embedBold", true, false},
	{"w:embedItalic", false, true},
	{"w:embedBoldItalic", true, true},
}

// parseFontTable extracts embedded font programs declared in
// word/fontTable.xml. Obfuscated fonts (.odttf) are restored in place using
// the fontKey GUID before being returned.
func parseFontTable(c *archive.Container, log *zap.Logger) map[FontKey][]byte {
	fonts := make(map[FontKey][]byte)

	const part = "word/fontTable.xml"
	if !c.Has(part) {
		return fonts
	}
	data, err := c.Part(part)
	if err != nil {
		log.Warn("Unable to read font table, embedded fonts skipped", zap.Error(err))
		return fonts
	}
	doc, err := parseXML(data)
	if err != nil {
		log.Warn("Unable to parse font table, embedded fonts skipped", zap.Error(err))
		return fonts
	}

	rels := parseRels(c, "word/_rels/fontTable.xml.rels", log)

	for _, fontNode := range doc.Root().ChildElements() {
		if fontNode.Tag != "font" {
			continue
		}
		name := fontNode.SelectAttrValue("w:name", "")
		if name == "" {
			continue
		}
		for _, variant := range embedVariants {
			embed := fontNode.SelectElement(variant.tag)
			if embed == nil {
				continue
			}
			relID := embed.SelectAttrValue("r:id", "")
			if relID == "" {
				continue
			}
			target, found := rels[relID]
			if !found {
				log.Warn("Embedded font relationship not found", zap.String("font", name), zap.String("rel", relID))
				continue
			}
			program, err := c.Part(relTargetPath(target))
			if err != nil {
				log.Warn("Unable to read embedded font part", zap.String("font", name), zap.Error(err))
				continue
			}
			if guid := embed.SelectAttrValue("w:fontKey", ""); guid != "" {
				key, ok := guidKey(guid)
				if !ok {
					log.Warn("Embedded font has unparsable fontKey, skipping", zap.String("font", name), zap.String("fontKey", guid))
					continue
				}
				deobfuscate(program, key)
			}
			if !filetype.IsType(program, matchers.TypeTtf) && !filetype.IsType(program, matchers.TypeOtf) {
				log.Warn("Embedded font is not a usable TrueType/OpenType program, skipping", zap.String("font", name))
				continue
			}
			key := FontKey{Family: strings.ToLower(name), Bold: variant.bold, Italic: variant.italic}
			fonts[key] = program
			log.Info("Extracted embedded font",
				zap.String("font", name),
				zap.Bool("bold", variant.bold),
				zap.Bool("italic", variant.italic),
				zap.Int("size", len(program)))
		}
	}
	return fonts
}

// guidKey turns a GUID string like "{302EE813-EB4A-4642-A93A-89EF99B2457E}"
// into the 16-byte XOR key: the mixed-endian GUID byte layout, reversed.
func guidKey(guid string) ([16]byte, bool) {
	var key [16]byte
	hex := make([]byte, 0, 32)
	for _, r := range guid {
		switch {
		case r >= '0' && r <= '9':
			hex = append(hex, byte(r-'0'))
		case r >= 'a' && r <= 'f':
			hex = append(hex, byte(r-'a'+10))
		case r >= 'A' && r <= 'F':
			hex = append(hex, byte(r-'A'+10))
		}
	}
	if len(hex) != 32 {
		return key, false
	}
	var raw [16]byte
	for i := 0; i < 16; i++ {
		raw[i] = hex[i*2]<<4 | hex[i*2+1]
	}
	// Data1..Data3 are little-endian in the binary layout.
	layout := [16]byte{
		raw[3], raw[2], raw[1], raw[0],
		raw[5], raw[4],
		raw[7], raw[6],
		raw[8], raw[9], raw[10], raw[11], raw[12], raw[13], raw[14], raw[15],
	}
	for i := 0; i < 16; i++ {
		key[i] = layout[15-i]
	}
	return key, true
}

// deobfuscate XORs the first 32 bytes of an obfuscated font program with the
// GUID key applied twice.
func deobfuscate(data []byte, key [16]byte) {
	for i := 0; i < len(data) && i < 32; i++ {
		data[i] ^= key[i%16]
	}
}
