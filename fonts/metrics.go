package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"dxp/docx"
)

// parseFaces returns all faces in a font file: one for ttf/otf, several for
// a ttc collection.
func parseFaces(data []byte) ([]*sfnt.Font, error) {
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font data: %w", err)
	}
	faces := make([]*sfnt.Font, 0, coll.NumFonts())
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		faces = append(faces, f)
	}
	return faces, nil
}

// faceIdentity reads the family name and style bits of one face. The family
// name (ID 1) is used rather than the typographic family (ID 16) because it
// is what documents reference and it distinguishes width/display variants.
func faceIdentity(f *sfnt.Font, buf *sfnt.Buffer) (docx.FontKey, string, error) {
	family, err := f.Name(buf, sfnt.NameIDFamily)
	if err != nil {
		return docx.FontKey{}, "", fmt.Errorf("reading family name: %w", err)
	}
	sub, err := f.Name(buf, sfnt.NameIDSubfamily)
	if err != nil {
		sub = ""
	}
	sub = strings.ToLower(sub)

	italic := strings.Contains(sub, "italic") || strings.Contains(sub, "oblique")
	if !italic {
		if post := f.PostTable(); post != nil && post.ItalicAngle != 0 {
			italic = true
		}
	}
	key := docx.FontKey{
		Family: strings.ToLower(family),
		Bold:   strings.Contains(sub, "bold"),
		Italic: italic,
	}
	return key, family, nil
}

// buildHandle extracts the metric tables of one face. Setting ppem to the
// em size makes every fixed-point result come back in font units, which are
// then rescaled to the 1000-unit glyph space.
func buildHandle(key docx.FontKey, name string, src Source, data []byte, face *sfnt.Font) (*Handle, error) {
	var buf sfnt.Buffer

	units := float64(face.UnitsPerEm())
	if units == 0 {
		return nil, fmt.Errorf("face %q has zero units per em", name)
	}
	ppem := fixed.I(int(face.UnitsPerEm()))
	toGlyphSpace := func(v fixed.Int26_6) float64 {
		return float64(v) / 64.0 / units * 1000.0
	}

	met, err := face.Metrics(&buf, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("metrics for %q: %w", name, err)
	}

	h := &Handle{
		Key:             key,
		Name:            name,
		Source:          src,
		LineHeightRatio: float64(met.Height) / 64.0 / units,
		AscentRatio:     float64(met.Ascent) / 64.0 / units,
		Ascent:          toGlyphSpace(met.Ascent),
		Descent:         -toGlyphSpace(met.Descent),
		CapHeight:       toGlyphSpace(met.CapHeight),
		Program:         data,
	}
	if h.CapHeight == 0 {
		h.CapHeight = 700
	}
	if post := face.PostTable(); post != nil {
		h.ItalicAngle = post.ItalicAngle
	}

	if bounds, err := face.Bounds(&buf, ppem, font.HintingNone); err == nil {
		h.BBox = [4]float64{
			toGlyphSpace(bounds.Min.X),
			-toGlyphSpace(bounds.Max.Y),
			toGlyphSpace(bounds.Max.X),
			-toGlyphSpace(bounds.Min.Y),
		}
	}

	var glyphs [widthCount]sfnt.GlyphIndex
	for i := 0; i < widthCount; i++ {
		code := byte(i + firstChar)
		gi, err := face.GlyphIndex(&buf, winAnsiRune(code))
		if err != nil {
			continue
		}
		glyphs[i] = gi
		adv, err := face.GlyphAdvance(&buf, gi, ppem, font.HintingNone)
		if err != nil {
			continue
		}
		h.Widths[i] = toGlyphSpace(adv)
	}

	h.Kern = kernPairs(face, &buf, ppem, glyphs, units)
	return h, nil
}

// kernPairs collects nonzero legacy kern-table adjustments for all WinAnsi
// byte pairs. Fonts without a usable kern table yield nil.
func kernPairs(face *sfnt.Font, buf *sfnt.Buffer, ppem fixed.Int26_6, glyphs [widthCount]sfnt.GlyphIndex, units float64) map[[2]byte]float64 {
	var pairs map[[2]byte]float64
	for i := 0; i < widthCount; i++ {
		if glyphs[i] == 0 {
			continue
		}
		for j := 0; j < widthCount; j++ {
			if glyphs[j] == 0 {
				continue
			}
			adj, err := face.Kern(buf, glyphs[i], glyphs[j], ppem, font.HintingNone)
			if err != nil || adj == 0 {
				continue
			}
			if pairs == nil {
				pairs = make(map[[2]byte]float64)
			}
			key := [2]byte{byte(i + firstChar), byte(j + firstChar)}
			pairs[key] = float64(adj) / 64.0 / units * 1000.0
		}
	}
	return pairs
}
