package pdf

import (
	"strings"

	"dxp/fonts"
)

// Font descriptor flag for fonts using the Adobe standard Latin set.
const flagNonSymbolic = 1 << 5

// embedFont writes one font resource and returns its reference. Faces with a
// program become embedded TrueType fonts; the builtin fallback maps onto the
// standard Type1 Helvetica. Either way text is shown in WinAnsiEncoding.
func embedFont(w *Writer, h *fonts.Handle) Ref {
	ref := w.Alloc()
	if h.Program == nil {
		w.WriteObject(ref, Dict{
			"Type":     Name("Font"),
			"Subtype":  Name("Type1"),
			"BaseFont": Name("Helvetica"),
			"Encoding": Name("WinAnsiEncoding"),
		})
		return ref
	}

	dataRef := w.Alloc()
	descRef := w.Alloc()

	w.WriteStream(dataRef, Dict{"Length1": Number(len(h.Program))}, h.Program)

	base := baseFontName(h.Name)
	w.WriteObject(descRef, Dict{
		"Type":        Name("FontDescriptor"),
		"FontName":    base,
		"Flags":       Number(flagNonSymbolic),
		"FontBBox":    Array{Number(h.BBox[0]), Number(h.BBox[1]), Number(h.BBox[2]), Number(h.BBox[3])},
		"ItalicAngle": Number(h.ItalicAngle),
		"Ascent":      Number(h.Ascent),
		"Descent":     Number(h.Descent),
		"CapHeight":   Number(h.CapHeight),
		"StemV":       Number(80),
		"FontFile2":   dataRef,
	})

	widths := make(Array, len(h.Widths))
	for i, adv := range h.Widths {
		widths[i] = Number(adv)
	}
	w.WriteObject(ref, Dict{
		"Type":           Name("Font"),
		"Subtype":        Name("TrueType"),
		"BaseFont":       base,
		"Encoding":       Name("WinAnsiEncoding"),
		"FirstChar":      Number(32),
		"LastChar":       Number(255),
		"Widths":         widths,
		"FontDescriptor": descRef,
	})
	return ref
}

// baseFontName turns a family name into a PostScript-style name.
func baseFontName(family string) Name {
	return Name(strings.ReplaceAll(family, " ", ""))
}
