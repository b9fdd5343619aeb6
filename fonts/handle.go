// Package fonts maps logical font references to usable font programs and
// metrics. Resolution walks a strict fallback chain: fonts embedded in the
// package, directories named by the DXP_FONTS environment variable (plus
// configured extras), platform font directories, and finally a built-in
// metrics-only fallback. The chain never fails; the worst outcome is a
// visually mismatched handle.
package fonts

import "dxp/docx"

// Source records which tier of the fallback chain produced a handle.
type Source int

const (
	SourceEmbedded Source = iota
	SourceEnvDir
	SourceSystem
	SourceBuiltin
)

func (s Source) String() string {
	switch s {
	case SourceEmbedded:
		return "embedded"
	case SourceEnvDir:
		return "envdir"
	case SourceSystem:
		return "system"
	case SourceBuiltin:
		return "builtin"
	}
	return "unknown"
}

// widthCount covers WinAnsi codes 32..255.
const (
	firstChar  = 32
	lastChar   = 255
	widthCount = lastChar - firstChar + 1
)

// Handle is one resolved face. All measurements are against a 1000-unit em,
// the glyph space the emitter works in. Handles are immutable once built and
// safe to share across layout workers.
type Handle struct {
	Key    docx.FontKey
	Name   string
	Source Source

	// Widths holds advance widths for WinAnsi codes 32..255.
	Widths [widthCount]float64
	// Kern holds nonzero legacy kern-table adjustments per WinAnsi byte
	// pair. Nil when the face has no usable kern table.
	Kern map[[2]byte]float64

	// Vertical metrics as ratios of the em square.
	LineHeightRatio float64
	AscentRatio     float64

	// Descriptor fields, 1000-unit em.
	Ascent      float64
	Descent     float64
	CapHeight   float64
	BBox        [4]float64
	ItalicAngle float64

	// Program is the raw font file to embed. Nil for the builtin fallback.
	Program []byte
}

// AdvanceWidth is the advance of one WinAnsi code at the given size in
// points.
func (h *Handle) AdvanceWidth(code byte, size float64) float64 {
	if code < firstChar {
		return 0
	}
	return h.Widths[code-firstChar] / 1000.0 * size
}

// KernAdjust is the kerning between two WinAnsi codes at the given size.
// Negative values tighten the pair.
func (h *Handle) KernAdjust(left, right byte, size float64) float64 {
	if h.Kern == nil {
		return 0
	}
	return h.Kern[[2]byte{left, right}] / 1000.0 * size
}

// TextWidth measures a WinAnsi-encoded string at the given size, kerning
// included.
func (h *Handle) TextWidth(encoded []byte, size float64) float64 {
	var w float64
	for i, code := range encoded {
		w += h.AdvanceWidth(code, size)
		if i > 0 {
			w += h.KernAdjust(encoded[i-1], code, size)
		}
	}
	return w
}

// builtinHandle approximates Helvetica. It keeps layout going when no real
// face can be found; the emitter renders it with the standard Type1
// Helvetica, so widths only need to be close.
func builtinHandle(key docx.FontKey, name string) *Handle {
	h := &Handle{
		Key:             key,
		Name:            name,
		Source:          SourceBuiltin,
		LineHeightRatio: 1.2,
		AscentRatio:     0.8,
		Ascent:          718,
		Descent:         -207,
		CapHeight:       718,
		BBox:            [4]float64{-166, -225, 1000, 931},
	}
	for i := 0; i < widthCount; i++ {
		h.Widths[i] = helveticaWidth(byte(i + firstChar))
	}
	return h
}

// helveticaWidth is a coarse per-class approximation of Helvetica advance
// widths at 1000 units/em.
func helveticaWidth(code byte) float64 {
	switch {
	case code == ' ':
		return 278
	case code >= '!' && code <= '/':
		return 333
	case code >= '0' && code <= '9':
		return 556
	case code >= ':' && code <= '@':
		return 333
	case code == 'I' || code == 'J':
		return 278
	case code == 'M':
		return 833
	case code >= 'A' && code <= 'Z':
		return 667
	case code >= '[' && code <= '`':
		return 333
	case code == 'f' || code == 'i' || code == 'j' || code == 'l' || code == 't':
		return 278
	case code == 'm' || code == 'w':
		return 833
	case code >= 'a' && code <= 'z':
		return 556
	default:
		return 556
	}
}
