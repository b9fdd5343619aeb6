package fonts

import "golang.org/x/text/encoding/charmap"

// EncodeWinAnsi converts a string to Windows-1252 bytes, the single-byte
// encoding PDF text strings use here. Runes with no WinAnsi slot are
// dropped; the approximation contract favors rendering the rest of the text
// over failing.
func EncodeWinAnsi(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
		}
	}
	return out
}

// winAnsiRune maps a WinAnsi byte back to the rune it represents, used when
// building width tables from glyph metrics.
func winAnsiRune(code byte) rune {
	return charmap.Windows1252.DecodeByte(code)
}
