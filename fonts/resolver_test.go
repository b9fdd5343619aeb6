package fonts

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"

	"dxp/docx"
)

func TestEncodeWinAnsi(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"Hello", []byte("Hello")},
		{"•", []byte{0x95}}, // bullet
		{"€", []byte{0x80}}, // euro
		{"—", []byte{0x97}}, // em dash
		{"café", []byte{'c', 'a', 'f', 0xE9}},
		{"a世b", []byte{'a', 'b'}}, // unmappable runes dropped
	}
	for _, tc := range tests {
		got := EncodeWinAnsi(tc.in)
		if string(got) != string(tc.want) {
			t.Errorf("EncodeWinAnsi(%q) = % x, want % x", tc.in, got, tc.want)
		}
	}
}

func TestBuiltinHandleMetrics(t *testing.T) {
	h := builtinHandle(docx.FontKey{Family: "missing"}, "Missing")

	if h.Source != SourceBuiltin {
		t.Errorf("source %v", h.Source)
	}
	if h.Program != nil {
		t.Error("builtin handle must not carry a font program")
	}
	if w := h.AdvanceWidth(' ', 1000); w != 278 {
		t.Errorf("space advance %g", w)
	}
	if w := h.AdvanceWidth('M', 1000); w != 833 {
		t.Errorf("M advance %g", w)
	}

	// "Hi" at 12pt: H=667, i=278, no kerning on the builtin.
	enc := EncodeWinAnsi("Hi")
	want := (667.0 + 278.0) / 1000.0 * 12.0
	if got := h.TextWidth(enc, 12); math.Abs(got-want) > 1e-9 {
		t.Errorf("TextWidth %g, want %g", got, want)
	}
}

func TestResolveFallsBackToBuiltin(t *testing.T) {
	dir := t.TempDir() // empty: nothing to find in the user tier
	t.Setenv(EnvFonts, dir)

	r := NewResolver(nil, Config{Directories: nil, Workers: 2}, zap.NewNop())
	defer r.Close()

	h := r.Resolve("No Such Font Family 48151623", true, false)
	if h == nil {
		t.Fatal("Resolve must never return nil")
	}
	if h.Source != SourceBuiltin && h.Source != SourceSystem {
		t.Errorf("unexpected source %v", h.Source)
	}

	// Memoized: same handle pointer on repeat resolution.
	if again := r.Resolve("No Such Font Family 48151623", true, false); again != h {
		t.Error("repeat resolution must return the memoized handle")
	}
}

func TestResolvePrefersEmbeddedFont(t *testing.T) {
	// The same face is available both embedded in the package and as a
	// file in the user tier: the embedded copy must win.
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvFonts, dir)

	embedded := map[docx.FontKey][]byte{
		{Family: "go"}: goregular.TTF,
	}
	r := NewResolver(embedded, Config{Workers: 1}, zap.NewNop())
	defer r.Close()

	h := r.Resolve("Go", false, false)
	if h.Source != SourceEmbedded {
		t.Fatalf("source %v, want %v", h.Source, SourceEmbedded)
	}
	if h.Program == nil {
		t.Error("embedded handle must carry the font program")
	}
	if w := h.AdvanceWidth('M', 12); w <= 0 {
		t.Errorf("M advance %g", w)
	}

	// Without the embedded copy the user tier supplies the face.
	r2 := NewResolver(nil, Config{Workers: 1}, zap.NewNop())
	defer r2.Close()
	if h2 := r2.Resolve("Go", false, false); h2.Source != SourceEnvDir {
		t.Errorf("source %v, want %v", h2.Source, SourceEnvDir)
	}
}

func TestResolvePrimaryFamily(t *testing.T) {
	t.Setenv(EnvFonts, t.TempDir())
	r := NewResolver(nil, Config{Workers: 1}, zap.NewNop())
	defer r.Close()

	h := r.Resolve("NoSuchPrimary ; NoSuchAlternate", false, false)
	if h.Name != "NoSuchPrimary" {
		t.Errorf("composite reference not reduced to its primary: %q", h.Name)
	}
}

func TestStyleFallback(t *testing.T) {
	plain := docx.FontKey{Family: "aptos"}
	if got := styleFallback(plain); len(got) != 1 || got[0] != plain {
		t.Errorf("regular face must not fall back: %v", got)
	}

	bold := docx.FontKey{Family: "aptos", Bold: true}
	got := styleFallback(bold)
	if len(got) != 2 || got[0] != bold || got[1] != plain {
		t.Errorf("bold face must fall back to regular: %v", got)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fonts.db")
	cache, err := OpenCache(path, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	faces := []docx.FontKey{
		{Family: "aptos"},
		{Family: "aptos", Bold: true},
	}
	cache.Store("/fonts/aptos.ttc", 1234, faces)

	got, ok := cache.Lookup("/fonts/aptos.ttc", 1234)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 2 || got[0] != faces[0] || got[1] != faces[1] {
		t.Errorf("cached faces %v", got)
	}

	if _, ok := cache.Lookup("/fonts/aptos.ttc", 9999); ok {
		t.Error("stale mtime must miss")
	}
	if _, ok := cache.Lookup("/fonts/other.ttf", 1234); ok {
		t.Error("unknown path must miss")
	}

	// Store replaces, not appends.
	cache.Store("/fonts/aptos.ttc", 5678, faces[:1])
	got, ok = cache.Lookup("/fonts/aptos.ttc", 5678)
	if !ok || len(got) != 1 {
		t.Errorf("replacement store: %v ok=%v", got, ok)
	}
}

func TestHandleKerning(t *testing.T) {
	h := builtinHandle(docx.FontKey{Family: "x"}, "x")
	h.Kern = map[[2]byte]float64{{'A', 'V'}: -80}

	if adj := h.KernAdjust('A', 'V', 10); math.Abs(adj - -0.8) > 1e-9 {
		t.Errorf("kern adjust %g", adj)
	}
	if adj := h.KernAdjust('V', 'A', 10); adj != 0 {
		t.Errorf("unknown pair must be zero, got %g", adj)
	}

	enc := EncodeWinAnsi("AV")
	plain := h.AdvanceWidth('A', 10) + h.AdvanceWidth('V', 10)
	if got := h.TextWidth(enc, 10); math.Abs(got-(plain-0.8)) > 1e-9 {
		t.Errorf("TextWidth with kerning %g, want %g", got, plain-0.8)
	}
}
