package convert

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	zippkg "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"dxp/config"
	"dxp/docx"
	"dxp/fonts"
)

func writeDocx(t *testing.T, parts map[string]string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "input.docx")
	f, err := os.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	zw := zippkg.NewWriter(f)
	for part, content := range parts {
		w, err := zw.Create(part)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return name
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Document.Workers = 1
	return cfg
}

const helloDocument = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:r><w:t>Hello world</w:t></w:r>
    </w:p>
  </w:body>
</w:document>`

// inflateStreams decompresses every zlib stream in a finished PDF.
func inflateStreams(t *testing.T, out []byte) string {
	t.Helper()
	var all strings.Builder
	rest := out
	for {
		i := bytes.Index(rest, []byte("stream\n"))
		if i < 0 {
			break
		}
		body := rest[i+len("stream\n"):]
		end := bytes.Index(body, []byte("endstream"))
		if end < 0 {
			t.Fatal("unterminated stream")
		}
		data := bytes.TrimSuffix(body[:end], []byte("\n"))
		if zr, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
			plain, err := io.ReadAll(zr)
			if err == nil {
				all.Write(plain)
			}
		}
		rest = body[end+len("endstream"):]
	}
	return all.String()
}

func TestConvertHelloWorld(t *testing.T) {
	t.Setenv(fonts.EnvFonts, t.TempDir())
	src := writeDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   helloDocument,
	})
	dst := filepath.Join(t.TempDir(), "out.pdf")

	if err := Convert(context.Background(), src, dst, testConfig(t), zap.NewNop()); err != nil {
		t.Fatalf("convert: %v", err)
	}

	out, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}
	if !bytes.Contains(out, []byte("/Count 1")) {
		t.Error("expected a single page")
	}
	plain := inflateStreams(t, out)
	if !strings.Contains(plain, "(Hello") || !strings.Contains(plain, "world)") {
		t.Errorf("text lost on the way through: %q", plain)
	}
}

func TestConvertMissingDocumentPart(t *testing.T) {
	src := writeDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
	})
	dst := filepath.Join(t.TempDir(), "out.pdf")

	err := Convert(context.Background(), src, dst, testConfig(t), zap.NewNop())
	if !errors.Is(err, docx.ErrMalformedInput) {
		t.Fatalf("want malformed input, got %v", err)
	}
	if _, err := os.Stat(dst); err == nil {
		t.Error("failed conversion must not leave output behind")
	}
}

func TestConvertRejectsNonZip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "plain.docx")
	if err := os.WriteFile(src, []byte("not a package at all"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := Convert(context.Background(), src, filepath.Join(t.TempDir(), "out.pdf"), testConfig(t), zap.NewNop())
	if err == nil {
		t.Fatal("expected an error for non-zip input")
	}
}

func TestBuildOutputPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.docx")

	if got := buildOutputPath(src, "", false); got != filepath.Join(dir, "report.pdf") {
		t.Errorf("derived name: %s", got)
	}

	// A destination directory receives the derived file name.
	if got := buildOutputPath(src, dir, false); got != filepath.Join(dir, "report.pdf") {
		t.Errorf("directory destination: %s", got)
	}

	// Existing outputs are stepped around unless overwrite is set.
	existing := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(existing, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := buildOutputPath(src, "", false); got != filepath.Join(dir, "report(2).pdf") {
		t.Errorf("dedup: %s", got)
	}
	if err := os.WriteFile(filepath.Join(dir, "report(2).pdf"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := buildOutputPath(src, "", false); got != filepath.Join(dir, "report(3).pdf") {
		t.Errorf("dedup second step: %s", got)
	}
	if got := buildOutputPath(src, "", true); got != existing {
		t.Errorf("overwrite: %s", got)
	}
}

func TestConvertMultiPageParagraph(t *testing.T) {
	t.Setenv(fonts.EnvFonts, t.TempDir())
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:r><w:t>`)
	for i := 0; i < 3000; i++ {
		sb.WriteString("lorem ipsum dolor ")
	}
	sb.WriteString(`</w:t></w:r></w:p></w:body>
</w:document>`)

	src := writeDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   sb.String(),
	})
	dst := filepath.Join(t.TempDir(), "out.pdf")
	if err := Convert(context.Background(), src, dst, testConfig(t), zap.NewNop()); err != nil {
		t.Fatalf("convert: %v", err)
	}

	out, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	m := regexp.MustCompile(`/Count (\d+)`).FindSubmatch(out)
	if m == nil {
		t.Fatal("page tree missing")
	}
	if count, _ := strconv.Atoi(string(m[1])); count < 2 {
		t.Errorf("expected more than one page, got %d", count)
	}
}
