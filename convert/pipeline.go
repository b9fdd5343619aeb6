// Package convert drives a single DOCX to PDF conversion: open the package,
// build the document model, resolve styles and fonts, lay out pages and emit
// the result.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"dxp/archive"
	"dxp/config"
	"dxp/docx"
	"dxp/fonts"
	"dxp/layout"
	"dxp/pdf"
	"dxp/styles"
)

// The error kinds a conversion can surface, re-exported from the stages
// that detect them so callers match with errors.Is at this boundary.
var (
	ErrInvalidArchive = archive.ErrInvalidArchive
	ErrMalformedInput = docx.ErrMalformedInput
	ErrOutputWrite    = pdf.ErrOutputWrite
)

// Convert turns src into a PDF at dst. Stages run with hard barriers: every
// font handle and style resolution exists before layout starts, layout is
// complete before a single output byte is written.
func Convert(ctx context.Context, src, dst string, cfg *config.Config, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := archive.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open %q: %w", src, err)
	}
	defer c.Close()

	doc, err := docx.Parse(c, docx.Options{JPEGQuality: cfg.Document.Images.JPEGQuality}, log.Named("docx"))
	if err != nil {
		return fmt.Errorf("unable to read %q: %w", src, err)
	}

	res := styles.New(doc)

	fr := fonts.NewResolver(doc.EmbeddedFonts, fonts.Config{
		Directories: cfg.Document.Fonts.Directories,
		CachePath:   cfg.Document.Fonts.IndexCachePath,
		Workers:     cfg.Document.Workers,
	}, log.Named("fonts"))
	defer fr.Close()
	fr.Preload(fontRefs(doc, res))

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	pages := layout.New(doc, res, fr, cfg.Document.Workers, log.Named("layout")).Layout()
	log.Debug("Layout done", zap.Int("pages", len(pages)), zap.Duration("elapsed", time.Since(start)))

	return writePDF(dst, doc.Geometry, pages, log)
}

// fontRefs walks every run the document will render and collects the font
// references layout is going to ask for.
func fontRefs(doc *docx.Document, res *styles.Resolver) []fonts.Ref {
	var refs []fonts.Ref
	addPara := func(p *docx.Paragraph) {
		eff := res.Resolve(p)
		if p.ListLabel != "" {
			refs = append(refs, fonts.Ref{Family: eff.Run.FontName, Bold: eff.Run.Bold, Italic: eff.Run.Italic})
		}
		for _, run := range p.Runs {
			rp := res.ResolveRun(eff, run)
			refs = append(refs, fonts.Ref{Family: rp.FontName, Bold: rp.Bold, Italic: rp.Italic})
		}
	}
	for _, block := range doc.Blocks {
		switch b := block.(type) {
		case *docx.Paragraph:
			addPara(b)
		case *docx.Table:
			for _, row := range b.Rows {
				for _, cell := range row.Cells {
					for _, p := range cell.Paragraphs {
						addPara(p)
					}
				}
			}
		}
	}
	return refs
}

// writePDF emits into a temporary file next to dst and renames it into
// place, so a failed conversion never leaves a partial document behind.
func writePDF(dst string, geom docx.Geometry, pages []*layout.Page, log *zap.Logger) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := pdf.Emit(tmp, geom, pages, log.Named("pdf")); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", pdf.ErrOutputWrite, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("unable to finalize output %q: %w", dst, err)
	}
	return nil
}
