package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"go.uber.org/zap"

	"dxp/docx"
	"dxp/fonts"
	"dxp/layout"
)

// Emit writes the finished document to out. Fonts and images are embedded
// once and shared by every page that uses them; content streams are
// flate-compressed.
func Emit(out io.Writer, geom docx.Geometry, pages []*layout.Page, log *zap.Logger) error {
	w := NewWriter(out)

	catalogRef := w.Alloc()
	pagesRef := w.Alloc()

	fontRefs, fontNames := embedFonts(w, pages)
	imageRefs, imageNames := embedImages(w, pages)

	kids := make(Array, 0, len(pages))
	for _, page := range pages {
		c := newContent(geom.PageHeight, fontNames, imageNames)
		for _, rule := range page.Rules {
			c.rule(rule)
		}
		for _, img := range page.Images {
			c.image(img)
		}
		for _, line := range page.Lines {
			c.line(line)
		}

		contentRef := w.Alloc()
		data, err := deflate(c.bytes())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOutputWrite, err)
		}
		w.WriteStream(contentRef, Dict{"Filter": Name("FlateDecode")}, data)

		pageRef := w.Alloc()
		w.WriteObject(pageRef, Dict{
			"Type":      Name("Page"),
			"Parent":    pagesRef,
			"MediaBox":  Array{Number(0), Number(0), Number(geom.PageWidth), Number(geom.PageHeight)},
			"Resources": resources(fontNames, fontRefs, imageNames, imageRefs),
			"Contents":  contentRef,
		})
		kids = append(kids, pageRef)
	}

	w.WriteObject(pagesRef, Dict{
		"Type":  Name("Pages"),
		"Kids":  kids,
		"Count": Number(len(kids)),
	})
	w.WriteObject(catalogRef, Dict{
		"Type":  Name("Catalog"),
		"Pages": pagesRef,
	})

	log.Debug("PDF emitted",
		zap.Int("pages", len(pages)),
		zap.Int("fonts", len(fontRefs)),
		zap.Int("images", len(imageRefs)))
	return w.Finish(catalogRef)
}

// embedFonts collects every handle the pages reference, in first-use order,
// and embeds each once under a sequential resource name.
func embedFonts(w *Writer, pages []*layout.Page) (map[*fonts.Handle]Ref, map[*fonts.Handle]Name) {
	refs := make(map[*fonts.Handle]Ref)
	names := make(map[*fonts.Handle]Name)
	for _, page := range pages {
		for _, line := range page.Lines {
			for _, ch := range line.Chunks {
				if ch.Font == nil {
					continue
				}
				if _, ok := refs[ch.Font]; ok {
					continue
				}
				names[ch.Font] = Name(fmt.Sprintf("F%d", len(refs)+1))
				refs[ch.Font] = embedFont(w, ch.Font)
			}
		}
	}
	return refs, names
}

// embedImages writes every distinct image once as a DCTDecode XObject. Image
// data is already JPEG by the time it reaches the emitter.
func embedImages(w *Writer, pages []*layout.Page) (map[*docx.Image]Ref, map[*docx.Image]Name) {
	refs := make(map[*docx.Image]Ref)
	names := make(map[*docx.Image]Name)
	for _, page := range pages {
		for _, placed := range page.Images {
			img := placed.Image
			if _, ok := refs[img]; ok {
				continue
			}
			ref := w.Alloc()
			w.WriteStream(ref, Dict{
				"Type":             Name("XObject"),
				"Subtype":          Name("Image"),
				"Width":            Number(img.PixelWidth),
				"Height":           Number(img.PixelHeight),
				"ColorSpace":       Name("DeviceRGB"),
				"BitsPerComponent": Number(8),
				"Filter":           Name("DCTDecode"),
			}, img.Data)
			names[img] = Name(fmt.Sprintf("Im%d", len(refs)+1))
			refs[img] = ref
		}
	}
	return refs, names
}

func resources(fontNames map[*fonts.Handle]Name, fontRefs map[*fonts.Handle]Ref,
	imageNames map[*docx.Image]Name, imageRefs map[*docx.Image]Ref) Dict {
	fontDict := Dict{}
	for h, name := range fontNames {
		fontDict[name] = fontRefs[h]
	}
	res := Dict{"Font": fontDict}
	if len(imageRefs) > 0 {
		xobj := Dict{}
		for img, name := range imageNames {
			xobj[name] = imageRefs[img]
		}
		res["XObject"] = xobj
	}
	return res
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
