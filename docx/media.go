package docx

import (
	"bytes"
	"image"

	"github.com/beevik/etree"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"go.uber.org/zap"

	"dxp/archive"
)

// mediaReader pulls inline images out of paragraph drawing elements. PDF
// output carries raster images as DCT streams, so anything that is not
// already a JPEG is re-encoded.
type mediaReader struct {
	c       *archive.Container
	rels    map[string]string
	quality int
	log     *zap.Logger
}

// paragraphImages collects the inline/anchored drawings of one paragraph.
// Drawings may sit directly under the paragraph or inside a run.
func (m *mediaReader) paragraphImages(para *etree.Element) []*Image {
	var images []*Image
	for _, child := range para.ChildElements() {
		var drawing *etree.Element
		switch child.Tag {
		case "drawing":
			drawing = child
		case "r":
			drawing = child.SelectElement("w:drawing")
		}
		if drawing == nil {
			continue
		}
		for _, container := range drawing.ChildElements() {
			if container.Tag != "inline" && container.Tag != "anchor" {
				continue
			}
			if img := m.readDrawing(container); img != nil {
				images = append(images, img)
			}
		}
	}
	return images
}

func (m *mediaReader) readDrawing(container *etree.Element) *Image {
	var displayW, displayH float64
	if extent := container.SelectElement("extent"); extent != nil {
		if cx, ok := floatAttr(extent, "cx"); ok {
			displayW = cx / emuPerPoint
		}
		if cy, ok := floatAttr(extent, "cy"); ok {
			displayH = cy / emuPerPoint
		}
	}

	blip := container.FindElement(".//blip")
	if blip == nil {
		return nil
	}
	relID := blip.SelectAttrValue("r:embed", "")
	if relID == "" {
		return nil
	}
	target, found := m.rels[relID]
	if !found {
		m.log.Warn("Image relationship not found, skipping", zap.String("rel", relID))
		return nil
	}
	data, err := m.c.Part(relTargetPath(target))
	if err != nil {
		m.log.Warn("Unable to read image part, skipping", zap.String("target", target), zap.Error(err))
		return nil
	}

	switch {
	case filetype.IsType(data, matchers.TypeJpeg):
		// used as-is
	case filetype.IsType(data, matchers.TypePng):
		decoded, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			m.log.Warn("Unable to decode PNG image, skipping", zap.String("target", target), zap.Error(err))
			return nil
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, decoded, imaging.JPEG, imaging.JPEGQuality(m.quality)); err != nil {
			m.log.Warn("Unable to re-encode PNG image, skipping", zap.String("target", target), zap.Error(err))
			return nil
		}
		data = buf.Bytes()
	default:
		m.log.Warn("Unsupported image encoding, skipping", zap.String("target", target))
		return nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		m.log.Warn("Unable to read image dimensions, skipping", zap.String("target", target), zap.Error(err))
		return nil
	}

	return &Image{
		Data:          data,
		PixelWidth:    cfg.Width,
		PixelHeight:   cfg.Height,
		DisplayWidth:  displayW,
		DisplayHeight: displayH,
	}
}
