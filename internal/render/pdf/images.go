package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"

	"github.com/geocoder89/eventprint/internal/render/assets"
)

// image registers ref with the document once and returns its handle, or the
// reason it cannot be drawn.
func (d *document) image(ref string, set assets.Set) (embedded, string) {
	if img, ok := d.images[ref]; ok {
		return img, img.reason
	}

	img := d.register(ref, set)
	d.images[ref] = img
	return img, img.reason
}

func (d *document) register(ref string, set assets.Set) embedded {
	a, ok := set.Get(ref)
	if !ok {
		if err := set.Failure(ref); err != nil {
			return embedded{reason: "asset unavailable: " + err.Error()}
		}
		return embedded{reason: "asset unavailable"}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(a.Data))
	if err != nil {
		return embedded{reason: "decode image: " + err.Error()}
	}

	data, typ := a.Data, "PNG"
	if a.Format == assets.FormatJPEG {
		typ = "JPG"
	}
	if max(cfg.Width, cfg.Height) > d.maxPix {
		if data, err = normalize(a.Data, d.maxPix); err != nil {
			return embedded{reason: err.Error()}
		}
		typ = "PNG"
	}

	name := fmt.Sprintf("img%d", len(d.images))
	d.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if d.pdf.Err() {
		// fpdf rejects some valid files (16 bit or interlaced PNG); flatten and retry once
		d.pdf.ClearError()
		if data, err = normalize(a.Data, 0); err != nil {
			return embedded{reason: err.Error()}
		}
		name += "n"
		d.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
		if d.pdf.Err() {
			err := d.pdf.Error()
			d.pdf.ClearError()
			return embedded{reason: "embed image: " + err.Error()}
		}
	}

	return embedded{name: name, w: float64(cfg.Width), h: float64(cfg.Height)}
}

// normalize decodes data and re-encodes it as an 8 bit non-interlaced PNG,
// shrinking it so the longest side is at most maxSide when maxSide > 0.
func normalize(data []byte, maxSide int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if longest := max(w, h); maxSide > 0 && longest > maxSide {
		w = max(1, w*maxSide/longest)
		h = max(1, h*maxSide/longest)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
