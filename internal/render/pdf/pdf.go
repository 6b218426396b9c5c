// Package pdf draws prepared layout items onto a single page PDF.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/render/assets"
	"github.com/geocoder89/eventprint/internal/render/layout"
	"github.com/geocoder89/eventprint/internal/render/paint"
	"github.com/geocoder89/eventprint/internal/render/symbol"
	"github.com/geocoder89/eventprint/internal/render/units"
)

const (
	fontFamily = "Helvetica"

	// Helvetica cap height as a fraction of the font size.
	capHeight = 0.718

	// BackgroundIndex marks skips of the page background.
	BackgroundIndex = -1
)

type Background struct {
	Color string
	Ref   string
}

// Page is one document to draw. Items are in PDF user space (points,
// origin bottom-left) and already sorted for drawing.
type Page struct {
	Size       units.Size
	Background Background
	Items      []layout.Item
}

type Renderer struct {
	log         *slog.Logger
	now         func() time.Time
	compress    bool
	maxImagePix int
}

type Option func(*Renderer)

func WithLogger(log *slog.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

// WithClock fixes the document creation date.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

func WithCompression(on bool) Option {
	return func(r *Renderer) { r.compress = on }
}

// WithMaxImageSide bounds the longest side of embedded images in pixels.
// Larger images are downscaled before embedding.
func WithMaxImageSide(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.maxImagePix = px
		}
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		log:         slog.Default(),
		now:         time.Now,
		compress:    true,
		maxImagePix: 2400,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws page and returns the serialized document along with every
// element that was left out. A failing element never aborts the page.
func (r *Renderer) Render(ctx context.Context, page Page, set assets.Set) ([]byte, []layout.Skip, error) {
	if !page.Size.Valid() {
		return nil, nil, fmt.Errorf("invalid page size %vx%v", page.Size.W, page.Size.H)
	}

	d := r.newDocument(page.Size)
	var skipped []layout.Skip

	skip := func(idx int, typ template.ElementType, reason string) {
		skipped = append(skipped, layout.Skip{Index: idx, Type: typ, Reason: reason})
		r.log.WarnContext(ctx, "element skipped",
			"element_index", idx,
			"element_type", typ,
			"reason", reason,
		)
	}

	if reason := d.background(page.Background, set); reason != "" {
		skip(BackgroundIndex, template.TypeImage, reason)
	}

	for _, it := range page.Items {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}
		if reason := d.drawSafely(it, set); reason != "" {
			skip(it.Index, it.Element.Type, reason)
		}
	}

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, skipped, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), skipped, nil
}

type document struct {
	pdf    *fpdf.Fpdf
	size   units.Size
	tr     func(string) string
	images map[string]embedded
	maxPix int
}

type embedded struct {
	name   string
	w, h   float64
	reason string
}

func (r *Renderer) newDocument(size units.Size) *document {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: size.W, Ht: size.H},
	})

	now := r.now()
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(r.compress)
	pdf.SetProducer("eventprint", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if tr == nil {
		pdf.ClearError()
		tr = func(s string) string { return s }
	}

	return &document{
		pdf:    pdf,
		size:   size,
		tr:     tr,
		images: map[string]embedded{},
		maxPix: r.maxImagePix,
	}
}

// top converts a bottom-left box into fpdf's top-left coordinates.
func (d *document) top(b units.Rect) float64 {
	return d.size.H - b.Y - b.H
}

func (d *document) background(bg Background, set assets.Set) string {
	if bg.Ref != "" {
		img, reason := d.image(bg.Ref, set)
		if reason == "" {
			d.pdf.ImageOptions(img.name, 0, 0, d.size.W, d.size.H, false, fpdf.ImageOptions{}, 0, "")
			return ""
		}
		d.fill(bg.Color)
		return "background image: " + reason
	}
	d.fill(bg.Color)
	return ""
}

func (d *document) fill(hex string) {
	c, ok := paint.Parse(hex, paint.White)
	if !ok {
		return
	}
	d.pdf.SetFillColor(paint.RGB(c))
	d.pdf.Rect(0, 0, d.size.W, d.size.H, "F")
}

// drawSafely isolates one element: a panic or an fpdf error state is turned
// into a skip reason and the document keeps going.
func (d *document) drawSafely(it layout.Item, set assets.Set) (reason string) {
	defer func() {
		if rec := recover(); rec != nil {
			d.pdf.ClearError()
			reason = fmt.Sprintf("draw panic: %v", rec)
		}
	}()

	alpha := it.Element.Alpha()
	if alpha < 1 {
		d.pdf.SetAlpha(alpha, "Normal")
		defer d.pdf.SetAlpha(1, "Normal")
	}

	if it.Rotation == units.Rotate180 {
		cx := it.Box.X + it.Box.W/2
		cy := d.top(it.Box) + it.Box.H/2
		d.pdf.TransformBegin()
		d.pdf.TransformRotate(180, cx, cy)
		defer d.pdf.TransformEnd()
	}

	reason = d.draw(it, set)

	if err := d.pdf.Error(); err != nil {
		d.pdf.ClearError()
		if reason == "" {
			reason = err.Error()
		}
	}
	return reason
}

func (d *document) draw(it layout.Item, set assets.Set) string {
	switch it.Element.Type {
	case template.TypeText:
		d.text(it)
	case template.TypeLine:
		d.line(it)
	case template.TypeShape:
		d.shape(it)
	case template.TypeImage:
		return d.placeImage(it, set)
	case template.TypeQRCode:
		return d.qr(it)
	case template.TypeBarcode:
		return d.barcode(it)
	default:
		return fmt.Sprintf("unsupported element type %q", it.Element.Type)
	}
	return ""
}

func (d *document) text(it layout.Item) {
	e := it.Element
	if e.Content == "" {
		return
	}

	style := ""
	if e.Bold() {
		style = "B"
	}
	d.pdf.SetFont(fontFamily, style, it.FontSize)
	c, _ := paint.Parse(e.Color, paint.Black)
	d.pdf.SetTextColor(paint.RGB(c))

	s := d.tr(e.Content)
	width := d.pdf.GetStringWidth(s)

	x := it.Box.X
	switch e.Align {
	case template.AlignCenter:
		x += (it.Box.W - width) / 2
	case template.AlignRight:
		x += it.Box.W - width
	}
	baseline := d.top(it.Box) + (it.Box.H+capHeight*it.FontSize)/2

	d.pdf.Text(x, baseline, s)
}

func (d *document) line(it layout.Item) {
	thickness := math.Max(it.Box.H, 1)
	y := d.top(it.Box) + (it.Box.H-thickness)/2

	c, _ := paint.Parse(it.Element.Color, paint.Black)
	d.pdf.SetFillColor(paint.RGB(c))
	d.pdf.Rect(it.Box.X, y, it.Box.W, thickness, "F")
}

func (d *document) shape(it layout.Item) {
	e := it.Element
	top := d.top(it.Box)

	if bg, ok := paint.Parse(e.BackgroundColor, paint.White); ok {
		d.pdf.SetFillColor(paint.RGB(bg))
		d.pdf.Rect(it.Box.X, top, it.Box.W, it.Box.H, "F")
	}
	if it.Border > 0 {
		c, _ := paint.Parse(e.BorderColor, paint.Black)
		d.pdf.SetDrawColor(paint.RGB(c))
		d.pdf.SetLineWidth(it.Border)
		d.pdf.Rect(it.Box.X, top, it.Box.W, it.Box.H, "D")
	}
}

func (d *document) placeImage(it layout.Item, set assets.Set) string {
	img, reason := d.image(it.Element.ImageURL, set)
	if reason != "" {
		return reason
	}
	if img.w <= 0 || img.h <= 0 {
		return "image has no size"
	}

	s := math.Min(it.Box.W/img.w, it.Box.H/img.h)
	w, h := img.w*s, img.h*s
	x := it.Box.X + (it.Box.W-w)/2
	y := d.top(it.Box) + (it.Box.H-h)/2

	d.pdf.ImageOptions(img.name, x, y, w, h, false, fpdf.ImageOptions{}, 0, "")
	return ""
}

func (d *document) qr(it layout.Item) string {
	m, err := symbol.QR(it.Element.Content)
	if err != nil {
		return err.Error()
	}

	side := math.Min(it.Box.W, it.Box.H)
	x := it.Box.X + (it.Box.W-side)/2
	y := d.top(it.Box) + (it.Box.H-side)/2
	module := side / float64(m.Cols)

	d.modules(it.Element.Color, m, x, y, module, module)
	return ""
}

func (d *document) barcode(it layout.Item) string {
	m, err := symbol.Code128(it.Element.Content)
	if err != nil {
		return err.Error()
	}

	module := it.Box.W / float64(m.Cols)
	d.modules(it.Element.Color, m, it.Box.X, d.top(it.Box), module, it.Box.H)
	return ""
}

func (d *document) modules(hex string, m symbol.Matrix, x, y, mw, mh float64) {
	c, _ := paint.Parse(hex, paint.Black)
	d.pdf.SetFillColor(paint.RGB(c))
	for _, run := range m.Runs() {
		d.pdf.Rect(x+float64(run.Start)*mw, y+float64(run.Row)*mh, float64(run.Len)*mw, mh, "F")
	}
}
