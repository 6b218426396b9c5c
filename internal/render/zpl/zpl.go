// Package zpl encodes prepared layout items as a ZPL II label definition.
package zpl

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/render/layout"
	"github.com/geocoder89/eventprint/internal/render/paint"
	"github.com/geocoder89/eventprint/internal/render/symbol"
	"github.com/geocoder89/eventprint/internal/render/units"
)

const (
	MinFontDots = 20
	MaxFontDots = 100

	// qrModuleDivisor turns a QR box side in dots into a magnification.
	qrModuleDivisor = 25
	minQRModule     = 1
	maxQRModule     = 10

	maxBarModule = 10
)

// Label is one label to encode. Items are in printer dots, origin top-left,
// already sorted for drawing.
type Label struct {
	Size     units.Size
	Rotation units.Rotation
	Items    []layout.Item
}

type Renderer struct {
	log *slog.Logger
}

func NewRenderer(log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{log: log}
}

// Render emits the command stream for label. Elements that cannot be encoded
// are reported and left out; the stream is always well formed.
func (r *Renderer) Render(ctx context.Context, label Label) ([]byte, []layout.Skip, error) {
	if !label.Size.Valid() {
		return nil, nil, fmt.Errorf("invalid label size %vx%v", label.Size.W, label.Size.H)
	}

	w := &writer{}
	w.cmd("^XA")
	w.cmd("^CI28")
	w.cmd(fmt.Sprintf("^PW%d", units.Dots(label.Size.W)))
	w.cmd(fmt.Sprintf("^LL%d", units.Dots(label.Size.H)))
	w.cmd("^LH0,0")
	if label.Rotation == units.Rotate180 {
		w.cmd("^POI")
	} else {
		w.cmd("^PON")
	}

	var skipped []layout.Skip
	for _, it := range label.Items {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}

		reason := encode(w, it)
		if reason == "" {
			continue
		}
		skipped = append(skipped, layout.Skip{Index: it.Index, Type: it.Element.Type, Reason: reason})

		if it.Element.Type == template.TypeImage {
			r.log.InfoContext(ctx, "image element not printed on label", "element_index", it.Index)
			continue
		}
		r.log.WarnContext(ctx, "element skipped",
			"element_index", it.Index,
			"element_type", it.Element.Type,
			"reason", reason,
		)
	}

	w.cmd("^PQ1")
	w.cmd("^XZ")
	return w.buf.Bytes(), skipped, nil
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) cmd(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func encode(w *writer, it layout.Item) string {
	switch it.Element.Type {
	case template.TypeText:
		text(w, it)
	case template.TypeLine:
		line(w, it)
	case template.TypeShape:
		shape(w, it)
	case template.TypeQRCode:
		return qr(w, it)
	case template.TypeBarcode:
		return barcode(w, it)
	case template.TypeImage:
		return "images are not supported on label printers"
	default:
		return fmt.Sprintf("unsupported element type %q", it.Element.Type)
	}
	return ""
}

func origin(x, y float64) string {
	return fmt.Sprintf("^FO%d,%d", max(0, units.Dots(x)), max(0, units.Dots(y)))
}

func orientation(it layout.Item) string {
	if it.Rotation == units.Rotate180 {
		return "I"
	}
	return "N"
}

// FontDots converts a native font size into a ZPL character height.
func FontDots(size float64) int {
	return clamp(units.Dots(size), MinFontDots, MaxFontDots)
}

func text(w *writer, it layout.Item) {
	e := it.Element
	if e.Content == "" {
		return
	}

	h := FontDots(it.FontSize)
	fw := h
	if e.Bold() {
		fw = clamp(units.Dots(float64(h)*1.15), MinFontDots, MaxFontDots)
	}

	y := it.Box.Y
	if it.Box.H > float64(h) {
		y += (it.Box.H - float64(h)) / 2
	}

	var b strings.Builder
	b.WriteString(origin(it.Box.X, y))
	fmt.Fprintf(&b, "^A0%s,%d,%d", orientation(it), h, fw)
	fmt.Fprintf(&b, "^FB%d,1,0,%s,0", max(1, units.Dots(it.Box.W)), justify(e.Align))
	if c, ok := paint.Parse(e.Color, paint.Black); ok && paint.Light(c) {
		b.WriteString("^FR")
	}
	b.WriteString("^FH_^FD")
	b.WriteString(Escape(e.Content))
	b.WriteString("^FS")
	w.cmd(b.String())
}

func justify(a template.Align) string {
	switch a {
	case template.AlignCenter:
		return "C"
	case template.AlignRight:
		return "R"
	default:
		return "L"
	}
}

// ink maps a colour onto the two colours a thermal printer has.
func ink(hex string) string {
	c, _ := paint.Parse(hex, paint.Black)
	if paint.Light(c) {
		return "W"
	}
	return "B"
}

func line(w *writer, it layout.Item) {
	t := max(1, units.Dots(it.Box.H))
	y := it.Box.Y + (it.Box.H-float64(t))/2
	width := max(t, units.Dots(it.Box.W))

	w.cmd(fmt.Sprintf("%s^GB%d,%d,%d,%s,0^FS", origin(it.Box.X, y), width, t, t, ink(it.Element.Color)))
}

func shape(w *writer, it layout.Item) {
	e := it.Element
	bw := max(1, units.Dots(it.Box.W))
	bh := max(1, units.Dots(it.Box.H))
	at := origin(it.Box.X, it.Box.Y)

	if bg, ok := paint.Parse(e.BackgroundColor, paint.White); ok {
		fill := "B"
		if paint.Light(bg) {
			fill = "W"
		}
		w.cmd(fmt.Sprintf("%s^GB%d,%d,%d,%s,0^FS", at, bw, bh, min(bw, bh), fill))
	}
	if it.Border > 0 {
		t := clamp(units.Dots(it.Border), 1, min(bw, bh))
		w.cmd(fmt.Sprintf("%s^GB%d,%d,%d,%s,0^FS", at, bw, bh, t, ink(e.BorderColor)))
	}
}

// QRModule picks the QR magnification for a box.
func QRModule(box units.Rect) int {
	side := math.Min(box.W, box.H)
	return clamp(int(math.Floor(side/qrModuleDivisor)), minQRModule, maxQRModule)
}

func qr(w *writer, it layout.Item) string {
	if it.Element.Content == "" {
		return symbol.ErrEmpty.Error()
	}
	// automatic input mode at the level the document renderer uses
	w.cmd(fmt.Sprintf("%s^BQN,2,%d^FH_^FD%sA,%s^FS", origin(it.Box.X, it.Box.Y), QRModule(it.Box), symbol.QRLevel, Escape(it.Element.Content)))
	return ""
}

func barcode(w *writer, it layout.Item) string {
	m, err := symbol.Code128(it.Element.Content)
	if err != nil {
		return err.Error()
	}

	module := clamp(int(math.Floor(it.Box.W/float64(m.Cols))), 1, maxBarModule)
	h := max(1, units.Dots(it.Box.H))

	w.cmd(fmt.Sprintf("%s^BY%d,3,%d^BC%s,%d,N,N,N^FH_^FD%s^FS",
		origin(it.Box.X, it.Box.Y), module, h, orientation(it), h, Escape(it.Element.Content)))
	return ""
}

var escaper = strings.NewReplacer("_", "_5F", "^", "_5E", "~", "_7E")

// Escape hex-encodes the characters ZPL would read as commands inside a
// ^FH_ field.
func Escape(s string) string {
	return escaper.Replace(s)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
