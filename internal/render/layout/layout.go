// Package layout turns a template's element list into draw-ready items:
// ordered by z-index, placeholder-resolved and converted to a target's native
// units. Both output renderers consume the result.
package layout

import (
	"cmp"
	"slices"

	"github.com/geocoder89/eventprint/internal/domain/template"
	"github.com/geocoder89/eventprint/internal/render/placeholder"
	"github.com/geocoder89/eventprint/internal/render/units"
)

// DefaultFontSize applies to text elements that carry no font_size, in
// template pixels.
const DefaultFontSize = 16.0

// Item is one element ready to draw. Element.Content already holds the
// resolved text; Box and FontSize are in the target's native units.
type Item struct {
	Index    int
	Element  template.Element
	Box      units.Rect
	FontSize float64
	Border   float64
	Rotation units.Rotation
}

// Skip records an element left out of the output and why.
type Skip struct {
	Index  int                  `json:"index"`
	Type   template.ElementType `json:"type"`
	Reason string               `json:"reason"`
}

type Target struct {
	SizeName  string
	KnownSize bool
	Native    units.Size
	Canvas    units.Size
	Origin    units.Origin
}

func (tg Target) Convert(r units.Rect) units.Rect {
	return units.Convert(r, tg.Canvas, tg.Native, tg.Origin)
}

// FontScale maps template font sizes onto the target. Glyph height follows
// the vertical axis.
func (tg Target) FontScale() float64 {
	_, sy := units.Scale(tg.Canvas, tg.Native)
	return sy
}

// DocumentTarget places the template on a PDF page in points.
func DocumentTarget(t template.Template) Target {
	page, known := units.Page(t.OutputSize)
	return Target{
		SizeName:  page.Name,
		KnownSize: known,
		Native:    page.Size,
		Canvas:    canvas(t, page.Size, units.PointsPerInch),
		Origin:    units.OriginBottomLeft,
	}
}

// PrinterTarget places the template on a label in printer dots.
func PrinterTarget(t template.Template) Target {
	label, known := units.Label(t.OutputSize)
	return Target{
		SizeName:  label.Name,
		KnownSize: known,
		Native:    label.Size,
		Canvas:    canvas(t, label.Size, units.PrinterDPI),
		Origin:    units.OriginTopLeft,
	}
}

func canvas(t template.Template, native units.Size, dpi float64) units.Size {
	if t.CanvasWidth > 0 && t.CanvasHeight > 0 {
		return units.Size{W: t.CanvasWidth, H: t.CanvasHeight}
	}
	return units.CanvasFor(native, dpi)
}

// Order returns element indexes in ascending z-index; ties keep source order.
func Order(elements []template.Element) []int {
	idx := make([]int, len(elements))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(elements[a].ZIndex, elements[b].ZIndex)
	})
	return idx
}

type Prepared struct {
	Items   []Item
	Skipped []Skip
}

// Prepare validates, resolves and converts every element of t for target tg.
// Elements that fail validation are reported in Skipped and never drawn.
func Prepare(t template.Template, tg Target, c placeholder.Context, r *placeholder.Resolver) Prepared {
	out := Prepared{Items: make([]Item, 0, len(t.Elements))}

	for _, i := range Order(t.Elements) {
		e := t.Elements[i]

		if err := template.CheckElement(e); err != nil {
			out.Skipped = append(out.Skipped, Skip{Index: i, Type: e.Type, Reason: err.Error()})
			continue
		}

		switch e.Type {
		case template.TypeText:
			e.Content = r.Text(e.Content, c, e.TextCase)
		case template.TypeQRCode, template.TypeBarcode:
			e.Content = r.Resolve(e.Content, c)
		}

		size := e.FontSize
		if size <= 0 {
			size = DefaultFontSize
		}

		out.Items = append(out.Items, Item{
			Index:    i,
			Element:  e,
			Box:      tg.Convert(units.Rect{X: e.X, Y: e.Y, W: e.Width, H: e.Height}),
			FontSize: size * tg.FontScale(),
			Border:   e.BorderWidth * tg.FontScale(),
			Rotation: units.NormalizeRotation(e.Rotation),
		})
	}
	return out
}
