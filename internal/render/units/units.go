// Package units maps template-authoring pixels onto the native units of the
// two output targets: PDF points (72 per inch, origin bottom-left) and printer
// dots (203 per inch, origin top-left).
package units

import "math"

const (
	TemplateDPI   = 96.0
	PointsPerInch = 72.0
	PrinterDPI    = 203.0
)

type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

type Size struct {
	W float64
	H float64
}

func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

type Origin int

const (
	OriginTopLeft Origin = iota
	OriginBottomLeft
)

// Scale returns the per-axis factors from template space to target space.
// A degenerate template size maps 1:1.
func Scale(templateSize, target Size) (sx, sy float64) {
	sx, sy = 1, 1
	if templateSize.W > 0 {
		sx = target.W / templateSize.W
	}
	if templateSize.H > 0 {
		sy = target.H / templateSize.H
	}
	return sx, sy
}

// Convert scales r into the target space. With OriginBottomLeft the y axis is
// flipped so that Y addresses the bottom edge of the box.
func Convert(r Rect, templateSize, target Size, origin Origin) Rect {
	sx, sy := Scale(templateSize, target)

	out := Rect{
		X: r.X * sx,
		Y: r.Y * sy,
		W: r.W * sx,
		H: r.H * sy,
	}

	if origin == OriginBottomLeft {
		out.Y = target.H - out.Y - out.H
	}
	return out
}

// ToDocument converts into PDF user space.
func ToDocument(r Rect, templateSize, page Size) Rect {
	return Convert(r, templateSize, page, OriginBottomLeft)
}

// ToPrinter converts into printer dots.
func ToPrinter(r Rect, templateSize, label Size) Rect {
	return Convert(r, templateSize, label, OriginTopLeft)
}

// CanvasFor returns the default authoring canvas for a native size expressed
// at nativeDPI.
func CanvasFor(native Size, nativeDPI float64) Size {
	if nativeDPI <= 0 {
		return native
	}
	f := TemplateDPI / nativeDPI
	return Size{W: native.W * f, H: native.H * f}
}

// Dots rounds a printer coordinate to a whole dot.
func Dots(v float64) int {
	return int(math.Round(v))
}

type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate180 Rotation = 180
)

// NormalizeRotation folds any angle onto the supported set. Only a half turn
// survives; everything else renders upright.
func NormalizeRotation(deg int) Rotation {
	d := ((deg % 360) + 360) % 360
	if d == 180 {
		return Rotate180
	}
	return Rotate0
}
