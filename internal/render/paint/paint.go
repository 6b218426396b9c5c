// Package paint parses the hex colours used by templates.
package paint

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	Black = colorful.Color{}
	White = colorful.Color{R: 1, G: 1, B: 1}
)

// Parse reads "#rrggbb", "#rgb" or the same without '#'. Anything else yields
// fallback and false.
func Parse(s string, fallback colorful.Color) (colorful.Color, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, false
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return fallback, false
	}
	return c.Clamped(), true
}

// RGB returns 0..255 channels in the form fpdf expects.
func RGB(c colorful.Color) (r, g, b int) {
	r8, g8, b8 := c.RGB255()
	return int(r8), int(g8), int(b8)
}

// Light reports whether c is closer to white than black by perceived
// lightness. Monochrome printers draw light colours as white.
func Light(c colorful.Color) bool {
	l, _, _ := c.Lab()
	return l >= 0.6
}
