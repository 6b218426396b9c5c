package template

import (
	"errors"
	"time"
)

type Kind string

const (
	KindCertificate Kind = "certificate"
	KindBadge       Kind = "badge"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindCertificate, KindBadge:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound = errors.New("template not found")
	ErrInvalid  = errors.New("invalid template")
)

// Template is the declarative layout shared by the document and printer outputs.
// Coordinates are authored in pixels at 96 per inch on a canvas that defaults to
// the physical output size.
type Template struct {
	ID              string    `json:"id"`
	EventID         string    `json:"eventId,omitempty"`
	Kind            Kind      `json:"kind" validate:"omitempty,oneof=certificate badge"`
	OutputSize      string    `json:"output_size" validate:"max=40"`
	CanvasWidth     float64   `json:"canvas_width,omitempty" validate:"gte=0"`
	CanvasHeight    float64   `json:"canvas_height,omitempty" validate:"gte=0"`
	BackgroundColor string    `json:"background_color,omitempty"`
	BackgroundImage string    `json:"background_image,omitempty"`
	// Rotation turns the whole label on printers that feed upside down.
	// Documents ignore it.
	Rotation  int       `json:"rotation,omitempty"`
	Elements  []Element `json:"elements" validate:"max=500"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// ImageRefs lists every remote asset the template references, background first,
// without duplicates.
func (t Template) ImageRefs() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 1)

	add := func(ref string) {
		if ref == "" {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}

	add(t.BackgroundImage)
	for _, e := range t.Elements {
		if e.Type == TypeImage {
			add(e.ImageURL)
		}
	}
	return out
}
