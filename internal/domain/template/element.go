package template

type ElementType string

const (
	TypeText    ElementType = "text"
	TypeLine    ElementType = "line"
	TypeShape   ElementType = "shape"
	TypeImage   ElementType = "image"
	TypeQRCode  ElementType = "qr_code"
	TypeBarcode ElementType = "barcode"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

type TextCase string

const (
	CaseNone       TextCase = ""
	CaseUpper      TextCase = "uppercase"
	CaseLower      TextCase = "lowercase"
	CaseCapitalize TextCase = "capitalize"
)

type FontWeight string

const (
	WeightNormal FontWeight = "normal"
	WeightBold   FontWeight = "bold"
)

// Element is one positioned primitive. Type-specific fields are ignored by
// element types that do not use them.
type Element struct {
	Type     ElementType `json:"type" validate:"required,oneof=text line shape image qr_code barcode"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Width    float64     `json:"width" validate:"gte=0,lte=20000"`
	Height   float64     `json:"height" validate:"gte=0,lte=20000"`
	ZIndex   int         `json:"z_index"`
	Opacity  *float64    `json:"opacity,omitempty" validate:"omitempty,gte=0,lte=100"`
	Rotation int         `json:"rotation,omitempty"`

	// text, qr_code, barcode
	Content string `json:"content,omitempty" validate:"max=4000"`

	// text
	FontSize   float64    `json:"font_size,omitempty" validate:"gte=0,lte=1000"`
	FontWeight FontWeight `json:"font_weight,omitempty" validate:"omitempty,oneof=normal bold"`
	Color      string     `json:"color,omitempty"`
	Align      Align      `json:"align,omitempty" validate:"omitempty,oneof=left center right"`
	TextCase   TextCase   `json:"text_case,omitempty" validate:"omitempty,oneof=uppercase lowercase capitalize"`

	// shape
	BackgroundColor string  `json:"background_color,omitempty"`
	BorderColor     string  `json:"border_color,omitempty"`
	BorderWidth     float64 `json:"border_width,omitempty" validate:"gte=0,lte=1000"`

	// image
	ImageURL string `json:"image_url,omitempty"`
}

// Alpha returns opacity in the 0..1 range. A missing opacity is fully opaque.
func (e Element) Alpha() float64 {
	if e.Opacity == nil {
		return 1
	}
	o := *e.Opacity
	switch {
	case o <= 0:
		return 0
	case o >= 100:
		return 1
	default:
		return o / 100
	}
}

func (e Element) Bold() bool {
	return e.FontWeight == WeightBold
}

// HasContent reports whether the element carries a placeholder string.
func (e Element) HasContent() bool {
	switch e.Type {
	case TypeText, TypeQRCode, TypeBarcode:
		return true
	default:
		return false
	}
}
