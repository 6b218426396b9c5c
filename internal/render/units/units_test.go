package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestConvert_OriginBoxLandsAtZero(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tw := rapid.Float64Range(10, 5000).Draw(rt, "templateWidth")
		th := rapid.Float64Range(10, 5000).Draw(rt, "templateHeight")
		nw := rapid.Float64Range(10, 5000).Draw(rt, "nativeWidth")
		nh := rapid.Float64Range(10, 5000).Draw(rt, "nativeHeight")
		w := rapid.Float64Range(0, tw).Draw(rt, "w")
		h := rapid.Float64Range(0, th).Draw(rt, "h")

		tpl := Size{W: tw, H: th}
		native := Size{W: nw, H: nh}

		for _, origin := range []Origin{OriginTopLeft, OriginBottomLeft} {
			got := Convert(Rect{X: 0, Y: 0, W: w, H: h}, tpl, native, origin)

			if math.Abs(got.X) > 1 {
				rt.Fatalf("x = %f, want 0", got.X)
			}
			if math.Abs(got.W-w*(nw/tw)) > 1 {
				rt.Fatalf("width = %f, want %f", got.W, w*(nw/tw))
			}
		}
	})
}

func TestConvert_DocumentFlipsY(t *testing.T) {
	tpl := Size{W: 1000, H: 500}
	page := Size{W: 2000, H: 1000}

	got := ToDocument(Rect{X: 100, Y: 50, W: 200, H: 100}, tpl, page)

	assert.InDelta(t, 200, got.X, 1e-9)
	assert.InDelta(t, 400, got.W, 1e-9)
	assert.InDelta(t, 200, got.H, 1e-9)
	// top edge 100 from the top means bottom edge at 1000-100-200
	assert.InDelta(t, 700, got.Y, 1e-9)
}

func TestConvert_PrinterKeepsTopLeft(t *testing.T) {
	label, ok := Label("4x6")
	require.True(t, ok)

	tpl := CanvasFor(label.Size, PrinterDPI)
	assert.InDelta(t, 384, tpl.W, 0.5)
	assert.InDelta(t, 576, tpl.H, 0.5)

	got := ToPrinter(Rect{X: 0, Y: 288, W: 384, H: 288}, tpl, label.Size)
	assert.InDelta(t, 0, got.X, 1e-9)
	assert.InDelta(t, 609, got.Y, 1e-6)
	assert.InDelta(t, 812, got.W, 1e-6)
	assert.InDelta(t, 609, got.H, 1e-6)
}

func TestScale_DegenerateTemplateIsIdentity(t *testing.T) {
	sx, sy := Scale(Size{}, Size{W: 300, H: 200})
	assert.Equal(t, 1.0, sx)
	assert.Equal(t, 1.0, sy)
}

func TestSizes_LookupAndFallback(t *testing.T) {
	tests := []struct {
		name      string
		lookup    func(string) (Named, bool)
		in        string
		wantName  string
		wantKnown bool
	}{
		{name: "page exact", lookup: Page, in: "A4-portrait", wantName: "A4-portrait", wantKnown: true},
		{name: "page case insensitive", lookup: Page, in: "letter-LANDSCAPE", wantName: "Letter-landscape", wantKnown: true},
		{name: "page unknown", lookup: Page, in: "B5", wantName: DefaultPage, wantKnown: false},
		{name: "page empty", lookup: Page, in: "", wantName: DefaultPage, wantKnown: false},
		{name: "label exact", lookup: Label, in: "4x2", wantName: "4x2", wantKnown: true},
		{name: "label upper", lookup: Label, in: "A6", wantName: "a6", wantKnown: true},
		{name: "label unknown", lookup: Label, in: "2x1", wantName: DefaultLabel, wantKnown: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := tt.lookup(tt.in)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantKnown, known)
			assert.True(t, got.Size.Valid())
		})
	}
}

func TestNormalizeRotation(t *testing.T) {
	assert.Equal(t, Rotate0, NormalizeRotation(0))
	assert.Equal(t, Rotate180, NormalizeRotation(180))
	assert.Equal(t, Rotate180, NormalizeRotation(-180))
	assert.Equal(t, Rotate180, NormalizeRotation(540))
	assert.Equal(t, Rotate0, NormalizeRotation(90))
	assert.Equal(t, Rotate0, NormalizeRotation(360))
}
