// Package symbol encodes QR and Code 128 content into module matrices that
// a renderer can paint as plain rectangles.
package symbol

import (
	"errors"
	"fmt"
	"image"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
)

var ErrEmpty = errors.New("empty symbol content")

// Matrix is a grid of dark/light modules, row-major.
type Matrix struct {
	Cols int
	Rows int
	dark []bool
}

func (m Matrix) Dark(col, row int) bool {
	if col < 0 || row < 0 || col >= m.Cols || row >= m.Rows {
		return false
	}
	return m.dark[row*m.Cols+col]
}

// Run is a horizontal stretch of dark modules.
type Run struct {
	Row   int
	Start int
	Len   int
}

// Runs merges adjacent dark modules of each row, top to bottom.
func (m Matrix) Runs() []Run {
	var out []Run
	for row := 0; row < m.Rows; row++ {
		start := -1
		for col := 0; col <= m.Cols; col++ {
			if col < m.Cols && m.Dark(col, row) {
				if start < 0 {
					start = col
				}
				continue
			}
			if start >= 0 {
				out = append(out, Run{Row: row, Start: start, Len: col - start})
				start = -1
			}
		}
	}
	return out
}

// QRLevel is the error correction level of every QR symbol, on paper and on
// labels alike.
const QRLevel = "M"

var qrLevels = map[string]qr.ErrorCorrectionLevel{"L": qr.L, "M": qr.M, "Q": qr.Q, "H": qr.H}

// QR encodes content at QRLevel.
func QR(content string) (Matrix, error) {
	if content == "" {
		return Matrix{}, ErrEmpty
	}
	code, err := qr.Encode(content, qrLevels[QRLevel], qr.Auto)
	if err != nil {
		return Matrix{}, fmt.Errorf("qr encode: %w", err)
	}
	return fromImage(code), nil
}

// Code128 encodes content as a one-row linear symbol.
func Code128(content string) (Matrix, error) {
	if content == "" {
		return Matrix{}, ErrEmpty
	}
	code, err := code128.Encode(content)
	if err != nil {
		return Matrix{}, fmt.Errorf("code128 encode: %w", err)
	}
	return fromImage(code), nil
}

func fromImage(code barcode.Barcode) Matrix {
	b := code.Bounds()
	m := Matrix{Cols: b.Dx(), Rows: b.Dy()}
	m.dark = make([]bool, m.Cols*m.Rows)
	for y := 0; y < m.Rows; y++ {
		for x := 0; x < m.Cols; x++ {
			m.dark[y*m.Cols+x] = isDark(code, b.Min.X+x, b.Min.Y+y)
		}
	}
	return m
}

func isDark(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r+g+b < 3*0x8000
}
