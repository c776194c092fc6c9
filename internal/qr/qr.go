// Package qr encodes text into a QR symbol sized for a small OLED: error
// correction level L, one pixel per module, one-module quiet zone.
package qr

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	qrcode "github.com/skip2/go-qrcode"
)

const quietZone = 1 // modules on every side

// Code is the rendered module matrix, quiet zone included. true = dark.
type Code struct {
	modules [][]bool
}

// Encode builds the smallest symbol that fits text at level L. The symbol
// version therefore floats with the payload, exactly like an encoder asked
// to fit-grow from version 2.
func Encode(text string) (*Code, error) {
	q, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	// The library's built-in border is 4 modules; strip it and apply our
	// own single-module quiet zone below.
	q.DisableBorder = true

	raw := q.Bitmap()
	n := len(raw) + 2*quietZone
	modules := make([][]bool, n)
	for y := range modules {
		modules[y] = make([]bool, n)
	}
	for y, row := range raw {
		for x, dark := range row {
			modules[y+quietZone][x+quietZone] = dark
		}
	}
	return &Code{modules: modules}, nil
}

// Size is the symbol's edge length in modules, quiet zone included.
func (c *Code) Size() int { return len(c.modules) }

// Image renders dark modules black on white, scale pixels per module.
func (c *Code) Image(scale int) *image.Gray {
	return c.render(scale, color.Gray{0x00}, color.Gray{0xFF})
}

// ImageInverted renders dark modules white on black, the polarity an OLED
// wants (lit pixels where a scanner expects dark ink against the dark
// glass).
func (c *Code) ImageInverted(scale int) *image.Gray {
	return c.render(scale, color.Gray{0xFF}, color.Gray{0x00})
}

func (c *Code) render(scale int, dark, light color.Gray) *image.Gray {
	if scale < 1 {
		scale = 1
	}
	n := c.Size()
	img := image.NewGray(image.Rect(0, 0, n*scale, n*scale))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			px := light
			if c.modules[y][x] {
				px = dark
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetGray(x*scale+dx, y*scale+dy, px)
				}
			}
		}
	}
	return img
}

// SavePNG writes the black-on-white rendering to path, for debugging on a
// machine with a real screen.
func (c *Code) SavePNG(path string, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("qr save: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, c.Image(scale)); err != nil {
		return fmt.Errorf("qr save: %w", err)
	}
	return nil
}
