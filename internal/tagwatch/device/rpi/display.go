package rpi

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
)

// Display drives a small monochrome OLED. Frames are composed off-device
// and pushed whole; the panel keeps showing the last frame until the next
// call, so hold times are plain caller-side sleeps.
type Display struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
	w   int
	h   int
}

// NewDisplay opens the named I2C bus ("" picks the first available) and
// initializes a w x h panel.
func NewDisplay(busName string, w, h int) (*Display, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c %q: %w", busName, err)
	}

	opts := ssd1306.DefaultOpts
	opts.W = w
	opts.H = h
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("oled init: %w", err)
	}

	return &Display{bus: bus, dev: dev, w: w, h: h}, nil
}

func (d *Display) Bounds() image.Rectangle { return image.Rect(0, 0, d.w, d.h) }

func (d *Display) ShowText(msg string) error {
	frame := image.NewGray(d.Bounds())

	face := basicfont.Face7x13
	drawer := font.Drawer{
		Dst:  frame,
		Src:  image.White,
		Face: face,
	}
	width := drawer.MeasureString(msg).Ceil()
	x := (d.w - width) / 2
	if x < 0 {
		x = 0
	}
	y := (d.h + face.Ascent) / 2
	drawer.Dot = fixed.P(x, y)
	drawer.DrawString(msg)

	return d.push(frame)
}

func (d *Display) ShowBitmap(img image.Image, at image.Point) error {
	frame := image.NewGray(d.Bounds())
	draw.Draw(frame, img.Bounds().Add(at), img, img.Bounds().Min, draw.Src)
	return d.push(frame)
}

func (d *Display) Clear() error {
	return d.push(image.NewGray(d.Bounds()))
}

func (d *Display) Close() error {
	if err := d.dev.Halt(); err != nil {
		_ = d.bus.Close()
		return fmt.Errorf("oled halt: %w", err)
	}
	return d.bus.Close()
}

func (d *Display) push(frame image.Image) error {
	if err := d.dev.Draw(d.dev.Bounds(), frame, image.Point{}); err != nil {
		return fmt.Errorf("oled draw: %w", err)
	}
	return nil
}
