package icongen

import (
	"image"

	"github.com/disintegration/imaging"
)

// Canvas is the drawing surface a Generator paints on.
type Canvas struct {
	img *image.NRGBA
}

func NewCanvas() *Canvas {
	return &Canvas{img: image.NewNRGBA(image.Rect(0, 0, 0, 0))}
}

// Resize replaces the pixel buffer with a transparent w x h one.
func (c *Canvas) Resize(w, h int) {
	c.img = image.NewNRGBA(image.Rect(0, 0, w, h))
}

func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// paint draws src over the canvas with its top-left corner at pt. Anything
// outside the canvas is clipped.
func (c *Canvas) paint(src image.Image, pt image.Point) {
	if src.Bounds().Empty() {
		return
	}
	c.img = imaging.Overlay(c.img, src, pt, 1.0)
}
