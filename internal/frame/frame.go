// Package frame holds the raster input to one analysis pass: decoding,
// downscaling, pixel access, and the content fingerprints used by the
// stabilization protocol.
package frame

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/glowteam/skinscan/internal/constants"
)

// Frame is an immutable dense RGBA buffer. It is created per captured or
// uploaded image and discarded after scoring.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8 // RGBA, 4 bytes per pixel, row-major
}

// Decode parses image bytes (jpeg, png, gif or bmp) into a Frame,
// downscaling so neither edge exceeds MaxFrameDimension.
func Decode(data []byte) (*Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// FromImage converts a decoded image into a Frame, downscaling if needed.
func FromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > constants.MaxFrameDimension || h > constants.MaxFrameDimension {
		if w > h {
			h = h * constants.MaxFrameDimension / w
			w = constants.MaxFrameDimension
		} else {
			w = w * constants.MaxFrameDimension / h
			h = constants.MaxFrameDimension
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return &Frame{Width: w, Height: h, Pix: dst.Pix}
}

// RGBAt returns the 8-bit color channels at (x, y).
func (f *Frame) RGBAt(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * 4
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// LuminanceAt returns the BT.601 weighted grayscale value at (x, y).
func (f *Frame) LuminanceAt(x, y int) float64 {
	r, g, b := f.RGBAt(x, y)
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// MeanLuminance returns the frame's average BT.601 luminance, sampled on a
// coarse grid so large frames stay cheap.
func (f *Frame) MeanLuminance() float64 {
	step := f.Width / 64
	if step < 1 {
		step = 1
	}
	var sum float64
	var n int
	for y := 0; y < f.Height; y += step {
		for x := 0; x < f.Width; x += step {
			sum += f.LuminanceAt(x, y)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
