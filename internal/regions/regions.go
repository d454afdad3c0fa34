// Package regions slices a frame into named anatomical regions of
// interest and normalizes their exposure so measurements taken under
// different ambient lighting stay comparable.
package regions

import (
	"github.com/glowteam/skinscan/internal/constants"
	"github.com/glowteam/skinscan/internal/facefind"
	"github.com/glowteam/skinscan/internal/frame"
)

// Name identifies an anatomical region.
type Name string

const (
	Forehead   Name = "forehead"
	CheekLeft  Name = "cheek_left"
	CheekRight Name = "cheek_right"
	UnderEye   Name = "under_eye"
	Nose       Name = "nose"
	Jaw        Name = "jaw"
)

// ROI is an exposure-normalized rectangular cut of a frame. Channel
// values are float64 because normalization scales them; they stay in the
// 0-255 range. ROIs are created and consumed within one analysis pass.
type ROI struct {
	Name   Name
	Width  int
	Height int
	R      []float64
	G      []float64
	B      []float64

	// RawMean is the mean luminance before exposure normalization.
	// Cross-region comparisons (under-eye vs cheek) need the absolute
	// level that normalization deliberately erases.
	RawMean float64
}

// Empty reports whether the ROI holds no pixels (face too close to the
// frame edge for this cut).
func (r *ROI) Empty() bool { return r.Width == 0 || r.Height == 0 }

// At returns the channels at (x, y).
func (r *ROI) At(x, y int) (float64, float64, float64) {
	i := y*r.Width + x
	return r.R[i], r.G[i], r.B[i]
}

// LuminanceAt returns the BT.601 luminance at (x, y).
func (r *ROI) LuminanceAt(x, y int) float64 {
	rr, gg, bb := r.At(x, y)
	return 0.299*rr + 0.587*gg + 0.114*bb
}

// MeanLuminance returns the average BT.601 luminance over the ROI.
func (r *ROI) MeanLuminance() float64 {
	if r.Empty() {
		return 0
	}
	var sum float64
	n := r.Width * r.Height
	for i := range n {
		sum += 0.299*r.R[i] + 0.587*r.G[i] + 0.114*r.B[i]
	}
	return sum / float64(n)
}

// cut describes a region rectangle as proportional offsets from the face
// center, in units of face width (x) and face height (y).
type cut struct {
	name   Name
	x0, x1 float64
	y0, y1 float64
}

// Proportional offsets calibrated for the heuristic localizer's framing.
// The under-eye band sits above the center line; cheeks flank the nose.
var cuts = []cut{
	{Forehead, -0.30, 0.30, -0.45, -0.25},
	{CheekLeft, -0.35, -0.10, 0.05, 0.25},
	{CheekRight, 0.10, 0.35, 0.05, 0.25},
	{UnderEye, -0.30, 0.30, -0.12, 0.00},
	{Nose, -0.08, 0.08, -0.05, 0.20},
	{Jaw, -0.25, 0.25, 0.35, 0.48},
}

// Set holds all regions extracted from one frame.
type Set map[Name]*ROI

// Extract cuts every named region from the frame relative to the face
// bounds and exposure-normalizes each one. Regions that fall entirely
// outside the frame come back empty rather than failing the pass.
func Extract(f *frame.Frame, b facefind.Bounds) Set {
	set := make(Set, len(cuts))
	for _, c := range cuts {
		roi := crop(f, b, c)
		Normalize(roi)
		set[c.name] = roi
	}
	return set
}

// crop copies the cut rectangle out of the frame, clamped to its bounds.
func crop(f *frame.Frame, b facefind.Bounds, c cut) *ROI {
	fw, fh := float64(b.Width), float64(b.Height)
	x0 := clampInt(b.CX+int(c.x0*fw), 0, f.Width)
	x1 := clampInt(b.CX+int(c.x1*fw), 0, f.Width)
	y0 := clampInt(b.CY+int(c.y0*fh), 0, f.Height)
	y1 := clampInt(b.CY+int(c.y1*fh), 0, f.Height)

	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return &ROI{Name: c.name}
	}

	roi := &ROI{
		Name:   c.name,
		Width:  w,
		Height: h,
		R:      make([]float64, w*h),
		G:      make([]float64, w*h),
		B:      make([]float64, w*h),
	}
	for y := range h {
		for x := range w {
			r, g, bb := f.RGBAt(x0+x, y0+y)
			i := y*w + x
			roi.R[i] = float64(r)
			roi.G[i] = float64(g)
			roi.B[i] = float64(bb)
		}
	}
	return roi
}

// Normalize rescales the ROI so its mean luminance hits TargetLuminance.
// The scale factor is clamped so a degenerate near-black region cannot
// blow channel values up.
func Normalize(r *ROI) {
	if r.Empty() {
		return
	}
	mean := r.MeanLuminance()
	r.RawMean = mean
	scale := constants.MaxExposureScale
	if mean > 1e-6 {
		scale = constants.TargetLuminance / mean
	}
	if scale > constants.MaxExposureScale {
		scale = constants.MaxExposureScale
	}
	if scale < constants.MinExposureScale {
		scale = constants.MinExposureScale
	}

	for i := range r.R {
		r.R[i] = clampChan(r.R[i] * scale)
		r.G[i] = clampChan(r.G[i] * scale)
		r.B[i] = clampChan(r.B[i] * scale)
	}
}

func clampChan(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
