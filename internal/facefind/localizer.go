// Package facefind estimates where the face sits in a frame and gates
// frames that are not worth scoring.
//
// Localization is a deliberate approximation: a cheap warm-tone color
// heuristic over a coarse pixel grid, not a trained detector. The score
// calibration downstream assumes this heuristic's error characteristics,
// so swapping in a landmark model is not a drop-in improvement. The
// Localizer interface exists so such a swap stays possible without
// touching callers.
package facefind

import (
	"math"

	"github.com/glowteam/skinscan/internal/constants"
	"github.com/glowteam/skinscan/internal/frame"
)

// Bounds describes the estimated face position. Width == 0 means no face
// was found; all other fields are meaningless in that case.
type Bounds struct {
	CX     int `json:"cx"`
	CY     int `json:"cy"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Found reports whether the bounds describe an actual face estimate.
func (b Bounds) Found() bool { return b.Width > 0 }

// Localizer finds approximate face bounds in a frame.
type Localizer interface {
	Locate(f *frame.Frame) Bounds
}

// SkinGrid is the default heuristic localizer. It samples the frame every
// Step pixels, classifies samples as skin-like by warm-tone reflectance
// (red above green, green above a floor), and takes the centroid of the
// qualifying samples as the face center. The width estimate grows with
// the square root of the skin sample count.
type SkinGrid struct {
	Step       int
	MinSamples int
}

// NewSkinGrid returns a SkinGrid with the calibrated defaults.
func NewSkinGrid() *SkinGrid {
	return &SkinGrid{
		Step:       constants.GridStep,
		MinSamples: constants.MinSkinSamples,
	}
}

// skinLike is the warm-tone classifier: red dominates green and green is
// above a darkness floor. Coarser than the multi-space classifiers used
// by full skin segmenters, but cheap and tone-stable.
func skinLike(r, g, _ uint8) bool {
	return r > g && g > constants.MinGreenChannel
}

// Locate implements Localizer.
func (l *SkinGrid) Locate(f *frame.Frame) Bounds {
	step := l.Step
	if step < 1 {
		step = 1
	}

	var sumX, sumY, count int
	for y := 0; y < f.Height; y += step {
		for x := 0; x < f.Width; x += step {
			r, g, b := f.RGBAt(x, y)
			if skinLike(r, g, b) {
				sumX += x
				sumY += y
				count++
			}
		}
	}

	if count < l.MinSamples {
		return Bounds{}
	}

	width := int(math.Sqrt(float64(count)) * float64(step) * constants.FaceExpansion)
	if width > f.Width {
		width = f.Width
	}
	height := int(float64(width) * constants.FaceAspect)
	if height > f.Height {
		height = f.Height
	}

	return Bounds{
		CX:     sumX / count,
		CY:     sumY / count,
		Width:  width,
		Height: height,
	}
}
