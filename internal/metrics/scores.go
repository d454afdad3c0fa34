package metrics

import (
	"math"

	"github.com/glowteam/skinscan/internal/colorspace"
	"github.com/glowteam/skinscan/internal/constants"
	"github.com/glowteam/skinscan/internal/regions"
)

// Every scoring function below measures against the region's own baseline
// (its mean a, mean L, its own gradient statistics) rather than a fixed
// population baseline. That relativity is what keeps scores consistent
// across skin tones and residual lighting differences.
//
// Tunables live next to the algorithms that own them; cross-cutting ones
// are in the constants package.
const (
	acneMarginA       = 6.0  // Lab a excess over region mean marking an inflamed pixel
	acneDensityDrop   = 350  // score points lost per unit inflamed density
	scarMarginL       = 10.0 // Lab L deficit under region mean marking a scar pixel
	scarDensityDrop   = 320
	rednessBaselineA  = 13.0 // healthy cheek/nose mean a
	rednessDrop       = 5.5
	textureBandLow    = 6.0 // Laplacian response band: below is flat skin,
	textureBandHigh   = 45.0
	textureDrop       = 260
	poreBandLow       = 4.0
	poreBandHigh      = 30.0
	poreDrop          = 300
	blackheadMarginL  = 18.0
	blackheadDrop     = 380
	wrinkleFineLow    = 8.0 // vertical-gradient bands for fine and deep lines
	wrinkleDeepLow    = 22.0
	wrinkleFineDrop   = 280
	wrinkleDeepDrop   = 340
	glowLumLow        = 150.0 // healthy specular glow window
	glowLumHigh       = 205.0
	glowMaxSaturation = 0.28
	glowIdealLow      = 0.12 // ideal glow-pixel density ratio
	glowIdealHigh     = 0.20
	hydrationDrop     = 260
	shineLumMin       = 232.0 // hard specular hot spot
	shineMaxSat       = 0.15
	oilinessDrop      = 520
	darkCircleGapTol  = 8.0 // luminance gap ignored before penalizing
	darkCircleDrop    = 2.2
	saggingBase       = 40.0
	saggingContrast   = 2.2
)

// Compute runs every metric algorithm over the region set. All returned
// values are clamped; degenerate regions yield the safe floor for the
// metrics that depend on them.
func Compute(set regions.Set) Scores {
	var s Scores

	cheek := set[regions.CheekLeft]
	altCheek := set[regions.CheekRight]
	forehead := set[regions.Forehead]
	nose := set[regions.Nose]
	underEye := set[regions.UnderEye]
	jaw := set[regions.Jaw]

	s.AcneActive = ScoreAcneActive(cheek)
	s.AcneScars = ScoreAcneScars(cheek)
	s.Redness = ScoreRedness(cheek, nose)
	s.Texture = ScoreTexture(cheek)
	s.PoreSize = ScorePores(nose)
	s.Blackheads = ScoreBlackheads(nose)
	s.WrinkleFine, s.WrinkleDeep = ScoreWrinkles(forehead)
	s.Hydration = ScoreHydration(cheek, forehead)
	s.Oiliness = ScoreOiliness(forehead)
	s.DarkCircles = ScoreDarkCircles(underEye, cheek)
	s.Sagging = ScoreSagging(jaw)

	// Pigmentation reuses the scar-density signal on the opposite cheek.
	// It is a correlated proxy, kept as an explicit derivation so the
	// aggregator and damping always see consistent values.
	s.Pigmentation = ScoreAcneScars(altCheek)

	return s
}

// degenerate reports whether a region cannot support a measurement.
func degenerate(r *regions.ROI) bool {
	return r == nil || r.Empty() || r.RawMean < 1.0
}

// ScoreAcneActive measures the density of pixels whose Lab a exceeds the
// region's own mean by a margin. Inflamed blemishes sit above the
// subject's personal redness baseline.
func ScoreAcneActive(cheek *regions.ROI) int {
	if degenerate(cheek) {
		return constants.ScoreFloor
	}
	as := labA(cheek)
	mean := meanOf(as)

	hot := 0
	for _, a := range as {
		if a > mean+acneMarginA {
			hot++
		}
	}
	density := float64(hot) / float64(len(as))
	return clampFloat(float64(constants.ScoreCeil) - density*acneDensityDrop)
}

// ScoreAcneScars measures the density of pixels darker than the region's
// mean lightness by a margin.
func ScoreAcneScars(cheek *regions.ROI) int {
	if degenerate(cheek) {
		return constants.ScoreFloor
	}
	ls := labL(cheek)
	mean := meanOf(ls)

	dark := 0
	for _, l := range ls {
		if l < mean-scarMarginL {
			dark++
		}
	}
	density := float64(dark) / float64(len(ls))
	return clampFloat(float64(constants.ScoreCeil) - density*scarDensityDrop)
}

// ScoreRedness averages the positive deviation of Lab a above the fixed
// healthy baseline across cheek and nose.
func ScoreRedness(cheek, nose *regions.ROI) int {
	rois := presentROIs(cheek, nose)
	if len(rois) == 0 {
		return constants.ScoreFloor
	}

	var dev float64
	var n int
	for _, roi := range rois {
		for _, a := range labA(roi) {
			if d := a - rednessBaselineA; d > 0 {
				dev += d
			}
			n++
		}
	}
	avg := dev / float64(n)
	return clampFloat(96 - avg*rednessDrop)
}

// ScoreTexture measures local second-derivative (Laplacian) roughness of
// luminance in a moderate band. Very low responses are flat skin, very
// high ones are hard edges or hair; both are excluded.
func ScoreTexture(cheek *regions.ROI) int {
	if degenerate(cheek) {
		return constants.ScoreFloor
	}
	density := laplacianBandDensity(cheek, textureBandLow, textureBandHigh)
	return clampFloat(98 - density*textureDrop)
}

// ScorePores runs the roughness measurement on the nose with a band
// tuned for pore-scale detail.
func ScorePores(nose *regions.ROI) int {
	if degenerate(nose) {
		return constants.ScoreFloor
	}
	density := laplacianBandDensity(nose, poreBandLow, poreBandHigh)
	return clampFloat(98 - density*poreDrop)
}

// ScoreBlackheads measures dark-dot density on the nose, the same
// deficit signal as scars but with a deeper margin.
func ScoreBlackheads(nose *regions.ROI) int {
	if degenerate(nose) {
		return constants.ScoreFloor
	}
	ls := labL(nose)
	mean := meanOf(ls)

	dots := 0
	for _, l := range ls {
		if l < mean-blackheadMarginL {
			dots++
		}
	}
	density := float64(dots) / float64(len(ls))
	return clampFloat(98 - density*blackheadDrop)
}

// ScoreWrinkles measures horizontal-edge density on the forehead at two
// gradient magnitudes: a lower band for fine lines and a higher band for
// deep ones.
func ScoreWrinkles(forehead *regions.ROI) (fine, deep int) {
	if degenerate(forehead) || forehead.Height < 2 {
		return constants.ScoreFloor, constants.ScoreFloor
	}

	var fineCount, deepCount, n int
	for y := 0; y < forehead.Height-1; y++ {
		for x := 0; x < forehead.Width; x++ {
			gy := math.Abs(forehead.LuminanceAt(x, y+1) - forehead.LuminanceAt(x, y))
			switch {
			case gy >= wrinkleDeepLow:
				deepCount++
			case gy >= wrinkleFineLow:
				fineCount++
			}
			n++
		}
	}

	fineDensity := float64(fineCount) / float64(n)
	deepDensity := float64(deepCount) / float64(n)
	fine = clampFloat(97 - fineDensity*wrinkleFineDrop)
	deep = clampFloat(98 - deepDensity*wrinkleDeepDrop)
	return fine, deep
}

// ScoreHydration measures the density of pixels in the luminance and
// saturation window characteristic of healthy specular glow, then
// penalizes deviation from the ideal density ratio. Too few glow pixels
// reads dull and dry, too many reads harsh shine.
func ScoreHydration(cheek, forehead *regions.ROI) int {
	rois := presentROIs(cheek, forehead)
	if len(rois) == 0 {
		return constants.ScoreFloor
	}

	glow, n := 0, 0
	for _, roi := range rois {
		for y := range roi.Height {
			for x := range roi.Width {
				lum := roi.LuminanceAt(x, y)
				if lum >= glowLumLow && lum <= glowLumHigh && saturationAt(roi, x, y) <= glowMaxSaturation {
					glow++
				}
				n++
			}
		}
	}
	ratio := float64(glow) / float64(n)

	var dev float64
	switch {
	case ratio < glowIdealLow:
		dev = glowIdealLow - ratio
	case ratio > glowIdealHigh:
		dev = ratio - glowIdealHigh
	}
	return clampFloat(95 - dev*hydrationDrop)
}

// ScoreOiliness measures the density of near-white, near-zero-saturation
// hot-spot pixels on the forehead.
func ScoreOiliness(forehead *regions.ROI) int {
	if degenerate(forehead) {
		return constants.ScoreFloor
	}

	shine, n := 0, 0
	for y := range forehead.Height {
		for x := range forehead.Width {
			lum := forehead.LuminanceAt(x, y)
			if lum >= shineLumMin && saturationAt(forehead, x, y) <= shineMaxSat {
				shine++
			}
			n++
		}
	}
	density := float64(shine) / float64(n)
	return clampFloat(97 - density*oilinessDrop)
}

// ScoreDarkCircles compares the pre-normalization mean luminance of the
// under-eye band against the cheek, with a tolerance band before any
// penalty. Exposure normalization would erase exactly the signal this
// metric needs, so it reads the raw means.
func ScoreDarkCircles(underEye, cheek *regions.ROI) int {
	if degenerate(underEye) || degenerate(cheek) {
		return constants.ScoreFloor
	}
	gap := cheek.RawMean - underEye.RawMean
	excess := gap - darkCircleGapTol
	if excess < 0 {
		excess = 0
	}
	return clampFloat(95 - excess*darkCircleDrop)
}

// ScoreSagging measures vertical luminance contrast across the jaw band.
// A sharp jaw edge means firm contours; low contrast reads as sagging.
func ScoreSagging(jaw *regions.ROI) int {
	if degenerate(jaw) || jaw.Height < 2 {
		return constants.ScoreFloor
	}

	half := jaw.Height / 2
	var contrast float64
	for x := range jaw.Width {
		var top, bottom float64
		for y := 0; y < half; y++ {
			top += jaw.LuminanceAt(x, y)
		}
		for y := half; y < jaw.Height; y++ {
			bottom += jaw.LuminanceAt(x, y)
		}
		top /= float64(half)
		bottom /= float64(jaw.Height - half)
		contrast += math.Abs(top - bottom)
	}
	contrast /= float64(jaw.Width)
	return clampFloat(saggingBase + contrast*saggingContrast)
}

// --- shared pixel statistics ---

// labA extracts the Lab a channel for every ROI pixel.
func labA(r *regions.ROI) []float64 {
	out := make([]float64, len(r.R))
	for i := range r.R {
		_, a, _ := colorspace.ToLab(roundChan(r.R[i]), roundChan(r.G[i]), roundChan(r.B[i]))
		out[i] = a
	}
	return out
}

// labL extracts the Lab L channel for every ROI pixel.
func labL(r *regions.ROI) []float64 {
	out := make([]float64, len(r.R))
	for i := range r.R {
		l, _, _ := colorspace.ToLab(roundChan(r.R[i]), roundChan(r.G[i]), roundChan(r.B[i]))
		out[i] = l
	}
	return out
}

// saturationAt returns HSV-style saturation (max-min)/max at (x, y).
func saturationAt(r *regions.ROI, x, y int) float64 {
	rr, gg, bb := r.At(x, y)
	maxC := math.Max(rr, math.Max(gg, bb))
	if maxC <= 0 {
		return 0
	}
	minC := math.Min(rr, math.Min(gg, bb))
	return (maxC - minC) / maxC
}

// laplacianBandDensity counts 4-neighbor Laplacian responses of luminance
// within [lo, hi) and returns their density over the interior pixels.
func laplacianBandDensity(r *regions.ROI, lo, hi float64) float64 {
	if r.Width < 3 || r.Height < 3 {
		return 0
	}
	count, n := 0, 0
	for y := 1; y < r.Height-1; y++ {
		for x := 1; x < r.Width-1; x++ {
			lap := math.Abs(4*r.LuminanceAt(x, y) -
				r.LuminanceAt(x-1, y) - r.LuminanceAt(x+1, y) -
				r.LuminanceAt(x, y-1) - r.LuminanceAt(x, y+1))
			if lap >= lo && lap < hi {
				count++
			}
			n++
		}
	}
	return float64(count) / float64(n)
}

func meanOf(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// presentROIs filters out degenerate regions.
func presentROIs(rois ...*regions.ROI) []*regions.ROI {
	out := rois[:0]
	for _, r := range rois {
		if !degenerate(r) {
			out = append(out, r)
		}
	}
	return out
}

func roundChan(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
