// Package colorspace converts between sRGB and CIE L*a*b*.
// Lab separates lightness (L) from the red-green (a) and blue-yellow (b)
// chroma axes, which makes redness and lightness statistics independent of
// each other in a way plain RGB never is.
package colorspace

import "math"

// D65 reference white point.
const (
	whiteX = 0.95047
	whiteY = 1.00000
	whiteZ = 1.08883
)

// srgbToLinear removes the sRGB gamma curve from a 0-1 channel value.
func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// linearToSRGB applies the sRGB gamma curve to a 0-1 linear value.
func linearToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math.Pow(c, 1.0/2.4) - 0.055
}

// labF is the nonlinear compression used by the XYZ to Lab transform.
func labF(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

// labFInv inverts labF.
func labFInv(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	return 3 * delta * delta * (t - 4.0/29.0)
}

// ToLab converts an 8-bit sRGB triple to CIE L*a*b* under D65.
// L is in [0,100], a and b are roughly [-128,127] for in-gamut colors.
func ToLab(r, g, b uint8) (l, a, bb float64) {
	rl := srgbToLinear(float64(r) / 255.0)
	gl := srgbToLinear(float64(g) / 255.0)
	bl := srgbToLinear(float64(b) / 255.0)

	// Linear RGB to XYZ (sRGB matrix, D65).
	x := 0.4124564*rl + 0.3575761*gl + 0.1804375*bl
	y := 0.2126729*rl + 0.7151522*gl + 0.0721750*bl
	z := 0.0193339*rl + 0.1191920*gl + 0.9503041*bl

	fx := labF(x / whiteX)
	fy := labF(y / whiteY)
	fz := labF(z / whiteZ)

	l = 116*fy - 16
	a = 500 * (fx - fy)
	bb = 200 * (fy - fz)
	return l, a, bb
}

// ToRGB converts CIE L*a*b* (D65) back to 8-bit sRGB.
// Out-of-gamut results are clamped to the channel range.
func ToRGB(l, a, bb float64) (r, g, b uint8) {
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - bb/200

	x := whiteX * labFInv(fx)
	y := whiteY * labFInv(fy)
	z := whiteZ * labFInv(fz)

	// XYZ to linear RGB (inverse sRGB matrix).
	rl := 3.2404542*x - 1.5371385*y - 0.4985314*z
	gl := -0.9692660*x + 1.8760108*y + 0.0415560*z
	bl := 0.0556434*x - 0.2040259*y + 1.0572252*z

	return clampChannel(linearToSRGB(rl)),
		clampChannel(linearToSRGB(gl)),
		clampChannel(linearToSRGB(bl))
}

// clampChannel converts a 0-1 value to a clamped 8-bit channel.
func clampChannel(c float64) uint8 {
	v := math.Round(c * 255.0)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
