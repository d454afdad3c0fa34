package frame

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Fingerprint returns the content hash of raw image bytes. Byte-identical
// inputs always map to the same fingerprint, which is what the analysis
// cache keys on.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Hashes holds the perceptual hashes of a frame. Unlike the content
// fingerprint they survive small lighting and framing changes, so Hamming
// distance between them measures how visually similar two scans were.
type Hashes struct {
	AHash string `json:"ahash"` // 64-bit average hash, hex
	DHash string `json:"dhash"` // 64-bit difference hash, hex

	AHashBits uint64 `json:"-"`
	DHashBits uint64 `json:"-"`
}

// PerceptualHashes computes the average and difference hashes of a frame.
func PerceptualHashes(f *Frame) Hashes {
	a := computeAHash(f)
	d := computeDHash(f)
	return Hashes{
		AHash:     fmt.Sprintf("%016x", a),
		DHash:     fmt.Sprintf("%016x", d),
		AHashBits: a,
		DHashBits: d,
	}
}

// HammingDistance counts differing bits between two 64-bit hashes.
func HammingDistance(a, b uint64) int {
	xor := a ^ b
	n := 0
	for xor != 0 {
		n++
		xor &= xor - 1
	}
	return n
}

// ParseHashHex parses a 16-character hex hash back into its bit form.
// Returns 0 and false for malformed input.
func ParseHashHex(s string) (uint64, bool) {
	if len(s) != 16 {
		return 0, false
	}
	var v uint64
	if _, err := fmt.Sscanf(s, "%016x", &v); err != nil {
		return 0, false
	}
	return v, true
}

// computeAHash builds a 64-bit average hash: downscale to 8x8 grayscale,
// set a bit per pixel above the mean.
func computeAHash(f *Frame) uint64 {
	gray := grayGrid(f, 8, 8)

	var sum float64
	for y := range 8 {
		for x := range 8 {
			sum += gray[y][x]
		}
	}
	mean := sum / 64

	var hash uint64
	bit := 63
	for y := range 8 {
		for x := range 8 {
			if gray[y][x] > mean {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

// computeDHash builds a 64-bit difference hash from 9x8 grayscale: one bit
// per horizontal neighbor comparison.
func computeDHash(f *Frame) uint64 {
	gray := grayGrid(f, 9, 8)

	var hash uint64
	bit := 63
	for y := range 8 {
		for x := range 8 {
			if gray[y][x] > gray[y][x+1] {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

// grayGrid downscales a frame to width x height and returns BT.601
// grayscale values indexed as [y][x].
func grayGrid(f *Frame, width, height int) [][]float64 {
	src := &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	gray := make([][]float64, height)
	for y := range height {
		gray[y] = make([]float64, width)
		for x := range width {
			i := (y*width + x) * 4
			r, g, b := dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2]
			gray[y][x] = 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
		}
	}
	return gray
}
