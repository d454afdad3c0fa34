package frame

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, c)
		}
	}
	return img
}

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			v := uint8((x + y) * 255 / (w + h))
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	data := encodeJPEG(t, solidImage(120, 90, color.White))

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f.Width != 120 || f.Height != 90 {
		t.Errorf("got %dx%d, want 120x90", f.Width, f.Height)
	}
	if len(f.Pix) != 120*90*4 {
		t.Errorf("pixel buffer length %d, want %d", len(f.Pix), 120*90*4)
	}
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradientImage(64, 64)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if _, err := Decode(buf.Bytes()); err != nil {
		t.Fatalf("Decode png failed: %v", err)
	}
}

func TestDecodeDownscalesLargeFrames(t *testing.T) {
	data := encodeJPEG(t, solidImage(2560, 1440, color.White))

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f.Width > 1280 || f.Height > 1280 {
		t.Errorf("frame not downscaled: %dx%d", f.Width, f.Height)
	}
	// Aspect ratio preserved within rounding.
	want := 2560.0 / 1440.0
	got := float64(f.Width) / float64(f.Height)
	if math.Abs(got-want) > 0.02 {
		t.Errorf("aspect ratio %f, want %f", got, want)
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected error for invalid image data")
	}
}

func TestLuminanceAt(t *testing.T) {
	f := FromImage(solidImage(10, 10, color.RGBA{255, 0, 0, 255}))

	// Pure red: 0.299 * 255.
	want := 0.299 * 255
	got := f.LuminanceAt(5, 5)
	if math.Abs(got-want) > 1.5 {
		t.Errorf("luminance = %.2f, want ~%.2f", got, want)
	}
}

func TestMeanLuminance(t *testing.T) {
	bright := FromImage(solidImage(100, 100, color.White))
	dark := FromImage(solidImage(100, 100, color.Black))

	if m := bright.MeanLuminance(); m < 250 {
		t.Errorf("white frame mean luminance %.1f, want ~255", m)
	}
	if m := dark.MeanLuminance(); m > 5 {
		t.Errorf("black frame mean luminance %.1f, want ~0", m)
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	data := encodeJPEG(t, gradientImage(50, 50))

	fp1 := Fingerprint(data)
	fp2 := Fingerprint(data)
	if fp1 != fp2 {
		t.Errorf("fingerprint not deterministic: %s vs %s", fp1, fp2)
	}
	if len(fp1) != 64 {
		t.Errorf("fingerprint length %d, want 64 hex chars", len(fp1))
	}

	other := Fingerprint(append(data, 0))
	if other == fp1 {
		t.Error("different bytes produced the same fingerprint")
	}
}

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0x0, 0x0, 0},
		{"all bits", 0xFFFFFFFFFFFFFFFF, 0x0, 64},
		{"one bit", 0x1, 0x0, 1},
		{"alternating", 0xAAAAAAAAAAAAAAAA, 0x5555555555555555, 64},
		{"half", 0xFFFFFFFF00000000, 0x0, 32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HammingDistance(tc.a, tc.b); got != tc.want {
				t.Errorf("HammingDistance(%x, %x) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestPerceptualHashesConsistency(t *testing.T) {
	f := FromImage(gradientImage(100, 100))

	h1 := PerceptualHashes(f)
	h2 := PerceptualHashes(f)
	if h1.AHash != h2.AHash || h1.DHash != h2.DHash {
		t.Errorf("hashes not consistent: %+v vs %+v", h1, h2)
	}
	if len(h1.AHash) != 16 || len(h1.DHash) != 16 {
		t.Errorf("hash hex length wrong: %q %q", h1.AHash, h1.DHash)
	}
}

func TestPerceptualHashesSimilarUnderBrightness(t *testing.T) {
	// The same gradient at two brightness levels should stay within the
	// visual-similarity band; the stabilizer relies on that.
	base := gradientImage(100, 100)
	brighter := image.NewRGBA(base.Bounds())
	for i := 0; i < len(base.Pix); i += 4 {
		for c := range 3 {
			v := int(base.Pix[i+c]) + 30
			if v > 255 {
				v = 255
			}
			brighter.Pix[i+c] = uint8(v)
		}
		brighter.Pix[i+3] = 255
	}

	h1 := PerceptualHashes(FromImage(base))
	h2 := PerceptualHashes(FromImage(brighter))
	if d := HammingDistance(h1.DHashBits, h2.DHashBits); d > 10 {
		t.Errorf("dHash distance %d between brightness variants, want <= 10", d)
	}
}

func TestParseHashHex(t *testing.T) {
	f := FromImage(gradientImage(80, 80))
	h := PerceptualHashes(f)

	v, ok := ParseHashHex(h.DHash)
	if !ok {
		t.Fatalf("ParseHashHex(%q) failed", h.DHash)
	}
	if v != h.DHashBits {
		t.Errorf("parsed %x, want %x", v, h.DHashBits)
	}

	if _, ok := ParseHashHex("nope"); ok {
		t.Error("expected failure for malformed hash")
	}
}
