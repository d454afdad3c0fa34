package metrics

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/glowteam/skinscan/internal/constants"
	"github.com/glowteam/skinscan/internal/facefind"
	"github.com/glowteam/skinscan/internal/frame"
	"github.com/glowteam/skinscan/internal/regions"
)

func allScores(v int) Scores {
	var s Scores
	for _, name := range MetricNames {
		s.Set(name, v)
	}
	return s
}

func TestDefaultWeightsValid(t *testing.T) {
	w := DefaultWeights()

	var sum float64
	for _, name := range MetricNames {
		v, ok := w.Metrics[name]
		if !ok {
			t.Fatalf("missing weight for %q", name)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 0.001 {
		t.Errorf("weights sum to %.4f, want 1.0", sum)
	}

	if len(w.WeakestLink.Critical) == 0 {
		t.Error("no critical metrics configured")
	}
	if w.WeakestLink.Threshold <= constants.ScoreFloor {
		t.Errorf("threshold %d too low", w.WeakestLink.Threshold)
	}
}

func TestParseWeightsRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "{{"},
		{"missing metric", "metrics:\n  acne_active: 1.0\n"},
		{
			"bad sum",
			"metrics:\n  acne_active: 0.5\n  acne_scars: 0.5\n  pore_size: 0.5\n" +
				"  blackheads: 0.0\n  wrinkle_fine: 0.0\n  wrinkle_deep: 0.0\n" +
				"  sagging: 0.0\n  pigmentation: 0.0\n  redness: 0.0\n" +
				"  texture: 0.0\n  hydration: 0.0\n  oiliness: 0.0\n  dark_circles: 0.0\n",
		},
		{
			"unknown critical",
			"metrics:\n  acne_active: 1.0\n  acne_scars: 0.0\n  pore_size: 0.0\n" +
				"  blackheads: 0.0\n  wrinkle_fine: 0.0\n  wrinkle_deep: 0.0\n" +
				"  sagging: 0.0\n  pigmentation: 0.0\n  redness: 0.0\n" +
				"  texture: 0.0\n  hydration: 0.0\n  oiliness: 0.0\n  dark_circles: 0.0\n" +
				"weakest_link:\n  critical: [glow]\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseWeights([]byte(tc.yaml)); err == nil {
				t.Error("expected parse error, got nil")
			}
		})
	}
}

func TestAggregateUniformScores(t *testing.T) {
	w := DefaultWeights()
	_, overall := Aggregate(allScores(80), w)
	if overall != 80 {
		t.Errorf("uniform 80 aggregated to %d, want 80", overall)
	}
}

func TestAggregateSaggingBlend(t *testing.T) {
	w := DefaultWeights()
	s := allScores(80)
	s.Sagging = 40
	s.WrinkleFine = 90

	final, _ := Aggregate(s, w)
	jw := w.Derived.SaggingJawWeight
	want := ClampScore(int(40*jw + 90*(1-jw) + 0.5))
	if final.Sagging != want {
		t.Errorf("blended sagging = %d, want %d", final.Sagging, want)
	}
}

func TestAggregateWeakestLinkCap(t *testing.T) {
	w := DefaultWeights()
	s := allScores(90)
	s.Hydration = 30

	_, overall := Aggregate(s, w)
	// One critical attribute at 30 caps the result at
	// ceiling - (threshold-30) * k regardless of the strong rest.
	wantCap := int(float64(w.WeakestLink.Ceiling) -
		float64(w.WeakestLink.Threshold-30)*w.WeakestLink.PenaltyK)
	if overall != wantCap {
		t.Errorf("overall = %d, want cap %d", overall, wantCap)
	}
}

// The weakest-link rule must also hold for scores produced by the real
// measurement path, not only for hand-built score sets: a heavily
// inflamed complexion drives redness under the threshold through
// Extract and Compute, and the cap binds.
func TestAggregateWeakestLinkFromInflamedFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	inflamed := color.RGBA{200, 80, 80, 255}
	for y := range 480 {
		for x := range 640 {
			img.SetRGBA(x, y, inflamed)
		}
	}

	f := frame.FromImage(img)
	set := regions.Extract(f, facefind.Bounds{CX: 320, CY: 240, Width: 300, Height: 405})
	s := Compute(set)

	if s.Redness >= 50 {
		t.Fatalf("redness = %d for an inflamed complexion, want < 50", s.Redness)
	}

	w := DefaultWeights()
	final, overall := Aggregate(s, w)

	weakest := constants.ScoreCeil
	for _, name := range w.WeakestLink.Critical {
		if v, _ := final.Get(name); v < weakest {
			weakest = v
		}
	}
	if weakest != final.Redness {
		t.Fatalf("weakest critical = %d, want redness %d", weakest, final.Redness)
	}
	want := ClampScore(int(float64(w.WeakestLink.Ceiling) -
		float64(w.WeakestLink.Threshold-weakest)*w.WeakestLink.PenaltyK + 0.5))
	if overall != want {
		t.Errorf("overall = %d, want capped %d", overall, want)
	}
}

func TestAggregateNonCriticalLowScoreDoesNotCap(t *testing.T) {
	w := DefaultWeights()
	s := allScores(90)
	s.DarkCircles = 20

	_, overall := Aggregate(s, w)
	if overall <= w.WeakestLink.Ceiling {
		t.Errorf("overall = %d, non-critical metric should not trigger the cap", overall)
	}
}

func TestAggregateCriticalAtThresholdNotCapped(t *testing.T) {
	w := DefaultWeights()
	s := allScores(90)
	s.Texture = w.WeakestLink.Threshold

	_, overall := Aggregate(s, w)
	if overall <= w.WeakestLink.Ceiling {
		t.Errorf("overall = %d, score exactly at threshold must not trigger the cap", overall)
	}
}

func TestAggregateMonotonicInCriticalMetric(t *testing.T) {
	w := DefaultWeights()
	prev := constants.ScoreCeil + 1
	for v := constants.ScoreCeil; v >= constants.ScoreFloor; v -= 5 {
		s := allScores(85)
		s.AcneActive = v
		_, overall := Aggregate(s, w)
		if overall > prev {
			t.Fatalf("overall rose to %d when acne_active dropped to %d", overall, v)
		}
		assertBounded(t, "overall", overall)
		prev = overall
	}
}

func TestAggregateBounds(t *testing.T) {
	w := DefaultWeights()
	for _, v := range []int{constants.ScoreFloor, constants.NeutralScore, constants.ScoreCeil} {
		_, overall := Aggregate(allScores(v), w)
		assertBounded(t, "overall", overall)
	}
}
