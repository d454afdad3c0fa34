// Package metrics scores normalized skin regions and aggregates the
// per-attribute results into one record. Every algorithm is a pure
// function of pixel statistics and fixed constants; scores are clamped
// before they leave this package.
package metrics

import (
	"time"

	"github.com/glowteam/skinscan/internal/constants"
)

// Scores holds one bounded integer per tracked attribute. Higher is
// healthier; every value stays within [ScoreFloor, ScoreCeil].
type Scores struct {
	AcneActive   int `json:"acne_active"`
	AcneScars    int `json:"acne_scars"`
	PoreSize     int `json:"pore_size"`
	Blackheads   int `json:"blackheads"`
	WrinkleFine  int `json:"wrinkle_fine"`
	WrinkleDeep  int `json:"wrinkle_deep"`
	Sagging      int `json:"sagging"`
	Pigmentation int `json:"pigmentation"`
	Redness      int `json:"redness"`
	Texture      int `json:"texture"`
	Hydration    int `json:"hydration"`
	Oiliness     int `json:"oiliness"`
	DarkCircles  int `json:"dark_circles"`
}

// MetricNames lists the attribute keys in canonical order. The names
// match the JSON field names and the weight table keys.
var MetricNames = []string{
	"acne_active", "acne_scars", "pore_size", "blackheads",
	"wrinkle_fine", "wrinkle_deep", "sagging", "pigmentation",
	"redness", "texture", "hydration", "oiliness", "dark_circles",
}

// Get returns the score for a canonical metric name.
func (s *Scores) Get(name string) (int, bool) {
	switch name {
	case "acne_active":
		return s.AcneActive, true
	case "acne_scars":
		return s.AcneScars, true
	case "pore_size":
		return s.PoreSize, true
	case "blackheads":
		return s.Blackheads, true
	case "wrinkle_fine":
		return s.WrinkleFine, true
	case "wrinkle_deep":
		return s.WrinkleDeep, true
	case "sagging":
		return s.Sagging, true
	case "pigmentation":
		return s.Pigmentation, true
	case "redness":
		return s.Redness, true
	case "texture":
		return s.Texture, true
	case "hydration":
		return s.Hydration, true
	case "oiliness":
		return s.Oiliness, true
	case "dark_circles":
		return s.DarkCircles, true
	}
	return 0, false
}

// Set assigns the score for a canonical metric name, clamped to bounds.
func (s *Scores) Set(name string, v int) bool {
	v = ClampScore(v)
	switch name {
	case "acne_active":
		s.AcneActive = v
	case "acne_scars":
		s.AcneScars = v
	case "pore_size":
		s.PoreSize = v
	case "blackheads":
		s.Blackheads = v
	case "wrinkle_fine":
		s.WrinkleFine = v
	case "wrinkle_deep":
		s.WrinkleDeep = v
	case "sagging":
		s.Sagging = v
	case "pigmentation":
		s.Pigmentation = v
	case "redness":
		s.Redness = v
	case "texture":
		s.Texture = v
	case "hydration":
		s.Hydration = v
	case "oiliness":
		s.Oiliness = v
	case "dark_circles":
		s.DarkCircles = v
	default:
		return false
	}
	return true
}

// SkinMetrics is the aggregate record of one analysis pass. Immutable
// once produced; a new scan always produces a new record.
type SkinMetrics struct {
	ID        string `json:"id"`
	Scores    Scores `json:"scores"`
	Overall   int    `json:"overall"`
	Timestamp int64  `json:"timestamp"` // epoch millis

	// FaceFound is false for the neutral-default record produced when
	// localization fails.
	FaceFound bool `json:"face_found"`

	// Fingerprint and the perceptual hashes identify the source frame;
	// the stabilizer uses them for memoization and visual similarity.
	Fingerprint string `json:"fingerprint,omitempty"`
	AHash       string `json:"ahash,omitempty"`
	DHash       string `json:"dhash,omitempty"`

	// Enrichment from the external refinement collaborator. Optional.
	SkinAge         int               `json:"skin_age,omitempty"`
	Summary         string            `json:"summary,omitempty"`
	Observations    map[string]string `json:"observations,omitempty"`
	StabilityRating *int              `json:"stability_rating,omitempty"`

	// Soft status of the refinement call (never a hard failure).
	Refined     bool   `json:"refined"`
	RefineError string `json:"refine_error,omitempty"`
}

// Clone returns a deep copy of the record.
func (m *SkinMetrics) Clone() *SkinMetrics {
	cp := *m
	if m.Observations != nil {
		cp.Observations = make(map[string]string, len(m.Observations))
		for k, v := range m.Observations {
			cp.Observations[k] = v
		}
	}
	if m.StabilityRating != nil {
		r := *m.StabilityRating
		cp.StabilityRating = &r
	}
	return &cp
}

// Neutral returns the documented fallback record used when no face is
// found: every attribute at the neutral midpoint.
func Neutral(now time.Time) *SkinMetrics {
	n := constants.NeutralScore
	return &SkinMetrics{
		Scores: Scores{
			AcneActive: n, AcneScars: n, PoreSize: n, Blackheads: n,
			WrinkleFine: n, WrinkleDeep: n, Sagging: n, Pigmentation: n,
			Redness: n, Texture: n, Hydration: n, Oiliness: n, DarkCircles: n,
		},
		Overall:   n,
		Timestamp: now.UnixMilli(),
		FaceFound: false,
	}
}

// ClampScore forces a value into the declared score bounds.
func ClampScore(v int) int {
	if v < constants.ScoreFloor {
		return constants.ScoreFloor
	}
	if v > constants.ScoreCeil {
		return constants.ScoreCeil
	}
	return v
}

func clampFloat(v float64) int {
	return ClampScore(int(v + 0.5))
}
