package metrics

import (
	_ "embed"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/glowteam/skinscan/internal/constants"
)

//go:embed weights.yaml
var weightsYaml []byte

// Weights drives the aggregation of per-attribute scores into the
// overall result.
type Weights struct {
	Metrics     map[string]float64 `yaml:"metrics"`
	WeakestLink struct {
		Critical  []string `yaml:"critical"`
		Threshold int      `yaml:"threshold"`
		Ceiling   int      `yaml:"ceiling"`
		PenaltyK  float64  `yaml:"penalty_k"`
	} `yaml:"weakest_link"`
	Derived struct {
		SaggingJawWeight float64 `yaml:"sagging_jaw_weight"`
	} `yaml:"derived"`
}

// DefaultWeights parses the embedded weight table. The table ships with
// the binary; a parse failure is a build defect, so it panics.
func DefaultWeights() Weights {
	w, err := ParseWeights(weightsYaml)
	if err != nil {
		panic(fmt.Sprintf("embedded weights table: %v", err))
	}
	return w
}

// ParseWeights loads a weight table from YAML and validates it.
func ParseWeights(data []byte) (Weights, error) {
	var w Weights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("could not parse weights: %w", err)
	}

	var sum float64
	for _, name := range MetricNames {
		v, ok := w.Metrics[name]
		if !ok {
			return Weights{}, fmt.Errorf("weights missing metric %q", name)
		}
		if v < 0 {
			return Weights{}, fmt.Errorf("negative weight for %q", name)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 0.001 {
		return Weights{}, fmt.Errorf("metric weights sum to %.3f, want 1.0", sum)
	}

	for _, name := range w.WeakestLink.Critical {
		if _, ok := w.Metrics[name]; !ok {
			return Weights{}, fmt.Errorf("unknown critical metric %q", name)
		}
	}
	if w.Derived.SaggingJawWeight < 0 || w.Derived.SaggingJawWeight > 1 {
		return Weights{}, fmt.Errorf("sagging_jaw_weight %.2f out of [0,1]", w.Derived.SaggingJawWeight)
	}
	return w, nil
}

// Aggregate finalizes a score set and computes the overall result. The
// raw jaw-contour sagging value is blended with fine wrinkles first,
// then the weighted average is taken and the weakest-link rule applied.
func Aggregate(s Scores, w Weights) (Scores, int) {
	jw := w.Derived.SaggingJawWeight
	blended := float64(s.Sagging)*jw + float64(s.WrinkleFine)*(1-jw)
	s.Sagging = clampFloat(blended)

	return s, Overall(s, w)
}

// Overall computes the weighted average with the weakest-link rule over
// already-finalized scores. Callers that adjust individual attributes
// after Aggregate use this to keep the overall value consistent.
func Overall(s Scores, w Weights) int {
	var acc float64
	for _, name := range MetricNames {
		v, _ := s.Get(name)
		acc += float64(v) * w.Metrics[name]
	}
	overall := clampFloat(acc)

	// Weakest link: one critical attribute in trouble drags the whole
	// result down no matter how good the rest looks.
	weakest := constants.ScoreCeil + 1
	for _, name := range w.WeakestLink.Critical {
		if v, ok := s.Get(name); ok && v < weakest {
			weakest = v
		}
	}
	if weakest < w.WeakestLink.Threshold {
		penalty := float64(w.WeakestLink.Threshold-weakest) * w.WeakestLink.PenaltyK
		ceiling := clampFloat(float64(w.WeakestLink.Ceiling) - penalty)
		if overall > ceiling {
			overall = ceiling
		}
	}

	return ClampScore(overall)
}
