// Package ai integrates external vision models that refine the locally
// computed skin analysis. Providers are optional collaborators: every
// failure mode degrades to the unrefined local result.
package ai

import (
	"context"

	"github.com/glowteam/skinscan/internal/metrics"
)

// Provider defines the interface for refinement backends.
type Provider interface {
	Name() string

	// RefineAnalysis sends the frame and the locally computed scores to
	// the model and returns its adjustments. The history excerpt gives
	// the model the subject's recent trajectory for a stability opinion.
	RefineAnalysis(
		ctx context.Context,
		imageData []byte,
		base *metrics.SkinMetrics,
		history []*metrics.SkinMetrics,
	) (*Refinement, error)

	// Usage tracking.
	GetUsage() *Usage
	ResetUsage()
}

// Usage tracks token usage and calculates cost.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalCost    float64 // in USD
}

// RequestPricing holds input/output prices per 1M tokens.
type RequestPricing struct {
	Input  float64
	Output float64
}

// Refinement is the model's response. Adjustments are keyed by the
// canonical metric names; absent metrics keep their local score.
type Refinement struct {
	Adjustments     map[string]int    `json:"adjustments"`
	SkinAge         int               `json:"skin_age"`
	Summary         string            `json:"summary"`
	Observations    map[string]string `json:"observations"`
	StabilityRating *int              `json:"stability_rating"`
}
