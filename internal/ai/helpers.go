package ai

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/glowteam/skinscan/internal/metrics"
)

//go:embed prompts/skin_refinement.txt
var skinRefinementPrompt string

// maxHistoryEntries bounds the history excerpt sent to the model.
const maxHistoryEntries = 5

// buildRefinementPrompt returns the embedded system prompt.
func buildRefinementPrompt() string {
	return skinRefinementPrompt
}

// buildRefinementContent builds the user message: the local scores plus
// a compact excerpt of the subject's recent records. Shared across all
// providers.
func buildRefinementContent(base *metrics.SkinMetrics, history []*metrics.SkinMetrics) string {
	var b strings.Builder

	b.WriteString("Local heuristic scores:\n")
	for _, name := range metrics.MetricNames {
		if v, ok := base.Scores.Get(name); ok {
			fmt.Fprintf(&b, "- %s: %d\n", name, v)
		}
	}
	fmt.Fprintf(&b, "- overall: %d\n", base.Overall)

	if len(history) == 0 {
		return b.String()
	}

	b.WriteString("\nRecent history (newest first):\n")
	n := len(history)
	if n > maxHistoryEntries {
		n = maxHistoryEntries
	}
	for i := range n {
		h := history[i]
		ts := time.UnixMilli(h.Timestamp).UTC().Format("2006-01-02 15:04")
		fmt.Fprintf(&b, "%d. %s overall=%d acne_active=%d redness=%d texture=%d hydration=%d\n",
			i+1, ts, h.Overall,
			h.Scores.AcneActive, h.Scores.Redness, h.Scores.Texture, h.Scores.Hydration)
	}
	return b.String()
}

// MergeRefinement applies a model response onto a record. Adjustments
// for unknown metrics are dropped, scores are clamped, and the
// stability rating is accepted only within [0, 100]. The record is
// modified in place.
func MergeRefinement(m *metrics.SkinMetrics, r *Refinement) {
	if r == nil {
		return
	}

	for name, v := range r.Adjustments {
		m.Scores.Set(name, v) // rejects unknown names, clamps known ones
	}

	if r.SkinAge > 0 && r.SkinAge < 120 {
		m.SkinAge = r.SkinAge
	}
	if r.Summary != "" {
		m.Summary = r.Summary
	}
	if len(r.Observations) > 0 {
		m.Observations = make(map[string]string, len(r.Observations))
		for k, v := range r.Observations {
			if _, ok := m.Scores.Get(k); ok {
				m.Observations[k] = v
			}
		}
	}
	if r.StabilityRating != nil && *r.StabilityRating >= 0 && *r.StabilityRating <= 100 {
		rating := *r.StabilityRating
		m.StabilityRating = &rating
	}

	m.Refined = true
}
