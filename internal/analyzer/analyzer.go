// Package analyzer wires the full scan pipeline: decode, localize,
// score, refine, stabilize, persist. It is the single entry point the
// CLI and the web server share.
package analyzer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/glowteam/skinscan/internal/ai"
	"github.com/glowteam/skinscan/internal/constants"
	"github.com/glowteam/skinscan/internal/facefind"
	"github.com/glowteam/skinscan/internal/frame"
	"github.com/glowteam/skinscan/internal/history"
	"github.com/glowteam/skinscan/internal/metrics"
	"github.com/glowteam/skinscan/internal/regions"
	"github.com/glowteam/skinscan/internal/stabilize"
)

// Options configures an Analyzer. Zero-value fields fall back to
// defaults; Provider and Store are optional collaborators.
type Options struct {
	Localizer     facefind.Localizer
	Weights       *metrics.Weights
	Cache         stabilize.CacheStore
	Store         history.Store
	Provider      ai.Provider
	RefineTimeout time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

type Analyzer struct {
	localizer     facefind.Localizer
	weights       metrics.Weights
	cache         stabilize.CacheStore
	stabilizer    *stabilize.Stabilizer
	store         history.Store
	provider      ai.Provider
	refineTimeout time.Duration
	now           func() time.Time
}

func New(opts Options) *Analyzer {
	a := &Analyzer{
		localizer:     opts.Localizer,
		cache:         opts.Cache,
		store:         opts.Store,
		provider:      opts.Provider,
		refineTimeout: opts.RefineTimeout,
		now:           opts.Now,
	}
	if a.localizer == nil {
		a.localizer = facefind.NewSkinGrid()
	}
	if opts.Weights != nil {
		a.weights = *opts.Weights
	} else {
		a.weights = metrics.DefaultWeights()
	}
	if a.cache == nil {
		a.cache = stabilize.NewMemoryCache()
	}
	if a.refineTimeout <= 0 {
		a.refineTimeout = 4 * time.Second
	}
	if a.now == nil {
		a.now = time.Now
	}
	a.stabilizer = stabilize.New(a.weights)
	return a
}

// Analyze runs the full pipeline on one frame. subjectKey selects the
// history used for anchoring and persistence; an empty key disables
// both. Refinement and persistence failures degrade the result instead
// of failing it; only an undecodable frame is an error.
func (a *Analyzer) Analyze(ctx context.Context, imageData []byte, subjectKey string) (*metrics.SkinMetrics, error) {
	fingerprint := frame.Fingerprint(imageData)

	// Byte-identical frames always yield identical scores, only the
	// timestamp moves.
	if cached, ok := a.cache.Get(fingerprint); ok {
		cached.Timestamp = a.now().UnixMilli()
		return cached, nil
	}

	f, err := frame.Decode(imageData)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	bounds := a.localizer.Locate(f)
	if !bounds.Found() {
		m := metrics.Neutral(a.now())
		m.ID = uuid.NewString()
		m.Fingerprint = fingerprint
		a.cache.Put(fingerprint, m)
		return m, nil
	}

	// Extract normalizes each region exactly once; normalizing again
	// would overwrite the raw means the dark-circles metric reads.
	set := regions.Extract(f, bounds)

	scores := metrics.Compute(set)
	scores, overall := metrics.Aggregate(scores, a.weights)

	hashes := frame.PerceptualHashes(f)
	m := &metrics.SkinMetrics{
		ID:          uuid.NewString(),
		Scores:      scores,
		Overall:     overall,
		Timestamp:   a.now().UnixMilli(),
		FaceFound:   true,
		Fingerprint: fingerprint,
		AHash:       hashes.AHash,
		DHash:       hashes.DHash,
	}

	anchor, recent := a.loadHistory(ctx, subjectKey)
	a.refine(ctx, imageData, m, recent)
	a.rateStability(m, anchor, hashes)

	m = a.stabilizer.Apply(m, anchor)

	a.cache.Put(fingerprint, m)
	if a.store != nil && subjectKey != "" {
		if err := a.store.Save(ctx, subjectKey, m); err != nil {
			log.Printf("Warning: failed to persist scan %s: %v", m.ID, err)
		}
	}
	return m, nil
}

// Validate runs the frame quality gate without scoring. prev is the
// face center of the preceding frame, for drift detection.
func (a *Analyzer) Validate(imageData []byte, prev *facefind.Point) (facefind.Validation, error) {
	f, err := frame.Decode(imageData)
	if err != nil {
		return facefind.Validation{}, fmt.Errorf("decode frame: %w", err)
	}
	return facefind.ValidateFrame(f, prev, a.localizer), nil
}

// History returns the subject's recent records, newest first.
func (a *Analyzer) History(ctx context.Context, subjectKey string, limit int) ([]*metrics.SkinMetrics, error) {
	if a.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	return a.store.Recent(ctx, subjectKey, limit)
}

// loadHistory fetches the stabilization anchor and the recent records
// for the refinement prompt. Store failures are soft.
func (a *Analyzer) loadHistory(ctx context.Context, subjectKey string) (*metrics.SkinMetrics, []*metrics.SkinMetrics) {
	if a.store == nil || subjectKey == "" {
		return nil, nil
	}

	window := time.Duration(constants.RecencyWindowHours) * time.Hour
	anchor, err := a.store.LatestWithin(ctx, subjectKey, window)
	if err != nil {
		log.Printf("Warning: failed to load history anchor: %v", err)
		anchor = nil
	}

	recent, err := a.store.Recent(ctx, subjectKey, constants.DefaultHistoryLimit)
	if err != nil {
		log.Printf("Warning: failed to load history: %v", err)
		recent = nil
	}
	return anchor, recent
}

// refine asks the external provider for adjustments, bounded by the
// refinement timeout. Any failure leaves the local result standing and
// is reported on the record, never as an error.
func (a *Analyzer) refine(ctx context.Context, imageData []byte, m *metrics.SkinMetrics, recent []*metrics.SkinMetrics) {
	if a.provider == nil {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, a.refineTimeout)
	defer cancel()

	refinement, err := a.provider.RefineAnalysis(rctx, imageData, m, recent)
	if err != nil {
		m.RefineError = err.Error()
		return
	}

	ai.MergeRefinement(m, refinement)
	// Adjustments may have moved critical metrics.
	m.Overall = metrics.Overall(m.Scores, a.weights)
}

// rateStability fills in the stability rating. The refinement rating
// and the local perceptual-hash rating are both opinions on the same
// question; the more pessimistic one wins.
func (a *Analyzer) rateStability(m *metrics.SkinMetrics, anchor *metrics.SkinMetrics, hashes frame.Hashes) {
	if anchor == nil {
		return
	}
	local, ok := stabilize.LocalStability(anchor.AHash, anchor.DHash, hashes)
	if !ok {
		return
	}
	if m.StabilityRating == nil || local < *m.StabilityRating {
		m.StabilityRating = &local
	}
}
