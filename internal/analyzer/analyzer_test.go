package analyzer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/glowteam/skinscan/internal/ai"
	"github.com/glowteam/skinscan/internal/constants"
	"github.com/glowteam/skinscan/internal/history"
	"github.com/glowteam/skinscan/internal/metrics"
)

var (
	skinTone = color.RGBA{205, 150, 125, 255}
	coolBg   = color.RGBA{60, 80, 120, 255}
)

// faceImage renders a frontal-selfie style frame: a skin-colored block
// centered on a contrasting background.
func faceImage(marker uint8) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := range 480 {
		for x := range 640 {
			img.SetRGBA(x, y, coolBg)
		}
	}
	for y := 70; y < 410; y++ {
		for x := 170; x < 470; x++ {
			img.SetRGBA(x, y, skinTone)
		}
	}
	// A marker pixel varies the frame content without moving the face.
	img.SetRGBA(0, 0, color.RGBA{marker, marker, marker, 255})

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// shadowedFaceImage is faceImage with a darkened under-eye band. The
// shadow tone still passes the skin classifier, so the localizer finds
// the same face bounds as for the clean image.
func shadowedFaceImage() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := range 480 {
		for x := range 640 {
			img.SetRGBA(x, y, coolBg)
		}
	}
	for y := 70; y < 410; y++ {
		for x := 170; x < 470; x++ {
			img.SetRGBA(x, y, skinTone)
		}
	}
	shadow := color.RGBA{90, 60, 50, 255}
	for y := 183; y < 240; y++ {
		for x := 170; x < 470; x++ {
			img.SetRGBA(x, y, shadow)
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func solidImage(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := range 480 {
		for x := range 640 {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

type fakeProvider struct {
	refinement *ai.Refinement
	err        error
	delay      time.Duration
	calls      int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) RefineAnalysis(ctx context.Context, _ []byte, _ *metrics.SkinMetrics, _ []*metrics.SkinMetrics) (*ai.Refinement, error) {
	p.calls++
	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.delay):
		}
	}
	return p.refinement, p.err
}

func (p *fakeProvider) GetUsage() *ai.Usage { return &ai.Usage{} }
func (p *fakeProvider) ResetUsage()         {}

func TestAnalyzeFindsFaceAndScores(t *testing.T) {
	a := New(Options{})
	m, err := a.Analyze(context.Background(), faceImage(0), "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !m.FaceFound {
		t.Fatal("face not found in face image")
	}
	if m.ID == "" || m.Fingerprint == "" || m.AHash == "" || m.DHash == "" {
		t.Errorf("identity fields incomplete: %+v", m)
	}
	for _, name := range metrics.MetricNames {
		v, _ := m.Scores.Get(name)
		if v < constants.ScoreFloor || v > constants.ScoreCeil {
			t.Errorf("%s = %d out of bounds", name, v)
		}
	}
	if m.Overall < constants.ScoreFloor || m.Overall > constants.ScoreCeil {
		t.Errorf("overall = %d out of bounds", m.Overall)
	}
}

// Under-eye darkness must survive the whole pipeline: exposure
// normalization runs once per region, and the dark-circles metric reads
// the raw means taken before it.
func TestAnalyzeScoresDarkCircles(t *testing.T) {
	a := New(Options{})

	clean, err := a.Analyze(context.Background(), faceImage(0), "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	shadowed, err := a.Analyze(context.Background(), shadowedFaceImage(), "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !shadowed.FaceFound {
		t.Fatal("face not found in shadowed image")
	}

	if clean.Scores.DarkCircles < 85 {
		t.Errorf("clean face dark circles = %d, want >= 85", clean.Scores.DarkCircles)
	}
	if shadowed.Scores.DarkCircles > 30 {
		t.Errorf("shadowed face dark circles = %d, want <= 30", shadowed.Scores.DarkCircles)
	}
	if shadowed.Scores.DarkCircles >= clean.Scores.DarkCircles {
		t.Errorf("shadowed %d not below clean %d", shadowed.Scores.DarkCircles, clean.Scores.DarkCircles)
	}
}

func TestAnalyzeSameFrameIsMemoized(t *testing.T) {
	a := New(Options{})
	data := faceImage(0)

	first, err := a.Analyze(context.Background(), data, "")
	if err != nil {
		t.Fatalf("first Analyze failed: %v", err)
	}
	second, err := a.Analyze(context.Background(), data, "")
	if err != nil {
		t.Fatalf("second Analyze failed: %v", err)
	}

	if first.Scores != second.Scores || first.Overall != second.Overall {
		t.Errorf("same frame produced different scores: %+v vs %+v", first.Scores, second.Scores)
	}
	if first.ID != second.ID {
		t.Error("memoized result must keep its scan ID")
	}
	if second.Timestamp < first.Timestamp {
		t.Error("memoized result must carry a refreshed timestamp")
	}
}

func TestAnalyzeNoFaceFallsBackToNeutral(t *testing.T) {
	a := New(Options{})
	m, err := a.Analyze(context.Background(), solidImage(coolBg), "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if m.FaceFound {
		t.Fatal("face reported in a solid background image")
	}
	for _, name := range metrics.MetricNames {
		if v, _ := m.Scores.Get(name); v != constants.NeutralScore {
			t.Errorf("%s = %d, want neutral %d", name, v, constants.NeutralScore)
		}
	}
	if m.Overall != constants.NeutralScore {
		t.Errorf("overall = %d, want neutral", m.Overall)
	}
}

func TestAnalyzeInvalidImage(t *testing.T) {
	a := New(Options{})
	if _, err := a.Analyze(context.Background(), []byte("junk"), ""); err == nil {
		t.Error("expected error for undecodable data")
	}
}

func TestAnalyzeAppliesRefinement(t *testing.T) {
	rating := 90
	provider := &fakeProvider{refinement: &ai.Refinement{
		Adjustments:     map[string]int{"hydration": 30},
		SkinAge:         29,
		Summary:         "dry patches around the cheeks",
		StabilityRating: &rating,
	}}
	a := New(Options{Provider: provider})

	m, err := a.Analyze(context.Background(), faceImage(0), "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if provider.calls != 1 {
		t.Fatalf("provider called %d times, want 1", provider.calls)
	}
	if !m.Refined || m.SkinAge != 29 || m.Summary == "" {
		t.Errorf("refinement not merged: %+v", m)
	}
	if m.Scores.Hydration != 30 {
		t.Errorf("hydration = %d, want adjusted 30", m.Scores.Hydration)
	}
	// Hydration is critical; the adjustment must drag the overall down
	// through the weakest-link rule.
	if want := metrics.Overall(m.Scores, metrics.DefaultWeights()); m.Overall != want {
		t.Errorf("overall = %d, want recomputed %d", m.Overall, want)
	}
}

func TestAnalyzeSurvivesRefinementFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model unavailable")}
	a := New(Options{Provider: provider})

	m, err := a.Analyze(context.Background(), faceImage(0), "")
	if err != nil {
		t.Fatalf("Analyze must not fail on refinement errors: %v", err)
	}
	if m.Refined {
		t.Error("record marked refined after provider failure")
	}
	if m.RefineError == "" {
		t.Error("refine error not reported on the record")
	}
}

func TestAnalyzeRefinementTimeout(t *testing.T) {
	provider := &fakeProvider{delay: time.Second}
	a := New(Options{Provider: provider, RefineTimeout: 10 * time.Millisecond})

	start := time.Now()
	m, err := a.Analyze(context.Background(), faceImage(0), "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
	if m.Refined || m.RefineError == "" {
		t.Error("timed-out refinement must fall back to the local result")
	}
}

func TestAnalyzePersistsPerSubject(t *testing.T) {
	store := history.NewMemoryStore()
	a := New(Options{Store: store})

	if _, err := a.Analyze(context.Background(), faceImage(0), "alice"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if _, err := a.Analyze(context.Background(), faceImage(1), "alice"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	recent, err := a.History(context.Background(), "alice", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d history records, want 2", len(recent))
	}
}

func TestAnalyzeStabilizesAgainstAnchor(t *testing.T) {
	ctx := context.Background()
	data := faceImage(0)

	// Baseline run establishes the frame's unstabilized scores.
	baseline, err := New(Options{}).Analyze(ctx, data, "")
	if err != nil {
		t.Fatalf("baseline Analyze failed: %v", err)
	}

	// Seed a history anchor two minutes in the past, with every score
	// nudged slightly away from the baseline.
	anchor := baseline.Clone()
	anchor.ID = "anchor"
	anchor.Timestamp = time.Now().Add(-2 * time.Minute).UnixMilli()
	for _, name := range metrics.MetricNames {
		v, _ := anchor.Scores.Get(name)
		anchor.Scores.Set(name, v-5)
	}

	store := history.NewMemoryStore()
	if err := store.Save(ctx, "alice", anchor); err != nil {
		t.Fatalf("seeding store failed: %v", err)
	}

	a := New(Options{Store: store})
	m, err := a.Analyze(ctx, data, "alice")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// With strong recent damping the result must land on or near the
	// anchor, not on the fresh measurement.
	baseTex := baseline.Scores.Texture
	anchorTex := anchor.Scores.Texture
	if baseTex-anchorTex == 5 {
		got := m.Scores.Texture
		if got == baseTex {
			t.Errorf("texture = %d, damping had no effect (anchor %d)", got, anchorTex)
		}
		if got < anchorTex || got > baseTex {
			t.Errorf("texture = %d outside [%d, %d]", got, anchorTex, baseTex)
		}
	}
	if want := metrics.Overall(m.Scores, metrics.DefaultWeights()); m.Overall != want {
		t.Errorf("overall = %d, want recomputed %d", m.Overall, want)
	}
}

func TestValidateQualityGate(t *testing.T) {
	a := New(Options{})

	v, err := a.Validate(faceImage(0), nil)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if v.Reason == "" {
		t.Error("validation reason missing")
	}

	if _, err := a.Validate([]byte("junk"), nil); err == nil {
		t.Error("expected error for undecodable data")
	}
}
