package stabilize

import (
	"testing"
	"time"

	"github.com/glowteam/skinscan/internal/frame"
	"github.com/glowteam/skinscan/internal/metrics"
)

func record(score int, ts time.Time) *metrics.SkinMetrics {
	m := &metrics.SkinMetrics{Timestamp: ts.UnixMilli(), FaceFound: true}
	for _, name := range metrics.MetricNames {
		m.Scores.Set(name, score)
	}
	m.Overall = score
	return m
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	if _, ok := c.Get("missing"); ok {
		t.Fatal("empty cache returned an entry")
	}

	now := time.Now()
	c.Put("fp1", record(70, now))
	got, ok := c.Get("fp1")
	if !ok {
		t.Fatal("stored entry not found")
	}
	if got.Overall != 70 {
		t.Errorf("overall = %d, want 70", got.Overall)
	}

	// Returned copies must not leak back into the cache.
	got.Overall = 10
	again, _ := c.Get("fp1")
	if again.Overall != 70 {
		t.Errorf("cache mutated through returned copy: overall = %d", again.Overall)
	}
}

func TestMemoryCacheWriteOnce(t *testing.T) {
	c := NewMemoryCache()
	now := time.Now()
	c.Put("fp", record(70, now))
	c.Put("fp", record(30, now))

	got, _ := c.Get("fp")
	if got.Overall != 70 {
		t.Errorf("second Put replaced the entry: overall = %d, want 70", got.Overall)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}

	c.Put("", record(50, now))
	if c.Len() != 1 {
		t.Error("empty fingerprint must not be stored")
	}
}

func TestApplyDampsSmallRecentChanges(t *testing.T) {
	s := New(metrics.DefaultWeights())
	now := time.Now()
	anchor := record(70, now.Add(-2*time.Minute))
	fresh := record(72, now)

	out := s.Apply(fresh, anchor)
	// 0.9 damping pulls 72 almost all the way back to 70.
	if out.Scores.Texture != 70 {
		t.Errorf("texture = %d, want 70", out.Scores.Texture)
	}
	if fresh.Scores.Texture != 72 {
		t.Error("Apply modified its input")
	}
}

func TestApplyKeepsLargeChanges(t *testing.T) {
	s := New(metrics.DefaultWeights())
	now := time.Now()
	anchor := record(70, now.Add(-2*time.Minute))
	fresh := record(40, now)

	out := s.Apply(fresh, anchor)
	if out.Scores.AcneActive != 40 {
		t.Errorf("acne_active = %d, a 30-point drop must pass through", out.Scores.AcneActive)
	}
}

func TestApplyRecomputesOverall(t *testing.T) {
	w := metrics.DefaultWeights()
	s := New(w)
	now := time.Now()
	anchor := record(70, now.Add(-2*time.Minute))
	fresh := record(75, now)

	out := s.Apply(fresh, anchor)
	if want := metrics.Overall(out.Scores, w); out.Overall != want {
		t.Errorf("overall = %d, want recomputed %d", out.Overall, want)
	}
}

func TestApplyIgnoresUnusableAnchors(t *testing.T) {
	s := New(metrics.DefaultWeights())
	now := time.Now()
	fresh := record(72, now)

	tests := []struct {
		name   string
		anchor *metrics.SkinMetrics
	}{
		{"nil anchor", nil},
		{"beyond recency window", record(60, now.Add(-49 * time.Hour))},
		{"future timestamp", record(60, now.Add(time.Hour))},
		{"no face in anchor", func() *metrics.SkinMetrics {
			m := record(60, now.Add(-time.Minute))
			m.FaceFound = false
			return m
		}()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := s.Apply(fresh, tc.anchor)
			if out.Scores != fresh.Scores {
				t.Errorf("scores changed: %+v", out.Scores)
			}
		})
	}
}

func TestDampingDecay(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"immediate rescan", time.Minute, 0.90},
		{"recent window edge", 15 * time.Minute, 0.90},
		{"future", -time.Minute, 0},
		{"past the horizon", 49 * time.Hour, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := damping(tc.age, nil); got != tc.want {
				t.Errorf("damping(%v) = %v, want %v", tc.age, got, tc.want)
			}
		})
	}

	d6 := damping(6*time.Hour, nil)
	d24 := damping(24*time.Hour, nil)
	if !(d6 > d24 && d24 > 0) {
		t.Errorf("damping must decay with age: 6h=%v 24h=%v", d6, d24)
	}
}

func TestDampingStabilityRatingFloor(t *testing.T) {
	rating := 100
	d := damping(40*time.Hour, &rating)
	if d != 0.60 {
		t.Errorf("old anchor with perfect stability rating: damping = %v, want 0.60", d)
	}

	low := 10
	if got := damping(time.Minute, &low); got != 0.90 {
		t.Errorf("low rating must not reduce recent damping: got %v", got)
	}

	bad := 150
	if got := damping(40*time.Hour, &bad); got >= 0.60 {
		t.Errorf("out-of-range rating must be ignored: got %v", got)
	}
}

func TestLocalStability(t *testing.T) {
	same := frame.Hashes{
		AHash: "ffff0000ffff0000", DHash: "0123456789abcdef",
		AHashBits: 0xffff0000ffff0000, DHashBits: 0x0123456789abcdef,
	}
	rating, ok := LocalStability(same.AHash, same.DHash, same)
	if !ok || rating != 100 {
		t.Errorf("identical hashes: rating = %d ok = %v, want 100 true", rating, ok)
	}

	far := frame.Hashes{AHashBits: ^same.AHashBits, DHashBits: ^same.DHashBits}
	rating, ok = LocalStability(same.AHash, same.DHash, far)
	if !ok || rating != 0 {
		t.Errorf("opposite hashes: rating = %d ok = %v, want 0 true", rating, ok)
	}

	if _, ok := LocalStability("not-hex", same.DHash, same); ok {
		t.Error("malformed anchor hash must not produce a rating")
	}
}
