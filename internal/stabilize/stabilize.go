package stabilize

import (
	"time"

	"github.com/glowteam/skinscan/internal/constants"
	"github.com/glowteam/skinscan/internal/frame"
	"github.com/glowteam/skinscan/internal/metrics"
)

// Stabilizer blends a fresh record toward a recent anchor from the
// subject's history. It never touches the refinement enrichment fields;
// only scores and the overall value are adjusted.
type Stabilizer struct {
	weights metrics.Weights
}

func New(w metrics.Weights) *Stabilizer {
	return &Stabilizer{weights: w}
}

// Apply returns the stabilized record. The fresh record is not
// modified. With no usable anchor the fresh record passes through as a
// copy.
func (s *Stabilizer) Apply(fresh, anchor *metrics.SkinMetrics) *metrics.SkinMetrics {
	out := fresh.Clone()
	if anchor == nil || !anchor.FaceFound {
		return out
	}

	age := time.Duration(fresh.Timestamp-anchor.Timestamp) * time.Millisecond
	d := damping(age, fresh.StabilityRating)
	if d <= 0 {
		return out
	}

	for _, name := range metrics.MetricNames {
		newV, _ := out.Scores.Get(name)
		oldV, ok := anchor.Scores.Get(name)
		if !ok {
			continue
		}
		delta := newV - oldV
		if delta < 0 {
			delta = -delta
		}
		// A large jump is a real change (new blemish, healed patch);
		// damping must not hide it.
		if delta > constants.LargeChangeThreshold {
			continue
		}
		blended := float64(newV)*(1-d) + float64(oldV)*d
		out.Scores.Set(name, int(blended+0.5))
	}

	out.Overall = metrics.Overall(out.Scores, s.weights)
	return out
}

// damping returns the anchor weight in [0, 1). Rescans inside the
// recent window get strong damping which decays linearly to zero at the
// recency horizon; a high stability rating keeps moderate damping alive
// for older but visually consistent anchors. Anchors from the future or
// past the horizon get none.
func damping(age time.Duration, rating *int) float64 {
	window := time.Duration(constants.RecencyWindowHours) * time.Hour
	if age < 0 || age > window {
		return 0
	}

	recent := time.Duration(constants.RecentRescanMinutes) * time.Minute
	var d float64
	if age <= recent {
		d = constants.RecentRescanDamping
	} else {
		frac := float64(age-recent) / float64(window-recent)
		d = constants.RecentRescanDamping * (1 - frac)
	}

	if rating != nil && *rating >= 0 && *rating <= 100 {
		if sr := constants.MaxStabilityDamping * float64(*rating) / 100; sr > d {
			d = sr
		}
	}
	return d
}

// LocalStability derives a stability rating in [0, 100] from perceptual
// hash distance between the current frame and the anchor's frame. Zero
// distance means an essentially identical capture.
func LocalStability(anchorAHash, anchorDHash string, current frame.Hashes) (int, bool) {
	a, okA := frame.ParseHashHex(anchorAHash)
	d, okD := frame.ParseHashHex(anchorDHash)
	if !okA || !okD {
		return 0, false
	}

	dist := frame.HammingDistance(a, current.AHashBits) +
		frame.HammingDistance(d, current.DHashBits)
	rating := 100 - dist*100/(2*constants.SimilarHashBits)
	if rating < 0 {
		rating = 0
	}
	return rating, true
}
