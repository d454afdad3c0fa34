package facefind

import (
	"math"

	"github.com/glowteam/skinscan/internal/constants"
	"github.com/glowteam/skinscan/internal/frame"
)

// Reason enumerates why a frame was rejected by the quality gate.
type Reason string

const (
	ReasonOK          Reason = "OK"
	ReasonNoFace      Reason = "NO_FACE"
	ReasonTooFar      Reason = "TOO_FAR"
	ReasonTooClose    Reason = "TOO_CLOSE"
	ReasonLowLight    Reason = "LOW_LIGHT"
	ReasonOverexposed Reason = "OVEREXPOSED"
	ReasonUnstable    Reason = "UNSTABLE"
)

// Point is a face center in frame coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Validation is the quality gate's verdict on one frame.
type Validation struct {
	Acceptable bool   `json:"acceptable"`
	Reason     Reason `json:"reason"`
	FaceCenter *Point `json:"face_center,omitempty"`
}

// ValidateFrame runs the pre-flight checks in order of cheapness: global
// exposure first, then localization, then distance and stability. The
// first failing check wins. prev may be nil when there is no earlier
// frame to compare against.
func ValidateFrame(f *frame.Frame, prev *Point, loc Localizer) Validation {
	mean := f.MeanLuminance()
	if mean < constants.LowLightLuminance {
		return Validation{Reason: ReasonLowLight}
	}
	if mean > constants.OverexposedLuminance {
		return Validation{Reason: ReasonOverexposed}
	}

	bounds := loc.Locate(f)
	if !bounds.Found() {
		return Validation{Reason: ReasonNoFace}
	}
	center := &Point{X: bounds.CX, Y: bounds.CY}

	ratio := float64(bounds.Width) / float64(f.Width)
	if ratio < constants.MinFaceFrameRatio {
		return Validation{Reason: ReasonTooFar, FaceCenter: center}
	}
	if ratio > constants.MaxFaceFrameRatio {
		return Validation{Reason: ReasonTooClose, FaceCenter: center}
	}

	if prev != nil {
		drift := math.Hypot(float64(center.X-prev.X), float64(center.Y-prev.Y))
		if drift > constants.MaxCenterDriftRatio*float64(f.Width) {
			return Validation{Reason: ReasonUnstable, FaceCenter: center}
		}
	}

	return Validation{Acceptable: true, Reason: ReasonOK, FaceCenter: center}
}
