// Package constants provides shared tunables used across the analysis
// pipeline. Centralizing them keeps the scoring calibration in one place.
package constants

// Score bounds. Every metric and the overall score stay inside this band.
const (
	ScoreFloor = 10
	ScoreCeil  = 99

	// NeutralScore is used when no face is found and no measurement is
	// meaningful.
	NeutralScore = 50
)

// Face localization constants.
const (
	// GridStep is the sampling stride of the skin-pixel grid, in pixels.
	GridStep = 20

	// MinSkinSamples is the minimum number of skin-like grid samples
	// required before a face is reported.
	MinSkinSamples = 50

	// MinGreenChannel is the lower green bound of the skin heuristic.
	MinGreenChannel = 40

	// FaceExpansion scales sqrt(sample count) * GridStep into a width
	// estimate. Tuned against frontal selfie framing.
	FaceExpansion = 1.9

	// FaceAspect is the height/width ratio applied to the width estimate.
	FaceAspect = 1.35
)

// Frame quality gate constants.
const (
	// MinFaceFrameRatio and MaxFaceFrameRatio bound faceWidth relative to
	// frame width for an acceptable capture distance.
	MinFaceFrameRatio = 0.20
	MaxFaceFrameRatio = 0.85

	// LowLightLuminance and OverexposedLuminance bound the frame's mean
	// luminance on a 0-255 scale.
	LowLightLuminance    = 40.0
	OverexposedLuminance = 230.0

	// MaxCenterDriftRatio is the face-center movement between consecutive
	// frames, relative to frame width, above which the frame is unstable.
	MaxCenterDriftRatio = 0.08
)

// Region normalization constants.
const (
	// TargetLuminance is the mean luminance every region is rescaled to
	// before scoring, so ambient lighting cancels out.
	TargetLuminance = 135.0

	// MaxExposureScale caps the rescale factor for degenerate (near-black)
	// regions. MinExposureScale does the same for blown-out regions.
	MaxExposureScale = 4.0
	MinExposureScale = 0.25
)

// Stabilization constants.
const (
	// RecencyWindowHours bounds how old a history anchor may be before
	// damping is disabled entirely.
	RecencyWindowHours = 48

	// LargeChangeThreshold is the per-metric delta above which a fresh
	// measurement is trusted fully, bypassing the damping blend.
	LargeChangeThreshold = 15

	// RecentRescanDamping applies to rescans inside RecentRescanMinutes.
	RecentRescanDamping = 0.90
	RecentRescanMinutes = 15

	// MaxStabilityDamping is the ceiling the stability rating can push
	// damping to for non-recent but visually similar scans.
	MaxStabilityDamping = 0.60

	// SimilarHashBits is the Hamming distance between perceptual hashes
	// at which two frames stop counting as visually similar.
	SimilarHashBits = 16
)

// Frame decode constants.
const (
	// MaxFrameDimension is the largest frame edge kept after decode.
	// Larger uploads are downscaled before analysis.
	MaxFrameDimension = 1280

	// RefineImageMaxSize is the image edge sent to the refinement service.
	RefineImageMaxSize = 800
)

// Web constants.
const (
	// MaxUploadSize is the maximum image upload size in bytes (20MB).
	MaxUploadSize = 20 << 20

	// DefaultHistoryLimit is the default number of history entries
	// returned by the history endpoint. MaxHistoryLimit caps what a
	// client may request in one page.
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)
