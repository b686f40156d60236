package temporal

import (
	"math"
)

// ActivityConfig controls the energy-based activity detector.
type ActivityConfig struct {
	ThresholdOnDB  float64 `json:"threshold_on_db" yaml:"threshold_on_db"`
	ThresholdOffDB float64 `json:"threshold_off_db" yaml:"threshold_off_db"`
	MinActiveMs    float64 `json:"min_active_ms" yaml:"min_active_ms"`
	MinSilentMs    float64 `json:"min_silent_ms" yaml:"min_silent_ms"`
	FrameSizeMs    float64 `json:"frame_size_ms" yaml:"frame_size_ms"`
}

// DefaultActivityConfig returns thresholds suited to quiet, breathy voices.
func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		ThresholdOnDB:  -45,
		ThresholdOffDB: -50,
		MinActiveMs:    80,
		MinSilentMs:    120,
		FrameSizeMs:    10,
	}
}

// Activity is the per-frame "sound present" mask.
type Activity struct {
	Frames         []bool  `json:"frames"`
	ActiveFraction float64 `json:"active_fraction"`
	FrameSizeMs    float64 `json:"frame_size_ms"`
}

// ActivityDetector decides whether sound is being produced, frame by frame,
// from RMS level alone. It never looks at pitch.
type ActivityDetector struct {
	config ActivityConfig
}

// NewActivityDetector creates a detector with the given configuration.
func NewActivityDetector(config ActivityConfig) *ActivityDetector {
	return &ActivityDetector{config: config}
}

// Detect computes the activity mask over non-overlapping frames.
//
// A frame turns active at or above ThresholdOnDB and stays active until
// its level drops below ThresholdOffDB. Active runs shorter than
// MinActiveMs are then cleared, followed by filling silent runs shorter
// than MinSilentMs.
func (ad *ActivityDetector) Detect(samples []float64, sampleRate int) Activity {
	cfg := ad.config
	result := Activity{FrameSizeMs: cfg.FrameSizeMs}

	frameSize := int(cfg.FrameSizeMs / 1000 * float64(sampleRate))
	if frameSize == 0 || len(samples) < frameSize {
		return result
	}

	levels := NewEnergy(frameSize, frameSize).ComputeLogEnergy(samples)

	frames := make([]bool, len(levels))
	active := false
	for i, db := range levels {
		if active {
			active = db >= cfg.ThresholdOffDB
		} else {
			active = db >= cfg.ThresholdOnDB
		}
		frames[i] = active
	}

	minActive := int(math.Ceil(cfg.MinActiveMs / cfg.FrameSizeMs))
	minSilent := int(math.Ceil(cfg.MinSilentMs / cfg.FrameSizeMs))
	flipShortRuns(frames, true, minActive)
	flipShortRuns(frames, false, minSilent)

	result.Frames = frames
	result.ActiveFraction = trueFraction(frames)
	return result
}

// flipShortRuns inverts every run of target shorter than minLength frames.
func flipShortRuns(frames []bool, target bool, minLength int) {
	if minLength <= 0 {
		return
	}

	for i := 0; i < len(frames); {
		if frames[i] != target {
			i++
			continue
		}
		start := i
		for i < len(frames) && frames[i] == target {
			i++
		}
		if i-start < minLength {
			for j := start; j < i; j++ {
				frames[j] = !target
			}
		}
	}
}

// LongestActiveSeconds is the duration of the longest active stretch.
func (a Activity) LongestActiveSeconds() float64 {
	longest, run := 0, 0
	for _, f := range a.Frames {
		if f {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return float64(longest) * a.FrameSizeMs / 1000
}

// PitchedFraction is the share of active frames that also carry a pitch.
// The two masks are compared over their common length.
func PitchedFraction(voiced, active []bool) float64 {
	n := min(len(voiced), len(active))
	activeCount, pitched := 0, 0
	for i := range n {
		if !active[i] {
			continue
		}
		activeCount++
		if voiced[i] {
			pitched++
		}
	}
	if activeCount == 0 {
		return 0
	}
	return float64(pitched) / float64(activeCount)
}

func trueFraction(mask []bool) float64 {
	if len(mask) == 0 {
		return 0
	}
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return float64(n) / float64(len(mask))
}
