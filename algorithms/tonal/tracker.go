package tonal

import (
	"math"

	"github.com/RyanBlaney/voicevo/algorithms/common"
	"github.com/RyanBlaney/voicevo/algorithms/windowing"
)

// PitchConfig controls contour extraction. The defaults are tuned low so
// breathy and quiet voices still register in the standard tier.
type PitchConfig struct {
	FloorHz          float64        `json:"pitch_floor_hz" yaml:"pitch_floor_hz"`
	CeilingHz        float64        `json:"pitch_ceiling_hz" yaml:"pitch_ceiling_hz"`
	FrameSizeMs      float64        `json:"frame_size_ms" yaml:"frame_size_ms"`
	HopSizeMs        float64        `json:"hop_size_ms" yaml:"hop_size_ms"`
	PowerThreshold   float64        `json:"power_threshold" yaml:"power_threshold"`
	ClarityThreshold float64        `json:"clarity_threshold" yaml:"clarity_threshold"`
	Fallback         FallbackConfig `json:"fallback" yaml:"fallback"`
}

// FallbackConfig controls the relaxed and energy tiers.
type FallbackConfig struct {
	RelaxedPowerDivisor   float64 `json:"relaxed_power_divisor" yaml:"relaxed_power_divisor"`
	RelaxedClarityDivisor float64 `json:"relaxed_clarity_divisor" yaml:"relaxed_clarity_divisor"`
	StandardMinVoiced     float64 `json:"standard_min_voiced" yaml:"standard_min_voiced"`
	RelaxedMinVoiced      float64 `json:"relaxed_min_voiced" yaml:"relaxed_min_voiced"`
	EnergyThresholdDB     float64 `json:"energy_threshold_db" yaml:"energy_threshold_db"`
	DefaultF0Hz           float64 `json:"default_f0_hz" yaml:"default_f0_hz"`
}

// DefaultPitchConfig returns the clinical defaults.
func DefaultPitchConfig() PitchConfig {
	return PitchConfig{
		FloorHz:          30,
		CeilingHz:        1000,
		FrameSizeMs:      30,
		HopSizeMs:        10,
		PowerThreshold:   0.2,
		ClarityThreshold: 0.2,
		Fallback:         DefaultFallbackConfig(),
	}
}

// DefaultFallbackConfig returns the tier acceptance defaults.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		RelaxedPowerDivisor:   20,
		RelaxedClarityDivisor: 4,
		StandardMinVoiced:     0.20,
		RelaxedMinVoiced:      0.10,
		EnergyThresholdDB:     -45,
		DefaultF0Hz:           100,
	}
}

// FrameLayout is the sample geometry of a contour at one sample rate.
type FrameLayout struct {
	FrameSize    int // nominal frame, used for energy decisions
	HopSize      int
	DetectorSize int // power of two covering two periods of the floor
	Padding      int
}

// Layout computes the frame geometry for sampleRate.
func (c PitchConfig) Layout(sampleRate int) FrameLayout {
	sr := float64(sampleRate)
	frameSize := int(c.FrameSizeMs / 1000 * sr)
	hopSize := max(1, int(c.HopSizeMs/1000*sr))

	detectorSize := frameSize
	if c.FloorHz > 0 {
		minBuffer := int(math.Ceil(2 * sr / c.FloorHz))
		detectorSize = max(common.NextPowerOfTwo(minBuffer), frameSize)
	}

	return FrameLayout{
		FrameSize:    frameSize,
		HopSize:      hopSize,
		DetectorSize: detectorSize,
		Padding:      detectorSize / 2,
	}
}

// FrameCount is floor((n - DetectorSize)/HopSize) + 1, or 0 when no full
// detector window fits.
func (l FrameLayout) FrameCount(n int) int {
	if l.DetectorSize <= 0 || n < l.DetectorSize {
		return 0
	}
	return (n-l.DetectorSize)/l.HopSize + 1
}

// PitchTrack is a contour with the metadata of how it was produced.
type PitchTrack struct {
	Contour      Contour     `json:"contour"`
	Tier         Tier        `json:"tier"` // regime accepted for the contour
	TierCounts   [3]int      `json:"tier_counts"`
	FallbackUsed bool        `json:"fallback_used"`
	EstimatedF0  float64     `json:"estimated_f0,omitempty"`
	Layout       FrameLayout `json:"-"`
}

// Quality is the detection-quality label of the accepted regime.
func (t *PitchTrack) Quality() string {
	return t.Tier.Label()
}

// FrameTiers returns the per-frame tier slice aligned with the contour.
func (t *PitchTrack) FrameTiers() []Tier {
	tiers := make([]Tier, len(t.Contour))
	for i, f := range t.Contour {
		tiers[i] = f.Tier
	}
	return tiers
}

// PitchTracker turns a sample buffer into a contour, degrading from
// standard periodicity detection to relaxed thresholds and finally to an
// energy-only track with an estimated F0.
type PitchTracker struct {
	config PitchConfig
}

// NewPitchTracker creates a tracker with the given configuration.
func NewPitchTracker(config PitchConfig) *PitchTracker {
	return &PitchTracker{config: config}
}

// Config returns the tracker configuration.
func (pt *PitchTracker) Config() PitchConfig {
	return pt.config
}

// frameVote is the per-frame evidence each tier is decided from.
type frameVote struct {
	estimate PeriodEstimate
	energyDB float64
}

// Track extracts the contour of samples. It never fails: an empty or
// silent buffer produces a contour without voiced frames.
func (pt *PitchTracker) Track(samples []float64, sampleRate int) *PitchTrack {
	cfg := pt.config
	layout := cfg.Layout(sampleRate)
	count := layout.FrameCount(len(samples))

	votes := make([]frameVote, count)
	if count > 0 {
		detector := NewMcLeodDetector(sampleRate, layout.DetectorSize, layout.Padding)
		hann := windowing.NewHann(layout.DetectorSize, true)
		for i := range count {
			pos := i * layout.HopSize
			votes[i] = frameVote{
				estimate: detector.Estimate(hann.Apply(samples[pos : pos+layout.DetectorSize])),
				energyDB: common.RMSdB(samples[pos : pos+layout.FrameSize]),
			}
		}
	}

	standard := make([]bool, count)
	relaxed := make([]bool, count)
	relaxedPower := cfg.PowerThreshold / cfg.Fallback.RelaxedPowerDivisor
	relaxedClarity := cfg.ClarityThreshold / cfg.Fallback.RelaxedClarityDivisor
	var relaxedHz []float64
	for i, v := range votes {
		standard[i] = v.estimate.Accept(cfg.PowerThreshold, cfg.ClarityThreshold, cfg.FloorHz, cfg.CeilingHz)
		relaxed[i] = standard[i] || v.estimate.Accept(relaxedPower, relaxedClarity, cfg.FloorHz, cfg.CeilingHz)
		if relaxed[i] {
			relaxedHz = append(relaxedHz, v.estimate.Frequency)
		}
	}

	tier := SelectTier(fraction(standard), fraction(relaxed), cfg.Fallback)

	track := &PitchTrack{
		Contour:      make(Contour, count),
		Tier:         tier,
		FallbackUsed: tier == TierEnergyFallback,
		Layout:       layout,
	}
	if track.FallbackUsed {
		track.EstimatedF0 = EstimateF0(relaxedHz, cfg)
	}

	for i, v := range votes {
		frame := PitchFrame{Time: float64(i*layout.HopSize) / float64(sampleRate)}
		switch {
		case standard[i]:
			frame.Pitch, frame.Tier = Voiced(v.estimate.Frequency), TierStandard
		case relaxed[i] && tier >= TierRelaxed:
			frame.Pitch, frame.Tier = Voiced(v.estimate.Frequency), TierRelaxed
		case tier == TierEnergyFallback && v.energyDB > cfg.Fallback.EnergyThresholdDB:
			frame.Pitch, frame.Tier = Voiced(track.EstimatedF0), TierEnergyFallback
		}
		if frame.Tier != TierNone {
			track.TierCounts[frame.Tier-1]++
		}
		track.Contour[i] = frame
	}

	return track
}

// SelectTier picks the regime from the voiced fractions of the standard and
// relaxed passes.
func SelectTier(standardFraction, relaxedFraction float64, cfg FallbackConfig) Tier {
	switch {
	case standardFraction >= cfg.StandardMinVoiced:
		return TierStandard
	case relaxedFraction >= cfg.RelaxedMinVoiced:
		return TierRelaxed
	default:
		return TierEnergyFallback
	}
}

// EstimateF0 is the median of the relaxed-tier frequencies, or the default
// F0 when there are none, clamped into the configured range.
func EstimateF0(relaxedHz []float64, cfg PitchConfig) float64 {
	f0 := cfg.Fallback.DefaultF0Hz
	if len(relaxedHz) > 0 {
		f0 = common.Median(relaxedHz)
	}
	return common.Clamp(f0, cfg.FloorHz, cfg.CeilingHz)
}

func fraction(mask []bool) float64 {
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
