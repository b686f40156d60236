// Package config holds the user-facing analysis configuration, read from a
// YAML file layered on top of the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/RyanBlaney/voicevo/algorithms/spectral"
	"github.com/RyanBlaney/voicevo/algorithms/speech"
	"github.com/RyanBlaney/voicevo/algorithms/temporal"
	"github.com/RyanBlaney/voicevo/algorithms/tonal"
	"github.com/RyanBlaney/voicevo/logging"
	"gopkg.in/yaml.v3"
)

// Config aggregates every tunable of the analysis pipeline.
type Config struct {
	LogLevel    string                   `json:"log_level" yaml:"log_level"`
	Recording   RecordingConfig          `json:"recording" yaml:"recording"`
	Pitch       tonal.PitchConfig        `json:"pitch" yaml:"pitch"`
	Activity    temporal.ActivityConfig  `json:"activity" yaml:"activity"`
	CPPS        spectral.CPPSConfig      `json:"cpps" yaml:"cpps"`
	Contour     speech.ContourConfig     `json:"contour" yaml:"contour"`
	Gating      speech.GateConfig        `json:"gating" yaml:"gating"`
	Reliability speech.ReliabilityConfig `json:"reliability" yaml:"reliability"`
	Thresholds  Thresholds               `json:"thresholds" yaml:"thresholds"`
	Session     SessionConfig            `json:"session" yaml:"session"`
}

// RecordingConfig describes capture and input conditioning. DCCutoffHz
// enables a DC blocking filter on every recording before analysis; 0
// leaves samples untouched.
type RecordingConfig struct {
	SampleRate int     `json:"sample_rate" yaml:"sample_rate"`
	DCCutoffHz float64 `json:"dc_cutoff_hz" yaml:"dc_cutoff_hz"`
}

// Thresholds are clinical reference values used to flag results. Jitter,
// shimmer and HNR follow Praat's conventional cut-offs.
type Thresholds struct {
	JitterPathological  float64 `json:"jitter_pathological" yaml:"jitter_pathological"`   // percent
	ShimmerPathological float64 `json:"shimmer_pathological" yaml:"shimmer_pathological"` // percent
	HNRLow              float64 `json:"hnr_low" yaml:"hnr_low"`                           // dB
	HNRNormal           float64 `json:"hnr_normal" yaml:"hnr_normal"`                     // dB
	CPPSLow             float64 `json:"cpps_low" yaml:"cpps_low"`                         // dB
	MPTLow              float64 `json:"mpt_low" yaml:"mpt_low"`                           // seconds
	SZRatioHigh         float64 `json:"sz_ratio_high" yaml:"sz_ratio_high"`
}

// SessionConfig holds text shown to the speaker during a session.
type SessionConfig struct {
	ReadingPassage string `json:"reading_passage" yaml:"reading_passage"`
}

const defaultReadingPassage = "When the sunlight strikes raindrops in the air, they act as a prism " +
	"and form a rainbow. The rainbow is a division of white light into " +
	"many beautiful colors. These take the shape of a long round arch, " +
	"with its path high above, and its two ends apparently beyond the horizon."

// Default returns the factory configuration.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		Recording:   RecordingConfig{SampleRate: 44100},
		Pitch:       tonal.DefaultPitchConfig(),
		Activity:    temporal.DefaultActivityConfig(),
		CPPS:        spectral.DefaultCPPSConfig(),
		Contour:     speech.DefaultContourConfig(),
		Gating:      speech.DefaultGateConfig(),
		Reliability: speech.DefaultReliabilityConfig(),
		Thresholds: Thresholds{
			JitterPathological:  1.04,
			ShimmerPathological: 3.81,
			HNRLow:              7,
			HNRNormal:           20,
			CPPSLow:             4,
			MPTLow:              10,
			SZRatioHigh:         1.4,
		},
		Session: SessionConfig{ReadingPassage: defaultReadingPassage},
	}
}

// Load reads the YAML file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFromReader decodes YAML from r over the defaults, so a partial file
// only overrides the keys it names. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Recording.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("recording.sample_rate %d must be positive", c.Recording.SampleRate))
	}
	if c.Recording.DCCutoffHz < 0 || (c.Recording.DCCutoffHz > 0 && c.Recording.DCCutoffHz >= c.Pitch.FloorHz) {
		errs = append(errs, fmt.Errorf("recording.dc_cutoff_hz %.1f must be 0 or below pitch_floor_hz", c.Recording.DCCutoffHz))
	}

	p := c.Pitch
	if p.FloorHz <= 0 {
		errs = append(errs, fmt.Errorf("pitch.pitch_floor_hz %.1f must be positive", p.FloorHz))
	}
	if p.CeilingHz <= p.FloorHz {
		errs = append(errs, fmt.Errorf("pitch.pitch_ceiling_hz %.1f must exceed pitch_floor_hz %.1f", p.CeilingHz, p.FloorHz))
	}
	if p.FrameSizeMs <= 0 || p.HopSizeMs <= 0 {
		errs = append(errs, errors.New("pitch.frame_size_ms and pitch.hop_size_ms must be positive"))
	}
	if p.PowerThreshold < 0 {
		errs = append(errs, fmt.Errorf("pitch.power_threshold %.3f must not be negative", p.PowerThreshold))
	}
	if p.ClarityThreshold < 0 || p.ClarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("pitch.clarity_threshold %.3f is out of range [0, 1]", p.ClarityThreshold))
	}
	fb := p.Fallback
	if fb.RelaxedPowerDivisor < 1 || fb.RelaxedClarityDivisor < 1 {
		errs = append(errs, errors.New("pitch.fallback relaxed divisors must be at least 1"))
	}
	if !inUnit(fb.StandardMinVoiced) || !inUnit(fb.RelaxedMinVoiced) {
		errs = append(errs, errors.New("pitch.fallback voiced fractions must be in [0, 1]"))
	}
	if fb.DefaultF0Hz <= 0 {
		errs = append(errs, fmt.Errorf("pitch.fallback.default_f0_hz %.1f must be positive", fb.DefaultF0Hz))
	}

	a := c.Activity
	if a.ThresholdOffDB > a.ThresholdOnDB {
		errs = append(errs, fmt.Errorf("activity.threshold_off_db %.1f must not exceed threshold_on_db %.1f", a.ThresholdOffDB, a.ThresholdOnDB))
	}
	if a.FrameSizeMs <= 0 {
		errs = append(errs, fmt.Errorf("activity.frame_size_ms %.1f must be positive", a.FrameSizeMs))
	}
	if a.MinActiveMs < 0 || a.MinSilentMs < 0 {
		errs = append(errs, errors.New("activity minimum run lengths must not be negative"))
	}

	if c.CPPS.FrameSizeMs <= 0 || c.CPPS.HopSizeMs <= 0 {
		errs = append(errs, errors.New("cpps.frame_size_ms and cpps.hop_size_ms must be positive"))
	}
	if c.CPPS.QuefrencyMinMs >= c.CPPS.QuefrencyMaxMs {
		errs = append(errs, fmt.Errorf("cpps.quefrency_min_ms %.1f must be below quefrency_max_ms %.1f", c.CPPS.QuefrencyMinMs, c.CPPS.QuefrencyMaxMs))
	}

	if c.Contour.BreakMinMs > c.Contour.BreakMaxMs {
		errs = append(errs, fmt.Errorf("contour.break_min_ms %.0f must not exceed break_max_ms %.0f", c.Contour.BreakMinMs, c.Contour.BreakMaxMs))
	}
	if c.Contour.MPTBridgeMs < 0 {
		errs = append(errs, fmt.Errorf("contour.mpt_bridge_ms %.0f must not be negative", c.Contour.MPTBridgeMs))
	}

	if c.Gating.MinConsecutiveFrames < 2 {
		errs = append(errs, fmt.Errorf("gating.min_consecutive_frames %d must be at least 2", c.Gating.MinConsecutiveFrames))
	}
	if c.Gating.MinDurationS < 0 {
		errs = append(errs, fmt.Errorf("gating.min_duration_s %.2f must not be negative", c.Gating.MinDurationS))
	}

	r := c.Reliability
	if !inUnit(r.GoodPitchedFraction) || !inUnit(r.OKPitchedFraction) || r.OKPitchedFraction > r.GoodPitchedFraction {
		errs = append(errs, errors.New("reliability fractions must satisfy 0 <= ok <= good <= 1"))
	}

	t := c.Thresholds
	if t.JitterPathological <= 0 || t.ShimmerPathological <= 0 {
		errs = append(errs, errors.New("thresholds jitter and shimmer percentages must be positive"))
	}
	if t.HNRLow > t.HNRNormal {
		errs = append(errs, fmt.Errorf("thresholds.hnr_low %.1f must not exceed hnr_normal %.1f", t.HNRLow, t.HNRNormal))
	}

	return errors.Join(errs...)
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
