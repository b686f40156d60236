package speech

import (
	"math"

	"github.com/RyanBlaney/voicevo/algorithms/common"
	"github.com/RyanBlaney/voicevo/algorithms/tonal"
	"gonum.org/v1/gonum/floats"
)

// GateConfig is the minimum amount of measured-pitch material the gated
// perturbation estimators need before reporting a value.
type GateConfig struct {
	MinConsecutiveFrames int     `json:"min_consecutive_frames" yaml:"min_consecutive_frames"`
	MinDurationS         float64 `json:"min_duration_s" yaml:"min_duration_s"`
}

// DefaultGateConfig requires 15 consecutive frames and 1.5 s in total.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinConsecutiveFrames: 15,
		MinDurationS:         1.5,
	}
}

// VoiceQualityAnalyzer measures perturbation and periodicity of a voiced
// recording against its pitch contour.
//
// References:
//   - Boersma, P. (1993). "Accurate short-term analysis of the fundamental
//     frequency and the harmonics-to-noise ratio of a sampled sound"
//   - Teixeira, J.P., Oliveira, C., Lopes, C. (2013). "Vocal acoustic
//     analysis - jitter, shimmer and HNR parameters"
type VoiceQualityAnalyzer struct {
	sampleRate int
	hopSizeMs  float64
	hopSamples int
	gate       GateConfig
}

// NewVoiceQualityAnalyzer creates an analyzer for contours produced at
// hopSizeMs from audio at sampleRate.
func NewVoiceQualityAnalyzer(sampleRate int, hopSizeMs float64, gate GateConfig) *VoiceQualityAnalyzer {
	return &VoiceQualityAnalyzer{
		sampleRate: sampleRate,
		hopSizeMs:  hopSizeMs,
		hopSamples: int(hopSizeMs / 1000 * float64(sampleRate)),
		gate:       gate,
	}
}

// perturbation accumulates a cycle-to-cycle series. Differences are only
// taken between values added without an intervening breakChain.
type perturbation struct {
	values  []float64
	diffs   []float64
	prev    float64
	hasPrev bool

	run     int
	longest int
}

func (p *perturbation) add(v float64) {
	p.values = append(p.values, v)
	if p.hasPrev {
		p.diffs = append(p.diffs, math.Abs(v-p.prev))
	}
	p.prev, p.hasPrev = v, true
	p.run++
	p.longest = max(p.longest, p.run)
}

func (p *perturbation) breakChain() {
	p.hasPrev = false
	p.run = 0
}

// percent is mean(|diff|) / mean(value) * 100.
func (p *perturbation) percent() (float64, bool) {
	if len(p.diffs) == 0 {
		return 0, false
	}
	mean := common.Mean(p.values)
	if mean == 0 {
		return 0, false
	}
	return common.Mean(p.diffs) / mean * 100, true
}

func (va *VoiceQualityAnalyzer) gatePassed(p *perturbation) bool {
	duration := float64(len(p.values)) * va.hopSizeMs / 1000
	return p.longest >= va.gate.MinConsecutiveFrames && duration >= va.gate.MinDurationS
}

// Jitter is local jitter in percent: the mean absolute difference between
// the periods of consecutive voiced frames over the mean period. It needs
// at least one consecutive pair.
func Jitter(contour tonal.Contour) (float64, bool) {
	var p perturbation
	for _, f := range contour {
		hz, ok := f.Pitch.Hz()
		if !ok {
			p.breakChain()
			continue
		}
		p.add(1 / hz)
	}
	return p.percent()
}

// JitterGated is Jitter restricted to standard and relaxed tier frames,
// reported only when the gate is met.
func (va *VoiceQualityAnalyzer) JitterGated(contour tonal.Contour) (float64, bool) {
	var p perturbation
	for _, f := range contour {
		hz, ok := f.Pitch.Hz()
		if !ok || !f.Tier.MeasuredPitch() {
			p.breakChain()
			continue
		}
		p.add(1 / hz)
	}
	if !va.gatePassed(&p) {
		return 0, false
	}
	return p.percent()
}

// periodPeak is the peak absolute sample over one pitch period starting at
// the frame's buffer offset.
func (va *VoiceQualityAnalyzer) periodPeak(samples []float64, frame int, hz float64) (float64, bool) {
	period := int(math.Round(float64(va.sampleRate) / hz))
	start := frame * va.hopSamples
	end := min(start+period, len(samples))
	if start >= len(samples) || start >= end {
		return 0, false
	}

	peak := 0.0
	for _, s := range samples[start:end] {
		peak = max(peak, math.Abs(s))
	}
	return peak, true
}

func (va *VoiceQualityAnalyzer) shimmer(samples []float64, contour tonal.Contour, gated bool) *perturbation {
	var p perturbation
	for i, f := range contour {
		hz, ok := f.Pitch.Hz()
		if !ok || (gated && !f.Tier.MeasuredPitch()) {
			p.breakChain()
			continue
		}
		amp, ok := va.periodPeak(samples, i, hz)
		if !ok {
			p.breakChain()
			continue
		}
		p.add(amp)
	}
	return &p
}

// Shimmer is local shimmer in percent over the per-frame period peaks of
// consecutive voiced frames.
func (va *VoiceQualityAnalyzer) Shimmer(samples []float64, contour tonal.Contour) (float64, bool) {
	return va.shimmer(samples, contour, false).percent()
}

// ShimmerGated is Shimmer restricted to measured-pitch frames, reported only
// when the gate is met.
func (va *VoiceQualityAnalyzer) ShimmerGated(samples []float64, contour tonal.Contour) (float64, bool) {
	p := va.shimmer(samples, contour, true)
	if !va.gatePassed(p) {
		return 0, false
	}
	return p.percent()
}

// periodCorrelation is the normalized autocorrelation at one pitch period
// over a three-period window centred on the frame.
func (va *VoiceQualityAnalyzer) periodCorrelation(samples []float64, frame int, hz float64) (float64, bool) {
	period := int(math.Round(float64(va.sampleRate) / hz))
	if period == 0 {
		return 0, false
	}

	window := 3 * period
	start := max(0, frame*va.hopSamples-window/2)
	end := min(start+window, len(samples))
	if end-start < 2*period {
		return 0, false
	}
	return NormalizedAutocorrelation(samples[start:end], period), true
}

// HNR is the mean harmonic-to-noise ratio in dB over voiced frames, from
// r at one period: 10*log10(r/(1-r)) with r clamped to [0.001, 0.999].
func (va *VoiceQualityAnalyzer) HNR(samples []float64, contour tonal.Contour) (float64, bool) {
	var values []float64
	for i, f := range contour {
		hz, ok := f.Pitch.Hz()
		if !ok {
			continue
		}
		r, ok := va.periodCorrelation(samples, i, hz)
		if !ok {
			continue
		}
		r = common.Clamp(r, 0.001, 0.999)
		values = append(values, 10*math.Log10(r/(1-r)))
	}
	if len(values) == 0 {
		return 0, false
	}
	return common.Mean(values), true
}

// Periodicity is the mean period correlation, clamped to [0, 1], over
// frames that are voiced and active. Frames beyond the end of the activity
// mask are not excluded.
func (va *VoiceQualityAnalyzer) Periodicity(samples []float64, contour tonal.Contour, active []bool) (float64, bool) {
	var values []float64
	for i, f := range contour {
		hz, ok := f.Pitch.Hz()
		if !ok || (i < len(active) && !active[i]) {
			continue
		}
		r, ok := va.periodCorrelation(samples, i, hz)
		if !ok {
			continue
		}
		values = append(values, common.Clamp(r, 0, 1))
	}
	if len(values) == 0 {
		return 0, false
	}
	return common.Mean(values), true
}

// NormalizedAutocorrelation is sum(x[i]*x[i+lag]) divided by the geometric
// mean of the energies of the two overlapping segments.
func NormalizedAutocorrelation(signal []float64, lag int) float64 {
	if lag <= 0 || lag >= len(signal) {
		return 0
	}

	a := signal[:len(signal)-lag]
	b := signal[lag:]
	denom := math.Sqrt(floats.Dot(a, a) * floats.Dot(b, b))
	if denom == 0 {
		return 0
	}
	return floats.Dot(a, b) / denom
}
