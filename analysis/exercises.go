package analysis

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/voicevo/algorithms/common"
	"github.com/RyanBlaney/voicevo/algorithms/spectral"
	"github.com/RyanBlaney/voicevo/algorithms/speech"
	"github.com/RyanBlaney/voicevo/algorithms/temporal"
	"github.com/RyanBlaney/voicevo/algorithms/tonal"
	"github.com/RyanBlaney/voicevo/analysis/config"
)

// detectionLabel hides the default "pitch" label so only degraded
// detection shows up in stored results.
func detectionLabel(track *tonal.PitchTrack) string {
	if track.Tier == tonal.TierStandard {
		return ""
	}
	return track.Quality()
}

func reliability(track *tonal.PitchTrack, activity temporal.Activity, cppsOK bool, cfg *config.Config) *speech.ReliabilityInfo {
	pitched := temporal.PitchedFraction(track.Contour.VoicedMask(), activity.Frames)
	info := speech.ScoreReliability(track.TierCounts, activity.ActiveFraction, pitched, cppsOK, cfg.Reliability)
	return &info
}

// AnalyzeSustained measures a sustained vowel: phonation time, F0 level and
// stability, perturbation, noise and cepstral measures, with reliability
// annotations for breathy or quiet voices.
func AnalyzeSustained(samples []float64, sampleRate int, cfg *config.Config) (*SustainedAnalysis, error) {
	activity := temporal.NewActivityDetector(cfg.Activity).Detect(samples, sampleRate)
	track := tonal.NewPitchTracker(cfg.Pitch).Track(samples, sampleRate)

	freqs := track.Contour.VoicedFrequencies()
	if len(freqs) == 0 {
		return nil, fmt.Errorf("sustained vowel: %w", ErrNoVoicedContent)
	}

	hop := cfg.Pitch.HopSizeMs
	vq := speech.NewVoiceQualityAnalyzer(sampleRate, hop, cfg.Gating)
	contour := track.Contour

	// Energy-fallback frequencies are estimates, so cycle-to-cycle pitch
	// perturbation is meaningless for them. Amplitude perturbation still
	// reads real peaks and is kept.
	var jitter, shimmer float64
	if track.FallbackUsed {
		shimmer, _ = vq.Shimmer(samples, contour)
	} else {
		if v, ok := vq.JitterGated(contour); ok {
			jitter = v
		} else if v, ok := speech.Jitter(contour); ok {
			jitter = v
		}
		if v, ok := vq.ShimmerGated(samples, contour); ok {
			shimmer = v
		} else if v, ok := vq.Shimmer(samples, contour); ok {
			shimmer = v
		}
	}
	hnr, _ := vq.HNR(samples, contour)

	cpps, cppsOK := spectral.CPPS(samples, sampleRate, cfg.CPPS)
	periodicity, periodicityOK := vq.Periodicity(samples, contour, activity.Frames)

	return &SustainedAnalysis{
		MPTSeconds:          speech.NewContourAnalyzer(cfg.Contour, hop).MaxPhonationTime(contour),
		MeanF0Hz:            common.Mean(freqs),
		F0StdHz:             common.PopStdDev(freqs),
		JitterLocalPercent:  jitter,
		ShimmerLocalPercent: shimmer,
		HNRDB:               hnr,
		CPPSDB:              floatPtr(cpps, cppsOK),
		PeriodicityMean:     floatPtr(periodicity, periodicityOK),
		DetectionQuality:    detectionLabel(track),
		Reliability:         reliability(track, activity, cppsOK, cfg),
	}, nil
}

// AnalyzeScale reports the usable pitch range of a scale recording. The
// 5th and 95th percentiles stand in for floor and ceiling so a stray
// octave error cannot set either end.
func AnalyzeScale(samples []float64, sampleRate int, cfg *config.Config) (*ScaleAnalysis, error) {
	track := tonal.NewPitchTracker(cfg.Pitch).Track(samples, sampleRate)
	freqs := track.Contour.VoicedFrequencies()
	if len(freqs) == 0 {
		return nil, fmt.Errorf("scale: %w", ErrNoVoicedContent)
	}

	sorted := common.SortedCopy(freqs)
	floor := common.Percentile(sorted, 0.05)
	ceiling := common.Percentile(sorted, 0.95)

	return &ScaleAnalysis{
		PitchFloorHz:     floor,
		PitchCeilingHz:   ceiling,
		RangeHz:          ceiling - floor,
		RangeSemitones:   semitones(floor, ceiling),
		DetectionQuality: detectionLabel(track),
	}, nil
}

func semitones(low, high float64) float64 {
	if low <= 0 {
		return 0
	}
	return 12 * math.Log2(high/low)
}

// AnalyzeReading measures speaking pitch, its variability and the number
// of voice breaks in a read passage.
func AnalyzeReading(samples []float64, sampleRate int, cfg *config.Config) (*ReadingAnalysis, error) {
	activity := temporal.NewActivityDetector(cfg.Activity).Detect(samples, sampleRate)
	track := tonal.NewPitchTracker(cfg.Pitch).Track(samples, sampleRate)

	freqs := track.Contour.VoicedFrequencies()
	if len(freqs) == 0 {
		return nil, fmt.Errorf("reading passage: %w", ErrNoVoicedContent)
	}

	sorted := common.SortedCopy(freqs)
	cpps, cppsOK := spectral.CPPS(samples, sampleRate, cfg.CPPS)

	return &ReadingAnalysis{
		MeanF0Hz:         common.Mean(freqs),
		F0StdHz:          common.PopStdDev(freqs),
		F0RangeHz:        [2]float64{common.Percentile(sorted, 0.05), common.Percentile(sorted, 0.95)},
		VoiceBreaks:      speech.NewContourAnalyzer(cfg.Contour, cfg.Pitch.HopSizeMs).VoiceBreaks(track),
		VoicedFraction:   track.Contour.VoicedFraction(),
		CPPSDB:           floatPtr(cpps, cppsOK),
		DetectionQuality: detectionLabel(track),
		Reliability:      reliability(track, activity, cppsOK, cfg),
	}, nil
}
