package analysis

import (
	"fmt"

	"github.com/RyanBlaney/voicevo/algorithms/common"
	"github.com/RyanBlaney/voicevo/algorithms/spectral"
	"github.com/RyanBlaney/voicevo/algorithms/speech"
	"github.com/RyanBlaney/voicevo/algorithms/temporal"
	"github.com/RyanBlaney/voicevo/algorithms/tonal"
	"github.com/RyanBlaney/voicevo/analysis/config"
)

// FatigueTrial is one sustained vowel of a fatigue protocol together with
// the speaker's perceived effort (1-10).
type FatigueTrial struct {
	MPTSeconds float64  `json:"mpt_seconds"`
	CPPSDB     *float64 `json:"cpps_db,omitempty"`
	Effort     int      `json:"effort"`
}

// TrialFromRecording measures one fatigue trial. CPPS is computed over the
// phonation itself, the first MPT seconds of the recording, so trailing
// silence after the speaker runs out of air does not drag it down.
func TrialFromRecording(samples []float64, sampleRate, effort int, cfg *config.Config) (FatigueTrial, error) {
	if effort < 1 || effort > 10 {
		return FatigueTrial{}, fmt.Errorf("%w: got %d", ErrInvalidEffort, effort)
	}

	track := tonal.NewPitchTracker(cfg.Pitch).Track(samples, sampleRate)
	if len(track.Contour.VoicedFrequencies()) == 0 {
		return FatigueTrial{}, fmt.Errorf("fatigue trial: %w", ErrNoVoicedContent)
	}

	mpt := speech.NewContourAnalyzer(cfg.Contour, cfg.Pitch.HopSizeMs).MaxPhonationTime(track.Contour)
	end := min(len(samples), int(mpt*float64(sampleRate)))
	cpps, ok := spectral.CPPS(samples[:end], sampleRate, cfg.CPPS)

	return FatigueTrial{
		MPTSeconds: mpt,
		CPPSDB:     floatPtr(cpps, ok),
		Effort:     effort,
	}, nil
}

// AnalyzeFatigue fits per-trial trends. Slopes are per trial index; the
// CPPS slope only uses trials that produced a CPPS value and stays 0 when
// fewer than two did.
func AnalyzeFatigue(trials []FatigueTrial) (*FatigueAnalysis, error) {
	if len(trials) < 2 {
		return nil, fmt.Errorf("fatigue: %w: need at least 2, got %d", ErrTooFewTrials, len(trials))
	}

	result := &FatigueAnalysis{
		MPTPerTrial:    make([]float64, len(trials)),
		CPPSPerTrial:   make([]*float64, len(trials)),
		EffortPerTrial: make([]int, len(trials)),
	}

	index := make([]float64, len(trials))
	effort := make([]float64, len(trials))
	var cppsX, cppsY []float64

	for i, trial := range trials {
		if trial.Effort < 1 || trial.Effort > 10 {
			return nil, fmt.Errorf("fatigue trial %d: %w: got %d", i+1, ErrInvalidEffort, trial.Effort)
		}
		index[i] = float64(i)
		effort[i] = float64(trial.Effort)

		result.MPTPerTrial[i] = trial.MPTSeconds
		result.CPPSPerTrial[i] = trial.CPPSDB
		result.EffortPerTrial[i] = trial.Effort
		if trial.CPPSDB != nil {
			cppsX = append(cppsX, float64(i))
			cppsY = append(cppsY, *trial.CPPSDB)
		}
	}

	result.MPTSlope, _ = common.LinRegression(index, result.MPTPerTrial)
	result.EffortSlope, _ = common.LinRegression(index, effort)
	if len(cppsX) >= 2 {
		result.CPPSSlope, _ = common.LinRegression(cppsX, cppsY)
	}
	return result, nil
}

// AnalyzeSZ computes the S/Z ratio from per-trial durations in seconds.
// Ratios well above 1 mean voicing cuts the /z/ short while breath alone
// sustains /s/.
func AnalyzeSZ(sDurations, zDurations []float64) (*SZAnalysis, error) {
	if len(sDurations) == 0 || len(zDurations) == 0 {
		return nil, fmt.Errorf("s/z: %w: need at least one /s/ and one /z/", ErrTooFewTrials)
	}

	meanS := common.Mean(sDurations)
	meanZ := common.Mean(zDurations)
	if meanZ == 0 {
		return nil, fmt.Errorf("s/z: %w", ErrZeroDuration)
	}

	return &SZAnalysis{
		SDurations: sDurations,
		ZDurations: zDurations,
		MeanS:      meanS,
		MeanZ:      meanZ,
		SZRatio:    meanS / meanZ,
	}, nil
}

// PhonationDuration times an /s/ or /z/ trial as the longest stretch of
// sound. It relies on energy only, since /s/ has no pitch.
func PhonationDuration(samples []float64, sampleRate int, cfg temporal.ActivityConfig) float64 {
	return temporal.NewActivityDetector(cfg).Detect(samples, sampleRate).LongestActiveSeconds()
}
