package speech

import (
	"github.com/RyanBlaney/voicevo/algorithms/tonal"
)

// Grade is the overall trust level of an analysis.
type Grade string

const (
	GradeGood      Grade = "good"
	GradeOK        Grade = "ok"
	GradeTrendOnly Grade = "trend_only"
)

// BreaksValidity says how voice-break counts may be used.
type BreaksValidity string

const (
	BreaksValid       BreaksValidity = "valid"
	BreaksTrendOnly   BreaksValidity = "trend_only"
	BreaksUnavailable BreaksValidity = "unavailable"
)

// ReliabilityConfig holds the pitched-fraction cut-offs for grading.
type ReliabilityConfig struct {
	GoodPitchedFraction float64 `json:"good_pitched_fraction" yaml:"good_pitched_fraction"`
	OKPitchedFraction   float64 `json:"ok_pitched_fraction" yaml:"ok_pitched_fraction"`
}

// DefaultReliabilityConfig returns 0.5 for good and 0.3 for ok.
func DefaultReliabilityConfig() ReliabilityConfig {
	return ReliabilityConfig{
		GoodPitchedFraction: 0.5,
		OKPitchedFraction:   0.3,
	}
}

// MetricsValidity flags which metrics can be read at face value.
type MetricsValidity struct {
	Jitter      bool           `json:"jitter"`
	Shimmer     bool           `json:"shimmer"`
	HNR         bool           `json:"hnr"`
	CPPS        bool           `json:"cpps"`
	VoiceBreaks BreaksValidity `json:"voice_breaks"`
}

// ReliabilityInfo annotates an analysis with how its pitch data was obtained.
type ReliabilityInfo struct {
	ActiveFraction  float64         `json:"active_fraction"`
	PitchedFraction float64         `json:"pitched_fraction"`
	DominantTier    tonal.Tier      `json:"dominant_tier"`
	AnalysisQuality Grade           `json:"analysis_quality"`
	MetricsValidity MetricsValidity `json:"metrics_validity"`
}

// DominantTier is the tier with the most voiced frames; ties go to the
// lower tier.
func DominantTier(counts [3]int) tonal.Tier {
	switch {
	case counts[0] >= counts[1] && counts[0] >= counts[2]:
		return tonal.TierStandard
	case counts[1] >= counts[2]:
		return tonal.TierRelaxed
	default:
		return tonal.TierEnergyFallback
	}
}

// ScoreReliability grades an analysis from its tier usage and activity.
func ScoreReliability(tierCounts [3]int, activeFraction, pitchedFraction float64, cppsComputed bool, cfg ReliabilityConfig) ReliabilityInfo {
	tier := DominantTier(tierCounts)
	measured := tier.MeasuredPitch()

	grade := GradeTrendOnly
	switch {
	case tier == tonal.TierStandard && pitchedFraction > cfg.GoodPitchedFraction:
		grade = GradeGood
	case measured && pitchedFraction > cfg.OKPitchedFraction:
		grade = GradeOK
	}

	breaks := BreaksUnavailable
	switch tier {
	case tonal.TierStandard:
		breaks = BreaksValid
	case tonal.TierRelaxed:
		breaks = BreaksTrendOnly
	}

	return ReliabilityInfo{
		ActiveFraction:  activeFraction,
		PitchedFraction: pitchedFraction,
		DominantTier:    tier,
		AnalysisQuality: grade,
		MetricsValidity: MetricsValidity{
			Jitter:      measured && pitchedFraction > cfg.OKPitchedFraction,
			Shimmer:     measured,
			HNR:         measured,
			CPPS:        cppsComputed,
			VoiceBreaks: breaks,
		},
	}
}
