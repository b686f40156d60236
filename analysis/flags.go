package analysis

import (
	"fmt"

	"github.com/RyanBlaney/voicevo/analysis/config"
)

// Flags lists results beyond the clinical reference values. Metrics that
// the reliability annotation marks as unusable are not flagged.
func (s *SustainedAnalysis) Flags(t config.Thresholds) []string {
	var flags []string

	validJitter, validShimmer, validHNR := true, true, true
	if r := s.Reliability; r != nil {
		validJitter = r.MetricsValidity.Jitter
		validShimmer = r.MetricsValidity.Shimmer
		validHNR = r.MetricsValidity.HNR
	}

	if validJitter && s.JitterLocalPercent > t.JitterPathological {
		flags = append(flags, fmt.Sprintf("jitter %.2f%% above %.2f%%", s.JitterLocalPercent, t.JitterPathological))
	}
	if validShimmer && s.ShimmerLocalPercent > t.ShimmerPathological {
		flags = append(flags, fmt.Sprintf("shimmer %.2f%% above %.2f%%", s.ShimmerLocalPercent, t.ShimmerPathological))
	}
	if validHNR && s.HNRDB < t.HNRLow {
		flags = append(flags, fmt.Sprintf("HNR %.1f dB below %.1f dB", s.HNRDB, t.HNRLow))
	}
	if s.CPPSDB != nil && *s.CPPSDB < t.CPPSLow {
		flags = append(flags, fmt.Sprintf("CPPS %.1f dB below %.1f dB", *s.CPPSDB, t.CPPSLow))
	}
	if s.MPTSeconds < t.MPTLow {
		flags = append(flags, fmt.Sprintf("MPT %.1f s below %.1f s", s.MPTSeconds, t.MPTLow))
	}
	return flags
}

// HNRLabel grades an HNR value as healthy, improving or low.
func HNRLabel(hnr float64, t config.Thresholds) string {
	switch {
	case hnr >= t.HNRNormal:
		return "healthy"
	case hnr >= t.HNRLow:
		return "improving"
	default:
		return "low"
	}
}

// Flags reports an elevated S/Z ratio.
func (s *SZAnalysis) Flags(t config.Thresholds) []string {
	if s.SZRatio > t.SZRatioHigh {
		return []string{fmt.Sprintf("S/Z ratio %.2f above %.2f", s.SZRatio, t.SZRatioHigh)}
	}
	return nil
}

// Flags reports declining endurance across fatigue trials.
func (f *FatigueAnalysis) Flags() []string {
	var flags []string
	if f.MPTSlope < 0 {
		flags = append(flags, fmt.Sprintf("MPT declining %.2f s per trial", f.MPTSlope))
	}
	if f.CPPSSlope < 0 {
		flags = append(flags, fmt.Sprintf("CPPS declining %.2f dB per trial", f.CPPSSlope))
	}
	return flags
}
