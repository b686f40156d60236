package speech

import (
	"github.com/RyanBlaney/voicevo/algorithms/tonal"
)

// VoicedRun is an inclusive [Start, End] range of consecutive voiced frames.
type VoicedRun struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len is the number of frames in the run.
func (r VoicedRun) Len() int {
	return r.End - r.Start + 1
}

// Seconds is the run duration at the given hop.
func (r VoicedRun) Seconds(hopSizeMs float64) float64 {
	return float64(r.Len()) * hopSizeMs / 1000
}

// VoicedRuns collapses consecutive voiced frames into ascending runs.
func VoicedRuns(contour tonal.Contour) []VoicedRun {
	var runs []VoicedRun
	start := -1

	for i, f := range contour {
		switch {
		case f.Pitch.IsVoiced() && start < 0:
			start = i
		case !f.Pitch.IsVoiced() && start >= 0:
			runs = append(runs, VoicedRun{Start: start, End: i - 1})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, VoicedRun{Start: start, End: len(contour) - 1})
	}
	return runs
}

// gapFrames is the number of unvoiced frames between two ordered runs.
func gapFrames(prev, next VoicedRun) int {
	return next.Start - prev.End - 1
}

// MergeRuns joins neighbouring runs separated by at most maxGapFrames
// unvoiced frames. Order is preserved and merging is idempotent.
func MergeRuns(runs []VoicedRun, maxGapFrames int) []VoicedRun {
	if len(runs) == 0 {
		return nil
	}

	merged := []VoicedRun{runs[0]}
	for _, r := range runs[1:] {
		last := &merged[len(merged)-1]
		if gapFrames(*last, r) <= maxGapFrames {
			last.End = r.End
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// ContourConfig holds the time windows used to interpret voicing gaps.
type ContourConfig struct {
	MPTBridgeMs float64 `json:"mpt_bridge_ms" yaml:"mpt_bridge_ms"`
	BreakMinMs  float64 `json:"break_min_ms" yaml:"break_min_ms"`
	BreakMaxMs  float64 `json:"break_max_ms" yaml:"break_max_ms"`
}

// DefaultContourConfig bridges detector dropouts up to 250 ms and counts
// 50-250 ms gaps as voice breaks.
func DefaultContourConfig() ContourConfig {
	return ContourConfig{
		MPTBridgeMs: 250,
		BreakMinMs:  50,
		BreakMaxMs:  250,
	}
}

// ContourAnalyzer derives phonation and break measures from a contour.
type ContourAnalyzer struct {
	config    ContourConfig
	hopSizeMs float64
}

// NewContourAnalyzer creates an analyzer for contours produced at hopSizeMs.
func NewContourAnalyzer(config ContourConfig, hopSizeMs float64) *ContourAnalyzer {
	return &ContourAnalyzer{config: config, hopSizeMs: hopSizeMs}
}

// MaxPhonationTime is the longest voiced stretch in seconds after bridging
// gaps up to MPTBridgeMs. Longer gaps mean the speaker stopped.
func (ca *ContourAnalyzer) MaxPhonationTime(contour tonal.Contour) float64 {
	if ca.hopSizeMs <= 0 {
		return 0
	}
	maxGap := int(ca.config.MPTBridgeMs / ca.hopSizeMs)

	longest := 0.0
	for _, r := range MergeRuns(VoicedRuns(contour), maxGap) {
		longest = max(longest, r.Seconds(ca.hopSizeMs))
	}
	return longest
}

// CountVoiceBreaks counts gaps between voiced runs lasting between
// BreakMinMs and BreakMaxMs inclusive.
func (ca *ContourAnalyzer) CountVoiceBreaks(contour tonal.Contour) int {
	runs := VoicedRuns(contour)
	breaks := 0
	for i := 1; i < len(runs); i++ {
		gapMs := float64(gapFrames(runs[i-1], runs[i])) * ca.hopSizeMs
		if gapMs >= ca.config.BreakMinMs && gapMs <= ca.config.BreakMaxMs {
			breaks++
		}
	}
	return breaks
}

// VoiceBreaks counts breaks in a tracked contour. Energy fallback gaps are
// silence rather than voicing failure, so they always count zero.
func (ca *ContourAnalyzer) VoiceBreaks(track *tonal.PitchTrack) int {
	if track.FallbackUsed {
		return 0
	}
	return ca.CountVoiceBreaks(track.Contour)
}
