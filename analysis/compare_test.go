package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	baseline := &SessionResult{
		Sustained: &SustainedAnalysis{MPTSeconds: 8, JitterLocalPercent: 1.5, CPPSDB: ptr(5)},
		Reading:   &ReadingAnalysis{VoiceBreaks: 4},
	}
	current := &SessionResult{
		Sustained: &SustainedAnalysis{MPTSeconds: 11, JitterLocalPercent: 0.9},
		Reading:   &ReadingAnalysis{VoiceBreaks: 2},
		Scale:     &ScaleAnalysis{RangeSemitones: 20},
	}

	changes := Compare(baseline, current)
	byMetric := make(map[string]Change)
	for _, c := range changes {
		byMetric[string(c.Exercise)+"."+c.Metric] = c
	}

	mpt, ok := byMetric["sustained.mpt_seconds"]
	require.True(t, ok)
	assert.InDelta(t, 3, mpt.Delta, 1e-9)
	assert.True(t, mpt.Improved())

	jitter := byMetric["sustained.jitter_local_percent"]
	assert.True(t, jitter.Improved())

	assert.NotContains(t, byMetric, "sustained.cpps_db")
	assert.NotContains(t, byMetric, "scale.range_semitones")
	assert.True(t, byMetric["reading.voice_breaks"].Improved())
}
