package analysis

import (
	"testing"

	"github.com/RyanBlaney/voicevo/algorithms/speech"
	"github.com/RyanBlaney/voicevo/analysis/config"
	"github.com/stretchr/testify/assert"
)

func TestSustainedFlags(t *testing.T) {
	th := config.Default().Thresholds

	healthy := &SustainedAnalysis{
		MPTSeconds:          18,
		JitterLocalPercent:  0.4,
		ShimmerLocalPercent: 2.1,
		HNRDB:               22,
		CPPSDB:              ptr(9),
	}
	assert.Empty(t, healthy.Flags(th))

	strained := &SustainedAnalysis{
		MPTSeconds:          6,
		JitterLocalPercent:  2.5,
		ShimmerLocalPercent: 6,
		HNRDB:               4,
		CPPSDB:              ptr(2),
	}
	assert.Len(t, strained.Flags(th), 5)

	strained.Reliability = &speech.ReliabilityInfo{
		MetricsValidity: speech.MetricsValidity{Shimmer: true, CPPS: true},
	}
	flags := strained.Flags(th)
	assert.Len(t, flags, 3)
	assert.Contains(t, flags[0], "shimmer")
}

func TestHNRLabel(t *testing.T) {
	th := config.Default().Thresholds
	assert.Equal(t, "healthy", HNRLabel(25, th))
	assert.Equal(t, "improving", HNRLabel(10, th))
	assert.Equal(t, "low", HNRLabel(3, th))
}
