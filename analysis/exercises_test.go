package analysis

import (
	"encoding/json"
	"testing"

	"github.com/RyanBlaney/voicevo/algorithms/speech"
	"github.com/RyanBlaney/voicevo/algorithms/tonal"
	"github.com/RyanBlaney/voicevo/analysis/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeSustainedSteadyTone(t *testing.T) {
	samples := concat(silence(0.2), tone(0.5, 2.5, 150), silence(0.5))

	result, err := AnalyzeSustained(samples, testRate, config.Default())
	require.NoError(t, err)

	assert.InDelta(t, 150, result.MeanF0Hz, 2)
	assert.Less(t, result.F0StdHz, 3.0)
	assert.InDelta(t, 2.55, result.MPTSeconds, 0.2)
	assert.Less(t, result.JitterLocalPercent, 1.0)
	assert.Less(t, result.ShimmerLocalPercent, 1.0)
	assert.Greater(t, result.HNRDB, 15.0)
	assert.Empty(t, result.DetectionQuality)

	require.NotNil(t, result.Reliability)
	assert.Greater(t, result.Reliability.PitchedFraction, 0.5)
	assert.Equal(t, speech.GradeGood, result.Reliability.AnalysisQuality)
	require.NotNil(t, result.PeriodicityMean)
	assert.Greater(t, *result.PeriodicityMean, 0.9)
}

func TestAnalyzeSustainedSilence(t *testing.T) {
	_, err := AnalyzeSustained(silence(2), testRate, config.Default())
	assert.ErrorIs(t, err, ErrNoVoicedContent)
}

func TestSustainedJSONOmitsDefaultQuality(t *testing.T) {
	data, err := json.Marshal(SustainedAnalysis{MPTSeconds: 12})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "detection_quality")
	assert.NotContains(t, string(data), "cpps_db")

	data, err = json.Marshal(SustainedAnalysis{DetectionQuality: "energy_fallback"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"detection_quality":"energy_fallback"`)
}

func TestAnalyzeScaleRange(t *testing.T) {
	samples := tone(0.5, 2.0, 110, 165, 220)

	result, err := AnalyzeScale(samples, testRate, config.Default())
	require.NoError(t, err)

	assert.InDelta(t, 110, result.PitchFloorHz, 3)
	assert.InDelta(t, 220, result.PitchCeilingHz, 4)
	assert.InDelta(t, result.PitchCeilingHz-result.PitchFloorHz, result.RangeHz, 1e-9)
	assert.InDelta(t, 12, result.RangeSemitones, 0.6)
}

func TestAnalyzeScaleSilence(t *testing.T) {
	_, err := AnalyzeScale(silence(1), testRate, config.Default())
	assert.ErrorIs(t, err, ErrNoVoicedContent)
}

func TestSemitones(t *testing.T) {
	assert.InDelta(t, 12, semitones(100, 200), 1e-9)
	assert.InDelta(t, 24, semitones(100, 400), 1e-9)
	assert.Zero(t, semitones(0, 200))
}

func TestAnalyzeReadingWithBreak(t *testing.T) {
	samples := concat(tone(0.5, 1.0, 180), silence(0.25), tone(0.5, 1.0, 180))

	result, err := AnalyzeReading(samples, testRate, config.Default())
	require.NoError(t, err)

	assert.InDelta(t, 180, result.MeanF0Hz, 3)
	assert.InDelta(t, 180, result.F0RangeHz[0], 4)
	assert.InDelta(t, 180, result.F0RangeHz[1], 4)
	assert.Equal(t, 1, result.VoiceBreaks)
	assert.Greater(t, result.VoicedFraction, 0.5)
	assert.Less(t, result.VoicedFraction, 1.0)
	require.NotNil(t, result.Reliability)
	assert.Equal(t, speech.BreaksValid, result.Reliability.MetricsValidity.VoiceBreaks)
}

func TestAnalyzeReadingSilence(t *testing.T) {
	_, err := AnalyzeReading(silence(1), testRate, config.Default())
	assert.ErrorIs(t, err, ErrNoVoicedContent)
}

// energyFallbackConfig makes both periodic tiers reject every frame, so
// tracking drops to the energy-only contour.
func energyFallbackConfig() *config.Config {
	cfg := config.Default()
	cfg.Pitch.ClarityThreshold = 8
	return cfg
}

func assertTrendOnly(t *testing.T, info *speech.ReliabilityInfo) {
	t.Helper()
	require.NotNil(t, info)
	assert.Equal(t, tonal.TierEnergyFallback, info.DominantTier)
	assert.Equal(t, speech.GradeTrendOnly, info.AnalysisQuality)
	assert.False(t, info.MetricsValidity.Jitter)
	assert.False(t, info.MetricsValidity.Shimmer)
	assert.False(t, info.MetricsValidity.HNR)
	assert.Equal(t, speech.BreaksUnavailable, info.MetricsValidity.VoiceBreaks)
}

func TestEnergyFallbackMeasurementsAreTrendOnly(t *testing.T) {
	cfg := energyFallbackConfig()
	withGap := concat(tone(0.5, 1.0, 180), silence(0.25), tone(0.5, 1.0, 180))

	t.Run("sustained", func(t *testing.T) {
		samples := concat(silence(0.2), tone(0.5, 2.5, 150), silence(0.5))
		result, err := AnalyzeSustained(samples, testRate, cfg)
		require.NoError(t, err)

		assert.Zero(t, result.JitterLocalPercent)
		assert.Equal(t, "energy_fallback", result.DetectionQuality)
		assert.Equal(t, cfg.Pitch.Fallback.DefaultF0Hz, result.MeanF0Hz)
		assert.Greater(t, result.MPTSeconds, 2.0)
		assertTrendOnly(t, result.Reliability)

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"detection_quality":"energy_fallback"`)
		assert.Contains(t, string(data), `"dominant_tier":"energy_fallback"`)
	})

	t.Run("reading", func(t *testing.T) {
		result, err := AnalyzeReading(withGap, testRate, cfg)
		require.NoError(t, err)

		assert.Zero(t, result.VoiceBreaks)
		assert.Equal(t, "energy_fallback", result.DetectionQuality)
		assertTrendOnly(t, result.Reliability)
	})

	t.Run("gap alone would count as a break", func(t *testing.T) {
		track := tonal.NewPitchTracker(cfg.Pitch).Track(withGap, testRate)
		require.True(t, track.FallbackUsed)

		contour := speech.NewContourAnalyzer(cfg.Contour, cfg.Pitch.HopSizeMs)
		assert.Equal(t, 1, contour.CountVoiceBreaks(track.Contour))
		assert.Zero(t, contour.VoiceBreaks(track))
	})
}
