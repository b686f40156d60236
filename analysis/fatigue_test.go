package analysis

import (
	"testing"

	"github.com/RyanBlaney/voicevo/algorithms/temporal"
	"github.com/RyanBlaney/voicevo/analysis/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestAnalyzeFatigue(t *testing.T) {
	t.Run("declining MPT", func(t *testing.T) {
		trials := []FatigueTrial{
			{MPTSeconds: 10, Effort: 3},
			{MPTSeconds: 9, Effort: 4},
			{MPTSeconds: 8, Effort: 5},
			{MPTSeconds: 7, Effort: 6},
			{MPTSeconds: 6, Effort: 7},
		}
		result, err := AnalyzeFatigue(trials)
		require.NoError(t, err)
		assert.InDelta(t, -1, result.MPTSlope, 1e-9)
		assert.InDelta(t, 1, result.EffortSlope, 1e-9)
		assert.Zero(t, result.CPPSSlope)
		assert.Equal(t, []int{3, 4, 5, 6, 7}, result.EffortPerTrial)
		assert.Len(t, result.Flags(), 1)
	})

	t.Run("stable MPT", func(t *testing.T) {
		result, err := AnalyzeFatigue([]FatigueTrial{
			{MPTSeconds: 10, Effort: 3},
			{MPTSeconds: 10, Effort: 3},
			{MPTSeconds: 10, Effort: 3},
		})
		require.NoError(t, err)
		assert.InDelta(t, 0, result.MPTSlope, 1e-9)
		assert.Empty(t, result.Flags())
	})

	t.Run("CPPS slope uses trials with a value", func(t *testing.T) {
		result, err := AnalyzeFatigue([]FatigueTrial{
			{MPTSeconds: 10, CPPSDB: ptr(8), Effort: 3},
			{MPTSeconds: 9, Effort: 4},
			{MPTSeconds: 8, CPPSDB: ptr(6), Effort: 5},
		})
		require.NoError(t, err)
		assert.InDelta(t, -1, result.CPPSSlope, 1e-9)
		assert.Nil(t, result.CPPSPerTrial[1])
	})

	t.Run("single CPPS value leaves slope at zero", func(t *testing.T) {
		result, err := AnalyzeFatigue([]FatigueTrial{
			{MPTSeconds: 10, CPPSDB: ptr(8), Effort: 3},
			{MPTSeconds: 9, Effort: 4},
		})
		require.NoError(t, err)
		assert.Zero(t, result.CPPSSlope)
	})

	t.Run("too few trials", func(t *testing.T) {
		_, err := AnalyzeFatigue([]FatigueTrial{{MPTSeconds: 10, Effort: 3}})
		assert.ErrorIs(t, err, ErrTooFewTrials)
	})

	t.Run("effort out of range", func(t *testing.T) {
		_, err := AnalyzeFatigue([]FatigueTrial{{MPTSeconds: 10, Effort: 3}, {MPTSeconds: 9, Effort: 11}})
		assert.ErrorIs(t, err, ErrInvalidEffort)
	})
}

func TestTrialFromRecording(t *testing.T) {
	cfg := config.Default()
	samples := concat(tone(0.5, 2.0, 140), silence(0.5))

	trial, err := TrialFromRecording(samples, testRate, 4, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, trial.MPTSeconds, 0.2)
	assert.Equal(t, 4, trial.Effort)

	_, err = TrialFromRecording(samples, testRate, 0, cfg)
	assert.ErrorIs(t, err, ErrInvalidEffort)

	_, err = TrialFromRecording(silence(1), testRate, 4, cfg)
	assert.ErrorIs(t, err, ErrNoVoicedContent)
}

func TestAnalyzeSZ(t *testing.T) {
	t.Run("normal ratio", func(t *testing.T) {
		result, err := AnalyzeSZ([]float64{10, 11}, []float64{10.5, 10})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, result.SZRatio, 0.15)
		assert.InDelta(t, 10.5, result.MeanS, 0.01)
		assert.Empty(t, result.Flags(config.Default().Thresholds))
	})

	t.Run("elevated ratio", func(t *testing.T) {
		result, err := AnalyzeSZ([]float64{15, 14}, []float64{8, 7})
		require.NoError(t, err)
		assert.Greater(t, result.SZRatio, 1.4)
		assert.Len(t, result.Flags(config.Default().Thresholds), 1)
	})

	t.Run("single trial each", func(t *testing.T) {
		result, err := AnalyzeSZ([]float64{12}, []float64{10})
		require.NoError(t, err)
		assert.InDelta(t, 1.2, result.SZRatio, 0.01)
	})

	t.Run("missing trials", func(t *testing.T) {
		_, err := AnalyzeSZ(nil, []float64{10})
		assert.ErrorIs(t, err, ErrTooFewTrials)
		_, err = AnalyzeSZ([]float64{10}, nil)
		assert.ErrorIs(t, err, ErrTooFewTrials)
	})

	t.Run("zero z", func(t *testing.T) {
		_, err := AnalyzeSZ([]float64{10}, []float64{0})
		assert.ErrorIs(t, err, ErrZeroDuration)
	})
}

func TestPhonationDuration(t *testing.T) {
	samples := concat(silence(0.3), tone(0.1, 1.2, 200), silence(0.4))
	got := PhonationDuration(samples, testRate, temporal.DefaultActivityConfig())
	assert.InDelta(t, 1.2, got, 0.03)

	assert.Zero(t, PhonationDuration(silence(1), testRate, temporal.DefaultActivityConfig()))
}
