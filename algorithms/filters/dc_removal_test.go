package filters

import (
	"math"
	"testing"

	"github.com/RyanBlaney/voicevo/algorithms/common"
	"github.com/stretchr/testify/assert"
)

func TestRemoveDCConstantOffset(t *testing.T) {
	samples := make([]float64, 1000)
	for i := range samples {
		samples[i] = 0.05
	}
	out := RemoveDC(samples, 16000, 10)
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestRemoveDCKeepsTone(t *testing.T) {
	const rate = 16000
	samples := make([]float64, rate)
	for i := range samples {
		samples[i] = 0.2 + 0.5*math.Sin(2*math.Pi*150*float64(i)/rate)
	}

	out := RemoveDC(samples, rate, 10)
	tail := out[rate/2:]
	assert.InDelta(t, 0, common.Mean(tail), 0.01)
	assert.InDelta(t, 0.5/math.Sqrt2, common.RMS(tail), 0.01)
}

func TestDCRemovalPole(t *testing.T) {
	assert.InDelta(t, 1-2*math.Pi*10/16000, NewDCRemoval(16000, 10).Pole(), 1e-12)
	assert.Equal(t, 0.995, NewDCRemoval(0, 10).Pole())
	assert.Equal(t, 0.001, NewDCRemoval(100, 1000).Pole())
}

func TestDCRemovalReset(t *testing.T) {
	dc := NewDCRemoval(16000, 10)
	dc.Process(1)
	dc.Process(-1)
	dc.Reset()
	assert.Zero(t, dc.Process(0.3))
}
