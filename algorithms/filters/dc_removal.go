package filters

import (
	"math"
)

// DCRemoval is a one-pole DC blocking filter:
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCRemoval struct {
	pole float64 // R, 0 < R < 1

	x1     float64
	y1     float64
	primed bool
}

// NewDCRemoval creates a filter with its -3 dB point at cutoffHz, using
// R = 1 - 2*pi*fc/fs.
func NewDCRemoval(sampleRate int, cutoffHz float64) *DCRemoval {
	pole := 0.995
	if sampleRate > 0 && cutoffHz > 0 {
		pole = 1 - 2*math.Pi*cutoffHz/float64(sampleRate)
	}
	return &DCRemoval{pole: min(max(pole, 0.001), 0.999)}
}

// Pole returns R.
func (dc *DCRemoval) Pole() float64 {
	return dc.pole
}

// Process filters one sample. The first sample after a Reset seeds the
// input history, so a constant offset produces no start-up step.
func (dc *DCRemoval) Process(x float64) float64 {
	if !dc.primed {
		dc.x1, dc.primed = x, true
	}
	y := x - dc.x1 + dc.pole*dc.y1
	dc.x1, dc.y1 = x, y
	return y
}

// ProcessBuffer filters a whole buffer into a new slice.
func (dc *DCRemoval) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, x := range input {
		output[i] = dc.Process(x)
	}
	return output
}

// Reset clears the filter state.
func (dc *DCRemoval) Reset() {
	dc.x1, dc.y1, dc.primed = 0, 0, false
}

// RemoveDC returns samples with the DC offset and content below cutoffHz
// attenuated.
func RemoveDC(samples []float64, sampleRate int, cutoffHz float64) []float64 {
	return NewDCRemoval(sampleRate, cutoffHz).ProcessBuffer(samples)
}
