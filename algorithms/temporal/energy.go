package temporal

import (
	"math"

	"github.com/RyanBlaney/voicevo/algorithms/common"
)

// Energy computes framed level measurements.
type Energy struct {
	frameSize int
	hopSize   int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize int) *Energy {
	return &Energy{
		frameSize: frameSize,
		hopSize:   hopSize,
	}
}

// FrameCount is the number of full frames that fit in n samples.
func (e *Energy) FrameCount(n int) int {
	if n < e.frameSize || e.hopSize <= 0 || e.frameSize <= 0 {
		return 0
	}
	return (n-e.frameSize)/e.hopSize + 1
}

// ComputeShortTimeEnergy returns the RMS of every full frame.
func (e *Energy) ComputeShortTimeEnergy(signal []float64) []float64 {
	numFrames := e.FrameCount(len(signal))
	energies := make([]float64, numFrames)

	for i := range numFrames {
		start := i * e.hopSize
		energies[i] = common.RMS(signal[start : start+e.frameSize])
	}
	return energies
}

// ComputeLogEnergy returns per-frame RMS in dBFS. Silent frames are -Inf.
func (e *Energy) ComputeLogEnergy(signal []float64) []float64 {
	energies := e.ComputeShortTimeEnergy(signal)
	for i, rms := range energies {
		if rms == 0 {
			energies[i] = math.Inf(-1)
			continue
		}
		energies[i] = 20.0 * math.Log10(rms)
	}
	return energies
}
