package tonal

import (
	"github.com/RyanBlaney/voicevo/algorithms/common"
	"github.com/RyanBlaney/voicevo/algorithms/spectral"
)

// keyMaximumCutoff is McLeod's k: the first key maximum within this
// fraction of the highest one is taken as the period.
const keyMaximumCutoff = 0.9

// PeriodEstimate is the threshold-independent outcome of one NSDF frame.
// Callers decide whether to accept it.
type PeriodEstimate struct {
	Frequency float64 // Hz, 0 when no key maximum was found
	Clarity   float64 // NSDF value at the chosen maximum, in [-1, 1]
	Power     float64 // sum of squares of the windowed frame
}

// Accept reports whether the estimate passes the given thresholds and range.
func (e PeriodEstimate) Accept(powerThreshold, clarityThreshold, floorHz, ceilingHz float64) bool {
	return e.Frequency > 0 &&
		e.Power >= powerThreshold &&
		e.Clarity >= clarityThreshold &&
		e.Frequency >= floorHz && e.Frequency <= ceilingHz
}

// McLeodDetector estimates the period of a fixed-size frame with the
// normalized square difference function.
//
// References:
//   - McLeod, P., Wyvill, G. (2005). "A smarter way to find pitch"
type McLeodDetector struct {
	sampleRate int
	size       int
	padding    int
	fft        *spectral.FFT
}

// NewMcLeodDetector creates a detector for frames of length size. Lags are
// searched up to padding samples, so the lowest detectable frequency is
// sampleRate/padding.
func NewMcLeodDetector(sampleRate, size, padding int) *McLeodDetector {
	return &McLeodDetector{
		sampleRate: sampleRate,
		size:       size,
		padding:    padding,
		fft:        spectral.NewFFT(common.NextPowerOfTwo(size + padding)),
	}
}

// Size returns the expected frame length.
func (d *McLeodDetector) Size() int {
	return d.size
}

// Estimate runs the NSDF on an already windowed frame of length Size.
func (d *McLeodDetector) Estimate(frame []float64) PeriodEstimate {
	est := PeriodEstimate{Power: common.SumSquares(frame)}
	if len(frame) != d.size || est.Power == 0 {
		return est
	}

	nsdf := d.nsdf(frame)
	peaks := keyMaxima(nsdf)
	if len(peaks) == 0 {
		return est
	}

	highest := nsdf[peaks[0]]
	for _, p := range peaks[1:] {
		highest = max(highest, nsdf[p])
	}

	chosen := peaks[0]
	for _, p := range peaks {
		if nsdf[p] >= keyMaximumCutoff*highest {
			chosen = p
			break
		}
	}

	lag := parabolicInterpolation(nsdf, chosen)
	if lag <= 0 {
		return est
	}
	est.Frequency = float64(d.sampleRate) / lag
	est.Clarity = nsdf[chosen]
	return est
}

// nsdf computes n(tau) = 2 r(tau) / m(tau) for tau in [0, padding].
// r comes from the FFT autocorrelation; m(tau) = sum over the overlap of
// x[j]^2 + x[j+tau]^2 and is updated incrementally.
func (d *McLeodDetector) nsdf(frame []float64) []float64 {
	r := d.fft.Autocorrelation(frame)
	maxLag := min(d.padding, len(frame)-1)

	n := make([]float64, maxLag+1)
	m := 2 * r[0]
	for tau := 0; tau <= maxLag; tau++ {
		if tau > 0 {
			m -= frame[tau-1]*frame[tau-1] + frame[len(frame)-tau]*frame[len(frame)-tau]
		}
		if m > 0 {
			n[tau] = 2 * r[tau] / m
		}
	}
	return n
}

// keyMaxima returns the lag of the highest value inside each positive
// region of nsdf after the first negative-going zero crossing. A region
// still open at the end of the lag range is ignored.
func keyMaxima(nsdf []float64) []int {
	tau := 1
	for tau < len(nsdf) && nsdf[tau] > 0 {
		tau++
	}

	var peaks []int
	inRegion := false
	best := 0
	for ; tau < len(nsdf); tau++ {
		switch {
		case nsdf[tau] > 0 && !inRegion:
			inRegion = true
			best = tau
		case nsdf[tau] > 0:
			if nsdf[tau] > nsdf[best] {
				best = tau
			}
		case inRegion:
			peaks = append(peaks, best)
			inRegion = false
		}
	}
	return peaks
}

// parabolicInterpolation refines a peak index using its two neighbours.
func parabolicInterpolation(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(peakIdx)
	}

	return float64(peakIdx) - b/(2*a)
}
