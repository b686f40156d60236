package windowing

import (
	"fmt"
	"math"
)

// Hann is a precomputed Hann taper. Pitch frames and CPPS frames both use
// the symmetric form, which reaches exactly zero at both edges.
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

// w(n) = 0.5 * (1 - cos(2*pi*n / D)), D = N-1 for symmetric, N for periodic.
func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)
	if h.size == 1 {
		h.coefficients[0] = 1
		return
	}

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}

	for i := range h.size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
}

// Apply returns a windowed copy of frame. Frames of the wrong length yield nil.
func (h *Hann) Apply(frame []float64) []float64 {
	if len(frame) != h.size {
		return nil
	}

	windowed := make([]float64, h.size)
	for i, c := range h.coefficients {
		windowed[i] = frame[i] * c
	}
	return windowed
}

// ApplyInPlace tapers frame in place.
func (h *Hann) ApplyInPlace(frame []float64) error {
	if len(frame) != h.size {
		return fmt.Errorf("frame length (%d) doesn't match window size (%d)", len(frame), h.size)
	}

	for i, c := range h.coefficients {
		frame[i] *= c
	}
	return nil
}

// Size returns the window length
func (h *Hann) Size() int {
	return h.size
}
