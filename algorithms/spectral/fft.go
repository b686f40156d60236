package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the go-dsp transforms used by the cepstral and autocorrelation
// stages. Inputs are zero-padded to Size.
type FFT struct {
	size int
}

// NewFFT creates a transform of the given length. Power-of-two sizes take
// the radix-2 path in go-dsp.
func NewFFT(size int) *FFT {
	return &FFT{size: size}
}

// Size returns the transform length.
func (f *FFT) Size() int {
	return f.size
}

// Compute returns the spectrum of x zero-padded (or truncated) to Size.
func (f *FFT) Compute(x []float64) []complex128 {
	if f.size == 0 {
		return []complex128{}
	}
	padded := make([]float64, f.size)
	copy(padded, x)
	return fft.FFTReal(padded)
}

// ComputeInverseReal returns the real part of the inverse transform.
// go-dsp already scales the inverse by 1/N.
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	realResult := make([]float64, len(result))
	for i, val := range result {
		realResult[i] = real(val)
	}
	return realResult
}

// Autocorrelation returns r(tau) = sum x[i]*x[i+tau] for tau in [0, len(x)),
// computed through the power spectrum. Size must be at least 2*len(x)-1 to
// avoid circular wrap-around.
func (f *FFT) Autocorrelation(x []float64) []float64 {
	spectrum := f.Compute(x)
	for i, c := range spectrum {
		spectrum[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	full := f.ComputeInverseReal(spectrum)
	n := min(len(x), len(full))
	return full[:n]
}
