package spectral

import (
	"math"

	"github.com/RyanBlaney/voicevo/algorithms/common"
	"github.com/RyanBlaney/voicevo/algorithms/windowing"
)

// CPPSConfig controls cepstral peak prominence extraction.
type CPPSConfig struct {
	FrameSizeMs    float64 `json:"frame_size_ms" yaml:"frame_size_ms"`
	HopSizeMs      float64 `json:"hop_size_ms" yaml:"hop_size_ms"`
	QuefrencyMinMs float64 `json:"quefrency_min_ms" yaml:"quefrency_min_ms"`
	QuefrencyMaxMs float64 `json:"quefrency_max_ms" yaml:"quefrency_max_ms"`
	EnergyGateDB   float64 `json:"energy_gate_db" yaml:"energy_gate_db"`
}

// DefaultCPPSConfig covers 60-400 Hz voices with 40 ms frames.
func DefaultCPPSConfig() CPPSConfig {
	return CPPSConfig{
		FrameSizeMs:    40,
		HopSizeMs:      10,
		QuefrencyMinMs: 2.5,
		QuefrencyMaxMs: 16.7,
		EnergyGateDB:   -45,
	}
}

const logPowerFloor = -200.0

// CPPS computes the mean cepstral peak prominence (dB) over every frame
// above the energy gate. It does not use any pitch estimate.
//
// Per frame: Hann window, FFT, 10*log10 power spectrum, inverse FFT to the
// real cepstrum, then the peak inside the quefrency band minus the value of
// a regression line fitted over the same band at the peak position.
//
// The second result is false when no frame passed the gate or the band does
// not fit the transform.
//
// References:
//   - Hillenbrand, J., Cleveland, R.A., Erickson, R.L. (1994). Acoustic
//     correlates of breathy vocal quality. JSHR 37(4).
//   - Heman-Ackah, Y.D. et al. (2003). Cepstral peak prominence: a more
//     reliable measure of dysphonia. Ann Otol Rhinol Laryngol 112(4).
func CPPS(samples []float64, sampleRate int, cfg CPPSConfig) (float64, bool) {
	sr := float64(sampleRate)
	frameSize := int(cfg.FrameSizeMs / 1000 * sr)
	hopSize := max(1, int(cfg.HopSizeMs/1000*sr))

	if frameSize == 0 || len(samples) < frameSize {
		return 0, false
	}

	fftSize := common.NextPowerOfTwo(frameSize)
	qMin := int(cfg.QuefrencyMinMs / 1000 * sr)
	qMax := min(int(math.Ceil(cfg.QuefrencyMaxMs/1000*sr)), fftSize/2)
	if qMin >= qMax || qMax >= fftSize/2 {
		return 0, false
	}

	transform := NewFFT(fftSize)
	hann := windowing.NewHann(frameSize, true)

	var values []float64
	for pos := 0; pos+frameSize <= len(samples); pos += hopSize {
		frame := samples[pos : pos+frameSize]
		if common.RMSdB(frame) < cfg.EnergyGateDB {
			continue
		}

		cepstrum := realCepstrum(transform, hann.Apply(frame))
		if cpp, ok := peakProminence(cepstrum, qMin, qMax); ok {
			values = append(values, cpp)
		}
	}

	if len(values) == 0 {
		return 0, false
	}
	return common.Mean(values), true
}

func realCepstrum(transform *FFT, frame []float64) []float64 {
	spectrum := transform.Compute(frame)
	for i, c := range spectrum {
		power := real(c)*real(c) + imag(c)*imag(c)
		logPower := logPowerFloor
		if power > 1e-20 {
			logPower = 10 * math.Log10(power)
		}
		spectrum[i] = complex(logPower, 0)
	}
	return transform.ComputeInverseReal(spectrum)
}

// peakProminence measures how far the cepstral peak in [qMin, qMax] rises
// above the linear trend of that band.
func peakProminence(cepstrum []float64, qMin, qMax int) (float64, bool) {
	if qMin >= qMax || qMax >= len(cepstrum) {
		return 0, false
	}

	band := cepstrum[qMin : qMax+1]
	quefrency := make([]float64, len(band))
	peakIdx := 0
	for i := range band {
		quefrency[i] = float64(qMin + i)
		if band[i] > band[peakIdx] {
			peakIdx = i
		}
	}

	slope, intercept := common.LinRegression(quefrency, band)
	return band[peakIdx] - (slope*quefrency[peakIdx] + intercept), true
}
