package spectral

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 44100

// harmonicTone approximates a glottal source: a fundamental with harmonics
// up to a quarter of the sample rate, falling off as 1/k.
func harmonicTone(f0 float64, sampleRate int, seconds float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		for k := 1; f0*float64(k) < float64(sampleRate)/4; k++ {
			out[i] += 0.15 / float64(k) * math.Sin(2*math.Pi*f0*float64(k)*t)
		}
	}
	return out
}

func whiteNoise(n int, amplitude float64) []float64 {
	rng := rand.New(rand.NewPCG(42, 7))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * (rng.Float64()*2 - 1)
	}
	return out
}

func TestCPPSSilenceIsGated(t *testing.T) {
	_, ok := CPPS(make([]float64, testRate), testRate, DefaultCPPSConfig())
	assert.False(t, ok)
}

func TestCPPSShortInput(t *testing.T) {
	_, ok := CPPS(make([]float64, 100), testRate, DefaultCPPSConfig())
	assert.False(t, ok)
}

func TestCPPSNoiseIsLow(t *testing.T) {
	cpps, ok := CPPS(whiteNoise(testRate, 0.5), testRate, DefaultCPPSConfig())
	require.True(t, ok)
	assert.Less(t, cpps, 1.0)
}

func TestCPPSPeriodicAboveNoise(t *testing.T) {
	tone, ok := CPPS(harmonicTone(100, testRate, 1), testRate, DefaultCPPSConfig())
	require.True(t, ok)

	noise, ok := CPPS(whiteNoise(testRate, 0.5), testRate, DefaultCPPSConfig())
	require.True(t, ok)

	assert.Greater(t, tone, noise)
	assert.Greater(t, tone, 2.0)
}

func TestCPPSPureSineAboveEqualEnergyNoise(t *testing.T) {
	const amplitude = 0.5
	sine := make([]float64, testRate)
	for i := range sine {
		sine[i] = amplitude * math.Sin(2*math.Pi*100*float64(i)/testRate)
	}
	// uniform noise on [-a, a] has RMS a/sqrt(3); match the sine's a/sqrt(2)
	noiseAmplitude := amplitude / math.Sqrt2 * math.Sqrt(3)
	noise := whiteNoise(testRate, noiseAmplitude)

	toneCPPS, ok := CPPS(sine, testRate, DefaultCPPSConfig())
	require.True(t, ok)
	noiseCPPS, ok := CPPS(noise, testRate, DefaultCPPSConfig())
	require.True(t, ok)

	assert.Greater(t, toneCPPS, noiseCPPS)
}

func TestCPPSDeterministic(t *testing.T) {
	signal := harmonicTone(140, 16000, 0.5)
	a, okA := CPPS(signal, 16000, DefaultCPPSConfig())
	b, okB := CPPS(signal, 16000, DefaultCPPSConfig())
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b)
}

func TestCPPSBandMustFitTransform(t *testing.T) {
	cfg := DefaultCPPSConfig()
	cfg.QuefrencyMinMs = 20
	cfg.QuefrencyMaxMs = 30
	_, ok := CPPS(harmonicTone(100, testRate, 1), testRate, cfg)
	assert.False(t, ok)
}

func TestAutocorrelationMatchesDirect(t *testing.T) {
	x := []float64{1, 2, 3, -1, 0.5}
	r := NewFFT(16).Autocorrelation(x)
	require.Len(t, r, len(x))
	for tau := range x {
		direct := 0.0
		for i := 0; i+tau < len(x); i++ {
			direct += x[i] * x[i+tau]
		}
		assert.InDelta(t, direct, r[tau], 1e-9, "tau=%d", tau)
	}
}
