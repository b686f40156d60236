package speech

import (
	"math"

	"github.com/RyanBlaney/voicevo/algorithms/tonal"
)

const testRate = 44100

// contourOf builds a 10 ms contour; a zero frequency is an unvoiced frame.
func contourOf(tier tonal.Tier, freqs ...float64) tonal.Contour {
	c := make(tonal.Contour, len(freqs))
	for i, hz := range freqs {
		c[i].Time = float64(i) * 0.01
		if hz > 0 {
			c[i].Pitch = tonal.Voiced(hz)
			c[i].Tier = tier
		}
	}
	return c
}

// pattern expands (count, hz) pairs into a frequency list.
func pattern(pairs ...float64) []float64 {
	var out []float64
	for i := 0; i+1 < len(pairs); i += 2 {
		for range int(pairs[i]) {
			out = append(out, pairs[i+1])
		}
	}
	return out
}

func alternating(n int, a, b float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = a
		if i%2 == 1 {
			out[i] = b
		}
	}
	return out
}

func sine(freq, amplitude float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}
