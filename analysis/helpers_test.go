package analysis

import (
	"math"

	"github.com/RyanBlaney/voicevo/transcode"
)

const testRate = 16000

// tone is a continuous-phase sine whose frequency steps through freqs,
// holding each for secondsEach.
func tone(amplitude, secondsEach float64, freqs ...float64) []float64 {
	n := int(secondsEach * testRate)
	out := make([]float64, 0, n*len(freqs))
	phase := 0.0
	for _, f := range freqs {
		for range n {
			out = append(out, amplitude*math.Sin(phase))
			phase += 2 * math.Pi * f / testRate
		}
	}
	return out
}

func silence(seconds float64) []float64 {
	return make([]float64, int(seconds*testRate))
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func audio(samples []float64) *transcode.AudioData {
	return &transcode.AudioData{PCM: samples, SampleRate: testRate, Channels: 1, BitDepth: 16}
}
