package tonal

import (
	"encoding/json"
	"fmt"
)

// Pitch is a per-frame fundamental frequency estimate: either Voiced with a
// frequency in Hz or Unvoiced. The zero value is Unvoiced.
type Pitch struct {
	hz     float64
	voiced bool
}

// Voiced returns a pitch at hz.
func Voiced(hz float64) Pitch {
	return Pitch{hz: hz, voiced: true}
}

// Unvoiced returns the absent pitch.
func Unvoiced() Pitch {
	return Pitch{}
}

// Hz returns the frequency and whether the frame was voiced.
func (p Pitch) Hz() (float64, bool) {
	return p.hz, p.voiced
}

// IsVoiced reports whether a frequency is present.
func (p Pitch) IsVoiced() bool {
	return p.voiced
}

// MarshalJSON encodes a voiced pitch as its frequency and an unvoiced one as null.
func (p Pitch) MarshalJSON() ([]byte, error) {
	if !p.voiced {
		return []byte("null"), nil
	}
	return json.Marshal(p.hz)
}

// UnmarshalJSON accepts a number or null.
func (p *Pitch) UnmarshalJSON(data []byte) error {
	var hz *float64
	if err := json.Unmarshal(data, &hz); err != nil {
		return err
	}
	if hz == nil {
		*p = Unvoiced()
		return nil
	}
	*p = Voiced(*hz)
	return nil
}

// Tier identifies the detection regime that produced a voiced frame.
type Tier int

const (
	// TierNone marks unvoiced frames.
	TierNone Tier = iota
	// TierStandard is periodicity detection with the configured thresholds.
	TierStandard
	// TierRelaxed is periodicity detection with lowered thresholds.
	TierRelaxed
	// TierEnergyFallback frames carry an estimated F0 and only prove that
	// sound was present.
	TierEnergyFallback
)

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierRelaxed:
		return "relaxed"
	case TierEnergyFallback:
		return "energy_fallback"
	default:
		return "none"
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (t *Tier) UnmarshalText(text []byte) error {
	for _, candidate := range []Tier{TierNone, TierStandard, TierRelaxed, TierEnergyFallback} {
		if candidate.String() == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown pitch tier %q", text)
}

// Label is the detection-quality label reported with analysis results.
func (t Tier) Label() string {
	switch t {
	case TierStandard:
		return "pitch"
	case TierRelaxed:
		return "relaxed_pitch"
	case TierEnergyFallback:
		return "energy_fallback"
	default:
		return "none"
	}
}

// MeasuredPitch reports whether the tier came from periodicity detection
// rather than an energy estimate.
func (t Tier) MeasuredPitch() bool {
	return t == TierStandard || t == TierRelaxed
}

// PitchFrame is one hop position of a contour.
type PitchFrame struct {
	Time  float64 `json:"time"`
	Pitch Pitch   `json:"frequency"`
	Tier  Tier    `json:"tier"`
}

// Contour is a time-ordered pitch track, one frame per hop.
type Contour []PitchFrame

// VoicedFrequencies returns the frequencies of voiced frames in order.
func (c Contour) VoicedFrequencies() []float64 {
	var out []float64
	for _, f := range c {
		if hz, ok := f.Pitch.Hz(); ok {
			out = append(out, hz)
		}
	}
	return out
}

// VoicedMask returns true for every voiced frame.
func (c Contour) VoicedMask() []bool {
	mask := make([]bool, len(c))
	for i, f := range c {
		mask[i] = f.Pitch.IsVoiced()
	}
	return mask
}

// VoicedFraction is the share of voiced frames, 0 for an empty contour.
func (c Contour) VoicedFraction() float64 {
	if len(c) == 0 {
		return 0
	}
	voiced := 0
	for _, f := range c {
		if f.Pitch.IsVoiced() {
			voiced++
		}
	}
	return float64(voiced) / float64(len(c))
}
