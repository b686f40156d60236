package analysis

// Change is one metric compared between two sessions.
type Change struct {
	Exercise       Exercise `json:"exercise"`
	Metric         string   `json:"metric"`
	Baseline       float64  `json:"baseline"`
	Current        float64  `json:"current"`
	Delta          float64  `json:"delta"`
	HigherIsBetter bool     `json:"higher_is_better"`
}

// Improved reports whether the change moved in the desirable direction.
func (c Change) Improved() bool {
	if c.HigherIsBetter {
		return c.Delta > 0
	}
	return c.Delta < 0
}

// Compare lists metric changes for every exercise present in both results.
func Compare(baseline, current *SessionResult) []Change {
	var changes []Change
	add := func(ex Exercise, metric string, b, c float64, higherIsBetter bool) {
		changes = append(changes, Change{
			Exercise:       ex,
			Metric:         metric,
			Baseline:       b,
			Current:        c,
			Delta:          c - b,
			HigherIsBetter: higherIsBetter,
		})
	}

	if b, c := baseline.Sustained, current.Sustained; b != nil && c != nil {
		add(ExerciseSustained, "mpt_seconds", b.MPTSeconds, c.MPTSeconds, true)
		add(ExerciseSustained, "mean_f0_hz", b.MeanF0Hz, c.MeanF0Hz, true)
		add(ExerciseSustained, "f0_std_hz", b.F0StdHz, c.F0StdHz, false)
		add(ExerciseSustained, "jitter_local_percent", b.JitterLocalPercent, c.JitterLocalPercent, false)
		add(ExerciseSustained, "shimmer_local_percent", b.ShimmerLocalPercent, c.ShimmerLocalPercent, false)
		add(ExerciseSustained, "hnr_db", b.HNRDB, c.HNRDB, true)
		if b.CPPSDB != nil && c.CPPSDB != nil {
			add(ExerciseSustained, "cpps_db", *b.CPPSDB, *c.CPPSDB, true)
		}
	}

	if b, c := baseline.Scale, current.Scale; b != nil && c != nil {
		add(ExerciseScale, "pitch_floor_hz", b.PitchFloorHz, c.PitchFloorHz, false)
		add(ExerciseScale, "pitch_ceiling_hz", b.PitchCeilingHz, c.PitchCeilingHz, true)
		add(ExerciseScale, "range_semitones", b.RangeSemitones, c.RangeSemitones, true)
	}

	if b, c := baseline.Reading, current.Reading; b != nil && c != nil {
		add(ExerciseReading, "mean_f0_hz", b.MeanF0Hz, c.MeanF0Hz, true)
		add(ExerciseReading, "f0_std_hz", b.F0StdHz, c.F0StdHz, true)
		add(ExerciseReading, "voice_breaks", float64(b.VoiceBreaks), float64(c.VoiceBreaks), false)
		add(ExerciseReading, "voiced_fraction", b.VoicedFraction, c.VoicedFraction, true)
	}

	if b, c := baseline.SZ, current.SZ; b != nil && c != nil {
		add(ExerciseSZ, "sz_ratio", b.SZRatio, c.SZRatio, false)
	}

	return changes
}
