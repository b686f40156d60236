package analysis

import (
	"errors"

	"github.com/RyanBlaney/voicevo/algorithms/speech"
)

// AnalysisVersion stamps stored results. Bump it whenever a change to the
// pipeline makes old numbers incomparable with new ones.
const AnalysisVersion = 2

var (
	// ErrNoVoicedContent is returned when no tier produced a voiced frame,
	// typically for silent or clipped-off recordings.
	ErrNoVoicedContent = errors.New("no voiced frames detected; recording may be silent or too quiet")
	// ErrTooFewTrials is returned when a multi-trial exercise lacks data.
	ErrTooFewTrials = errors.New("not enough trials")
	// ErrZeroDuration is returned for an S/Z analysis whose /z/ trials
	// average to zero.
	ErrZeroDuration = errors.New("mean /z/ duration is zero")
	// ErrInvalidEffort is returned for effort ratings outside 1-10.
	ErrInvalidEffort = errors.New("effort rating must be between 1 and 10")
	// ErrEmptySession is returned when a session carries no recordings.
	ErrEmptySession = errors.New("session has no recordings to analyze")
)

// Exercise names one kind of recording in a session.
type Exercise string

const (
	ExerciseSustained Exercise = "sustained"
	ExerciseScale     Exercise = "scale"
	ExerciseReading   Exercise = "reading"
	ExerciseFatigue   Exercise = "fatigue"
	ExerciseSZ        Exercise = "sz"
)

// Exercises lists every exercise in reporting order.
var Exercises = []Exercise{ExerciseSustained, ExerciseScale, ExerciseReading, ExerciseFatigue, ExerciseSZ}

// SustainedAnalysis summarises a sustained vowel.
type SustainedAnalysis struct {
	MPTSeconds          float64                 `json:"mpt_seconds"`
	MeanF0Hz            float64                 `json:"mean_f0_hz"`
	F0StdHz             float64                 `json:"f0_std_hz"`
	JitterLocalPercent  float64                 `json:"jitter_local_percent"`
	ShimmerLocalPercent float64                 `json:"shimmer_local_percent"`
	HNRDB               float64                 `json:"hnr_db"`
	CPPSDB              *float64                `json:"cpps_db,omitempty"`
	PeriodicityMean     *float64                `json:"periodicity_mean,omitempty"`
	DetectionQuality    string                  `json:"detection_quality,omitempty"` // empty means "pitch"
	Reliability         *speech.ReliabilityInfo `json:"reliability,omitempty"`
}

// ScaleAnalysis is the pitch range of a glide or chromatic scale.
type ScaleAnalysis struct {
	PitchFloorHz     float64 `json:"pitch_floor_hz"`
	PitchCeilingHz   float64 `json:"pitch_ceiling_hz"`
	RangeHz          float64 `json:"range_hz"`
	RangeSemitones   float64 `json:"range_semitones"`
	DetectionQuality string  `json:"detection_quality,omitempty"`
}

// ReadingAnalysis summarises connected speech.
type ReadingAnalysis struct {
	MeanF0Hz         float64                 `json:"mean_f0_hz"`
	F0StdHz          float64                 `json:"f0_std_hz"`
	F0RangeHz        [2]float64              `json:"f0_range_hz"` // 5th and 95th percentile
	VoiceBreaks      int                     `json:"voice_breaks"`
	VoicedFraction   float64                 `json:"voiced_fraction"`
	CPPSDB           *float64                `json:"cpps_db,omitempty"`
	DetectionQuality string                  `json:"detection_quality,omitempty"`
	Reliability      *speech.ReliabilityInfo `json:"reliability,omitempty"`
}

// SZAnalysis compares voiceless /s/ and voiced /z/ durations.
type SZAnalysis struct {
	SDurations []float64 `json:"s_durations"`
	ZDurations []float64 `json:"z_durations"`
	MeanS      float64   `json:"mean_s"`
	MeanZ      float64   `json:"mean_z"`
	SZRatio    float64   `json:"sz_ratio"`
}

// FatigueAnalysis tracks how repeated sustained vowels degrade. Negative
// MPT and CPPS slopes mean the voice tired across trials.
type FatigueAnalysis struct {
	MPTPerTrial    []float64  `json:"mpt_per_trial"`
	CPPSPerTrial   []*float64 `json:"cpps_per_trial"`
	EffortPerTrial []int      `json:"effort_per_trial"`
	MPTSlope       float64    `json:"mpt_slope"`
	CPPSSlope      float64    `json:"cpps_slope"`
	EffortSlope    float64    `json:"effort_slope"`
}

// Conditions records context that affects day-to-day comparability.
type Conditions struct {
	TimeOfDay     string `json:"time_of_day,omitempty"`
	FatigueLevel  int    `json:"fatigue_level,omitempty"` // 1-10
	ThroatCleared bool   `json:"throat_cleared"`
	MucusLevel    string `json:"mucus_level,omitempty"`
	Hydration     string `json:"hydration,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

func floatPtr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
