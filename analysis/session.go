package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RyanBlaney/voicevo/algorithms/filters"
	"github.com/RyanBlaney/voicevo/analysis/config"
	"github.com/RyanBlaney/voicevo/logging"
	"github.com/RyanBlaney/voicevo/transcode"
	"golang.org/x/sync/errgroup"
)

// FatigueRecording is one fatigue trial before measurement.
type FatigueRecording struct {
	Audio  *transcode.AudioData
	Effort int
}

// Session bundles the recordings of one practice day. Every field is
// optional; absent exercises are skipped.
type Session struct {
	Date       string
	Sustained  *transcode.AudioData
	Scale      *transcode.AudioData
	Reading    *transcode.AudioData
	Fatigue    []FatigueRecording
	S          []*transcode.AudioData
	Z          []*transcode.AudioData
	Conditions *Conditions
}

func (s *Session) exercises() []Exercise {
	var present []Exercise
	if s.Sustained != nil {
		present = append(present, ExerciseSustained)
	}
	if s.Scale != nil {
		present = append(present, ExerciseScale)
	}
	if s.Reading != nil {
		present = append(present, ExerciseReading)
	}
	if len(s.Fatigue) > 0 {
		present = append(present, ExerciseFatigue)
	}
	if len(s.S) > 0 || len(s.Z) > 0 {
		present = append(present, ExerciseSZ)
	}
	return present
}

// SessionResult holds every analysis that succeeded. Failed exercises are
// listed in Errors and leave their field nil.
type SessionResult struct {
	Date       string             `json:"date"`
	Version    int                `json:"analysis_version"`
	Sustained  *SustainedAnalysis `json:"sustained,omitempty"`
	Scale      *ScaleAnalysis     `json:"scale,omitempty"`
	Reading    *ReadingAnalysis   `json:"reading,omitempty"`
	Fatigue    *FatigueAnalysis   `json:"fatigue,omitempty"`
	SZ         *SZAnalysis        `json:"sz,omitempty"`
	Conditions *Conditions        `json:"conditions,omitempty"`

	Errors map[Exercise]error `json:"-"`
}

// Result returns the analysis for one exercise, or nil.
func (r *SessionResult) Result(ex Exercise) any {
	switch ex {
	case ExerciseSustained:
		if r.Sustained != nil {
			return r.Sustained
		}
	case ExerciseScale:
		if r.Scale != nil {
			return r.Scale
		}
	case ExerciseReading:
		if r.Reading != nil {
			return r.Reading
		}
	case ExerciseFatigue:
		if r.Fatigue != nil {
			return r.Fatigue
		}
	case ExerciseSZ:
		if r.SZ != nil {
			return r.SZ
		}
	}
	return nil
}

// Analyzer runs the exercise pipelines of a session.
type Analyzer struct {
	config  *config.Config
	workers int
	logger  logging.Logger
}

// NewAnalyzer creates an analyzer. workers bounds how many exercises are
// analysed at once; 0 means no limit.
func NewAnalyzer(cfg *config.Config, workers int) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Analyzer{
		config:  cfg,
		workers: workers,
		logger: logging.WithFields(logging.Fields{
			"component": "session_analyzer",
		}),
	}
}

// Analyze runs every exercise present in the session concurrently. A
// failing exercise is recorded in the result's Errors and never stops the
// others; only cancellation of ctx fails the call as a whole.
func (a *Analyzer) Analyze(ctx context.Context, session *Session) (*SessionResult, error) {
	exercises := session.exercises()
	if len(exercises) == 0 {
		return nil, ErrEmptySession
	}

	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{"date": session.Date})
	start := time.Now()

	result := &SessionResult{
		Date:       session.Date,
		Version:    AnalysisVersion,
		Conditions: session.Conditions,
		Errors:     make(map[Exercise]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if a.workers > 0 {
		g.SetLimit(a.workers)
	}

	for _, ex := range exercises {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			began := time.Now()
			err := a.run(ex, session, result, &mu)
			if err != nil {
				logger.Warn("Exercise analysis failed", logging.Fields{
					"exercise": string(ex),
					"error":    err.Error(),
				})
				mu.Lock()
				result.Errors[ex] = err
				mu.Unlock()
				return nil
			}
			logger.Debug("Exercise analysed", logging.Fields{
				"exercise": string(ex),
				"elapsed":  time.Since(began).String(),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze session %s: %w", session.Date, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze session %s: %w", session.Date, err)
	}

	logger.Info("Session analysed", logging.Fields{
		"exercises": len(exercises),
		"failed":    len(result.Errors),
		"elapsed":   time.Since(start).String(),
	})
	return result, nil
}

// samples returns the recording as analysed, after optional DC removal.
func (a *Analyzer) samples(rec *transcode.AudioData) []float64 {
	if cutoff := a.config.Recording.DCCutoffHz; cutoff > 0 {
		return filters.RemoveDC(rec.PCM, rec.SampleRate, cutoff)
	}
	return rec.PCM
}

func (a *Analyzer) run(ex Exercise, s *Session, result *SessionResult, mu *sync.Mutex) error {
	cfg := a.config

	switch ex {
	case ExerciseSustained:
		r, err := AnalyzeSustained(a.samples(s.Sustained), s.Sustained.SampleRate, cfg)
		if err != nil {
			return err
		}
		mu.Lock()
		result.Sustained = r
		mu.Unlock()

	case ExerciseScale:
		r, err := AnalyzeScale(a.samples(s.Scale), s.Scale.SampleRate, cfg)
		if err != nil {
			return err
		}
		mu.Lock()
		result.Scale = r
		mu.Unlock()

	case ExerciseReading:
		r, err := AnalyzeReading(a.samples(s.Reading), s.Reading.SampleRate, cfg)
		if err != nil {
			return err
		}
		mu.Lock()
		result.Reading = r
		mu.Unlock()

	case ExerciseFatigue:
		trials := make([]FatigueTrial, 0, len(s.Fatigue))
		for i, rec := range s.Fatigue {
			trial, err := TrialFromRecording(a.samples(rec.Audio), rec.Audio.SampleRate, rec.Effort, cfg)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i+1, err)
			}
			trials = append(trials, trial)
		}
		r, err := AnalyzeFatigue(trials)
		if err != nil {
			return err
		}
		mu.Lock()
		result.Fatigue = r
		mu.Unlock()

	case ExerciseSZ:
		r, err := AnalyzeSZ(a.durations(s.S), a.durations(s.Z))
		if err != nil {
			return err
		}
		mu.Lock()
		result.SZ = r
		mu.Unlock()

	default:
		return fmt.Errorf("unknown exercise %q", ex)
	}
	return nil
}

func (a *Analyzer) durations(recordings []*transcode.AudioData) []float64 {
	out := make([]float64, len(recordings))
	for i, rec := range recordings {
		out[i] = PhonationDuration(a.samples(rec), rec.SampleRate, a.config.Activity)
	}
	return out
}
