// Package monitor turns a stream of capture chunks into live pitch and
// level readings.
package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/RyanBlaney/voicevo/algorithms/common"
	"github.com/RyanBlaney/voicevo/algorithms/tonal"
	"github.com/RyanBlaney/voicevo/algorithms/windowing"
	"github.com/RyanBlaney/voicevo/logging"
)

// Config controls the live estimator. WindowSize is the detector window in
// samples and HopSize how many new samples trigger a reading.
type Config struct {
	SampleRate       int
	WindowSize       int
	HopSize          int
	SilenceDB        float64
	FloorHz          float64
	CeilingHz        float64
	PowerThreshold   float64
	ClarityThreshold float64
}

// DefaultConfig uses a 2048-sample window advanced by half a window and
// the standard-tier thresholds of pitch.
func DefaultConfig(sampleRate int, pitch tonal.PitchConfig) Config {
	return Config{
		SampleRate:       sampleRate,
		WindowSize:       2048,
		HopSize:          1024,
		SilenceDB:        -50,
		FloorHz:          pitch.FloorHz,
		CeilingHz:        pitch.CeilingHz,
		PowerThreshold:   pitch.PowerThreshold,
		ClarityThreshold: pitch.ClarityThreshold,
	}
}

// ErrInvalidConfig is returned by New for unusable window geometry.
var ErrInvalidConfig = errors.New("invalid monitor config")

// Validate checks the window geometry.
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate %d must be positive", c.SampleRate))
	}
	if c.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("window size %d must be positive", c.WindowSize))
	}
	if c.HopSize <= 0 {
		errs = append(errs, fmt.Errorf("hop size %d must be positive", c.HopSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Reading is one live estimate over the most recent window.
type Reading struct {
	Pitch   tonal.Pitch `json:"pitch"`
	LevelDB float64     `json:"level_db"`
	Silent  bool        `json:"silent"`
}

// Monitor estimates pitch on the newest window of a capture stream.
type Monitor struct {
	config   Config
	detector *tonal.McLeodDetector
	window   *windowing.Hann
	buffer   *common.CircularBuffer
	logger   logging.Logger
}

// New creates a monitor.
func New(config Config) (*Monitor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Monitor{
		config:   config,
		detector: tonal.NewMcLeodDetector(config.SampleRate, config.WindowSize, config.WindowSize/2),
		window:   windowing.NewHann(config.WindowSize, true),
		buffer:   common.NewCircularBuffer(config.WindowSize),
		logger: logging.WithFields(logging.Fields{
			"component":   "live_monitor",
			"sample_rate": config.SampleRate,
		}),
	}, nil
}

// Run consumes chunks from in and emits a Reading each time HopSize new
// samples have arrived and a full window is buffered. The returned channel
// closes when in closes or ctx is done. A Monitor must not be shared
// between concurrent Run calls.
func (m *Monitor) Run(ctx context.Context, in <-chan []float64) <-chan Reading {
	out := make(chan Reading, 1)

	go func() {
		defer close(out)
		m.buffer.Clear()

		frame := make([]float64, m.config.WindowSize)
		pending := 0
		emitted := 0

		for {
			var chunk []float64
			select {
			case <-ctx.Done():
				m.logger.Debug("Monitor stopped", logging.Fields{
					"readings": emitted,
					"buffered": m.buffer.Available(),
					"reason":   ctx.Err().Error(),
				})
				return
			case c, ok := <-in:
				if !ok {
					m.logger.Debug("Capture stream closed", logging.Fields{
						"readings": emitted,
						"buffered": m.buffer.Available(),
					})
					return
				}
				chunk = c
			}

			m.buffer.Write(chunk)
			pending += len(chunk)
			if pending < m.config.HopSize || !m.buffer.IsFull() {
				continue
			}
			pending %= m.config.HopSize

			m.buffer.Latest(frame)
			reading := m.estimate(frame)

			select {
			case out <- reading:
				emitted++
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// levelFloorDB stands in for the level of digital silence.
const levelFloorDB = -120.0

func (m *Monitor) estimate(frame []float64) Reading {
	level := max(common.RMSdB(frame), levelFloorDB)
	reading := Reading{
		Pitch:   tonal.Unvoiced(),
		LevelDB: level,
		Silent:  level < m.config.SilenceDB,
	}
	if reading.Silent {
		return reading
	}

	if err := m.window.ApplyInPlace(frame); err != nil {
		m.logger.Error(err, "Window mismatch")
		return reading
	}
	est := m.detector.Estimate(frame)
	if est.Accept(m.config.PowerThreshold, m.config.ClarityThreshold, m.config.FloorHz, m.config.CeilingHz) {
		reading.Pitch = tonal.Voiced(est.Frequency)
	}
	return reading
}
