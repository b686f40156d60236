package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerRoutesByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&stdout, &stderr)

	logger.Debug("hidden")
	logger.Info("analysis complete", Fields{"exercise": "sustained"})
	logger.Warn("exercise failed", Fields{"exercise": "scale"})
	logger.Error(errors.New("disk full"), "store failed")

	assert.Equal(t, "[INFO] analysis complete exercise=sustained\n", stdout.String())
	assert.Equal(t, "[WARN] exercise failed exercise=scale\n[ERROR] store failed: disk full\n", stderr.String())
}

func TestWithFieldsAndContext(t *testing.T) {
	var stdout bytes.Buffer
	base := NewDefaultLoggerWithWriters(&stdout, &stdout)
	base.SetLevel(DebugLevel)

	ctx := ContextWithFields(context.Background(), Fields{"session": "2026-02-08"})
	base.WithFields(Fields{"component": "analyzer"}).WithContext(ctx).Debug("start")

	assert.Equal(t, "[DEBUG] start component=analyzer session=2026-02-08\n", stdout.String())
	assert.Same(t, base, base.WithContext(context.Background()))
}

func TestFatalCallsExit(t *testing.T) {
	var stderr bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&stderr, &stderr)
	code := -1
	logger.exit = func(c int) { code = c }

	logger.Fatal(errors.New("boom"), "cannot continue")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "[FATAL] cannot continue: boom")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"":        InfoLevel,
		"WARN":    WarnLevel,
		"warning": WarnLevel,
		" error ": ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	assert.IsType(t, &NoOpLogger{}, GetGlobalLogger())
	Info("dropped")
}

func TestDisableColorsOnGlobalLogger(t *testing.T) {
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })

	var stderr bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&stderr, &stderr)
	logger.useColors = true
	SetGlobalLogger(logger)

	Warn("noisy input")
	assert.Contains(t, stderr.String(), ColorYellow)

	stderr.Reset()
	DisableColors()
	Warn("noisy input")
	assert.Equal(t, "[WARN] noisy input\n", stderr.String())
}
