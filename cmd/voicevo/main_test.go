package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RyanBlaney/voicevo/analysis"
	"github.com/RyanBlaney/voicevo/transcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rate = 16000

func writeTone(t *testing.T, dir, name string, freq, seconds float64) string {
	t.Helper()
	n := int(seconds * rate)
	samples := make([]float64, n+rate/4)
	for i := range n {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, transcode.SaveWAV(path, samples, rate))
	return path
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "voicevo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestAnalyzeShowList(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "voicevo.db")
	cfg := writeConfig(t, dir)
	sustained := writeTone(t, dir, "sustained.wav", 150, 2)
	s := writeTone(t, dir, "s.wav", 200, 1)
	z := writeTone(t, dir, "z.wav", 200, 1)

	code, out, errOut := runCLI(t, "analyze",
		"-config", cfg, "-db", db, "-date", "2026-02-08",
		"-sustained", sustained, "-s", s, "-z", z,
		"-time-of-day", "morning",
	)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, "Sustained HNR")

	var result analysis.SessionResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotNil(t, result.Sustained)
	assert.InDelta(t, 150, result.Sustained.MeanF0Hz, 2)
	require.NotNil(t, result.SZ)
	assert.InDelta(t, 1, result.SZ.SZRatio, 0.05)

	code, out, errOut = runCLI(t, "show", "-config", cfg, "-db", db, "-date", "2026-02-08")
	require.Equal(t, 0, code, errOut)
	var shown analysis.SessionResult
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	require.NotNil(t, shown.Sustained)
	assert.InDelta(t, result.Sustained.MPTSeconds, shown.Sustained.MPTSeconds, 1e-9)
	require.NotNil(t, shown.Conditions)
	assert.Equal(t, "morning", shown.Conditions.TimeOfDay)
	assert.Nil(t, shown.Scale)

	code, out, errOut = runCLI(t, "list", "-config", cfg, "-db", db)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "2026-02-08")
	assert.Contains(t, out, "sustained,sz")

	code, out, errOut = runCLI(t, "compare", "-config", cfg, "-db", db, "-baseline", "2026-02-08", "-current", "2026-02-08")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "mpt_seconds")
	assert.Contains(t, out, "same")
}

func TestAnalyzeErrors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "voicevo.db")
	cfg := writeConfig(t, dir)

	code, _, errOut := runCLI(t, "analyze", "-config", cfg, "-db", db, "-sustained", filepath.Join(dir, "nope.wav"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "nope.wav")

	code, _, errOut = runCLI(t, "analyze", "-config", cfg, "-db", db, "-fatigue", "trial.wav")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "file.wav:effort")

	code, _, errOut = runCLI(t, "analyze", "-config", cfg, "-db", db)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, analysis.ErrEmptySession.Error())

	code, _, errOut = runCLI(t, "analyze", "-config", filepath.Join(dir, "typo.yaml"), "-db", db)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "typo.yaml")
}

func TestAnalyzeStoresNothingWhenEveryExerciseFails(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "voicevo.db")
	cfg := writeConfig(t, dir)
	silent := writeTone(t, dir, "silent.wav", 0, 1)

	code, out, errOut := runCLI(t, "analyze", "-config", cfg, "-db", db, "-date", "2026-03-01", "-sustained", silent)
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "every exercise failed")

	code, out, errOut = runCLI(t, "list", "-config", cfg, "-db", db)
	require.Equal(t, 0, code, errOut)
	assert.NotContains(t, out, "2026-03-01")
}

func TestShowMissingSession(t *testing.T) {
	dir := t.TempDir()
	code, _, errOut := runCLI(t, "show", "-config", writeConfig(t, dir), "-db", filepath.Join(dir, "v.db"), "-date", "2026-01-01")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")
}

func TestMonitorCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeTone(t, dir, "tone.wav", 220, 0.5)

	code, out, errOut := runCLI(t, "monitor", "-config", writeConfig(t, dir), "-wav", path)
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	var first struct {
		Pitch   *float64 `json:"pitch"`
		LevelDB float64  `json:"level_db"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NotNil(t, first.Pitch)
	assert.InDelta(t, 220, *first.Pitch, 2)
}

func TestUsage(t *testing.T) {
	code, _, errOut := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage")

	code, _, errOut = runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown command")

	code, out, _ := runCLI(t, "passage")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "rainbow")
}
