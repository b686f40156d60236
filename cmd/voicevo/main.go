// Command voicevo analyses voice practice recordings and tracks the results
// across sessions.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/RyanBlaney/voicevo/analysis"
	"github.com/RyanBlaney/voicevo/analysis/config"
	"github.com/RyanBlaney/voicevo/logging"
	"github.com/RyanBlaney/voicevo/monitor"
	"github.com/RyanBlaney/voicevo/storage"
	"github.com/RyanBlaney/voicevo/transcode"
)

const usage = `usage: voicevo <command> [flags]

commands:
  analyze   analyse a session's recordings and store the results
  show      print the stored results of one session
  list      list stored sessions
  compare   compare two sessions metric by metric
  monitor   stream a recording through the live pitch monitor
  passage   print the reading passage
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	logging.SetGlobalLogger(logging.NewDefaultLoggerWithWriters(stderr, stderr))
	if os.Getenv("NO_COLOR") != "" {
		logging.DisableColors()
	}

	var err error
	switch args[0] {
	case "analyze":
		err = runAnalyze(ctx, args[1:], stdout, stderr)
	case "show":
		err = runShow(args[1:], stdout, stderr)
	case "list":
		err = runList(args[1:], stdout, stderr)
	case "compare":
		err = runCompare(args[1:], stdout, stderr)
	case "monitor":
		err = runMonitor(ctx, args[1:], stdout, stderr)
	case "passage":
		err = runPassage(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "voicevo: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "voicevo: %v\n", err)
		return 1
	}
	return 0
}

// common flags shared by every subcommand
type commonFlags struct {
	configPath string
	dbPath     string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "path to the YAML configuration file (default "+defaultConfigPath+" when present)")
	fs.StringVar(&c.dbPath, "db", "data/voicevo.db", "path to the session database")
}

const defaultConfigPath = "voicevo.yaml"

// load reads the configuration. Only the implicit default path may be
// absent.
func (c *commonFlags) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath == "" {
		cfg, err = config.LoadOptional(defaultConfigPath)
	} else {
		cfg, err = config.Load(c.configPath)
	}
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(level)
	return cfg, nil
}

func newFlagSet(name string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("voicevo "+name, flag.ContinueOnError)
	fs.SetOutput(output)
	return fs
}

func runAnalyze(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		common     commonFlags
		date       string
		notes      string
		sustained  string
		scale      string
		reading    string
		sFiles     string
		zFiles     string
		fatigue    string
		conditions analysis.Conditions
	)
	fs := newFlagSet("analyze", stderr)
	common.register(fs)
	fs.StringVar(&date, "date", time.Now().Format("2006-01-02"), "session date (YYYY-MM-DD)")
	fs.StringVar(&notes, "notes", "", "free-form session notes")
	fs.StringVar(&sustained, "sustained", "", "sustained vowel recording")
	fs.StringVar(&scale, "scale", "", "scale or glide recording")
	fs.StringVar(&reading, "reading", "", "reading passage recording")
	fs.StringVar(&sFiles, "s", "", "comma-separated /s/ trial recordings")
	fs.StringVar(&zFiles, "z", "", "comma-separated /z/ trial recordings")
	fs.StringVar(&fatigue, "fatigue", "", "comma-separated fatigue trials as file.wav:effort")
	fs.StringVar(&conditions.TimeOfDay, "time-of-day", "", "recording time of day")
	fs.IntVar(&conditions.FatigueLevel, "fatigue-level", 0, "self-rated fatigue 1-10")
	fs.BoolVar(&conditions.ThroatCleared, "throat-cleared", false, "throat was cleared before recording")
	fs.StringVar(&conditions.MucusLevel, "mucus", "", "mucus level")
	fs.StringVar(&conditions.Hydration, "hydration", "", "hydration level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	conditions.Notes = notes

	cfg, err := common.load()
	if err != nil {
		return err
	}

	session := &analysis.Session{Date: date, Conditions: &conditions}
	if session.Sustained, err = loadOptional(sustained); err != nil {
		return err
	}
	if session.Scale, err = loadOptional(scale); err != nil {
		return err
	}
	if session.Reading, err = loadOptional(reading); err != nil {
		return err
	}
	if session.S, err = loadList(sFiles); err != nil {
		return err
	}
	if session.Z, err = loadList(zFiles); err != nil {
		return err
	}
	if session.Fatigue, err = loadFatigue(fatigue); err != nil {
		return err
	}

	result, err := analysis.NewAnalyzer(cfg, 0).Analyze(ctx, session)
	if err != nil {
		return err
	}
	for ex, exErr := range result.Errors {
		logging.Warn("Exercise skipped", logging.Fields{"exercise": string(ex), "error": exErr.Error()})
	}
	if len(result.Errors) == countPresent(session) {
		return errors.New("every exercise failed; nothing stored")
	}

	store, err := storage.Open(common.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveSession(date, notes)
	if err != nil {
		return err
	}
	for _, ex := range analysis.Exercises {
		if v := result.Result(ex); v != nil {
			if err := store.SaveAnalysis(id, string(ex), analysis.AnalysisVersion, v); err != nil {
				return err
			}
		}
	}
	if err := store.SaveAnalysis(id, conditionsKey, analysis.AnalysisVersion, result.Conditions); err != nil {
		return err
	}

	printFlags(result, cfg.Thresholds)
	return writeJSON(stdout, result)
}

const conditionsKey = "conditions"

func printFlags(result *analysis.SessionResult, t config.Thresholds) {
	var flags []string
	if result.Sustained != nil {
		flags = append(flags, result.Sustained.Flags(t)...)
		logging.Info("Sustained HNR", logging.Fields{
			"hnr_db": fmt.Sprintf("%.1f", result.Sustained.HNRDB),
			"grade":  analysis.HNRLabel(result.Sustained.HNRDB, t),
		})
	}
	if result.SZ != nil {
		flags = append(flags, result.SZ.Flags(t)...)
	}
	if result.Fatigue != nil {
		flags = append(flags, result.Fatigue.Flags()...)
	}
	for _, f := range flags {
		logging.Info("Outside reference range", logging.Fields{"flag": f})
	}
}

func countPresent(s *analysis.Session) int {
	n := 0
	for _, present := range []bool{
		s.Sustained != nil, s.Scale != nil, s.Reading != nil,
		len(s.Fatigue) > 0, len(s.S) > 0 || len(s.Z) > 0,
	} {
		if present {
			n++
		}
	}
	return n
}

func loadOptional(path string) (*transcode.AudioData, error) {
	if path == "" {
		return nil, nil
	}
	return transcode.LoadWAV(path)
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadList(list string) ([]*transcode.AudioData, error) {
	var out []*transcode.AudioData
	for _, path := range splitList(list) {
		data, err := transcode.LoadWAV(path)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func loadFatigue(list string) ([]analysis.FatigueRecording, error) {
	var out []analysis.FatigueRecording
	for _, item := range splitList(list) {
		idx := strings.LastIndex(item, ":")
		if idx < 0 {
			return nil, fmt.Errorf("fatigue trial %q: expected file.wav:effort", item)
		}
		effort, err := strconv.Atoi(item[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("fatigue trial %q: effort: %w", item, err)
		}
		data, err := transcode.LoadWAV(item[:idx])
		if err != nil {
			return nil, err
		}
		out = append(out, analysis.FatigueRecording{Audio: data, Effort: effort})
	}
	return out, nil
}

// loadResult rebuilds a session result from the stored payloads of the
// current analysis version.
func loadResult(store *storage.Store, date string) (*analysis.SessionResult, error) {
	session, err := store.SessionByDate(date)
	if err != nil {
		return nil, err
	}

	result := &analysis.SessionResult{Date: date, Version: analysis.AnalysisVersion}
	targets := map[string]any{
		string(analysis.ExerciseSustained): &result.Sustained,
		string(analysis.ExerciseScale):     &result.Scale,
		string(analysis.ExerciseReading):   &result.Reading,
		string(analysis.ExerciseFatigue):   &result.Fatigue,
		string(analysis.ExerciseSZ):        &result.SZ,
		conditionsKey:                      &result.Conditions,
	}
	for key, out := range targets {
		err := store.LoadAnalysis(session.ID, key, analysis.AnalysisVersion, out)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}
	return result, nil
}

func runShow(args []string, stdout, stderr io.Writer) error {
	var (
		common commonFlags
		date   string
	)
	fs := newFlagSet("show", stderr)
	common.register(fs)
	fs.StringVar(&date, "date", time.Now().Format("2006-01-02"), "session date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.Open(common.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := loadResult(store, date)
	if err != nil {
		return err
	}
	return writeJSON(stdout, result)
}

func runList(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := newFlagSet("list", stderr)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.Open(common.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.ListSessions()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tEXERCISES\tNOTES")
	for _, s := range sessions {
		payloads, err := store.Analyses(s.ID, analysis.AnalysisVersion)
		if err != nil {
			return err
		}
		var names []string
		for _, ex := range analysis.Exercises {
			if _, ok := payloads[string(ex)]; ok {
				names = append(names, string(ex))
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Date, strings.Join(names, ","), s.Notes)
	}
	return w.Flush()
}

func runCompare(args []string, stdout, stderr io.Writer) error {
	var (
		common            commonFlags
		baseline, current string
	)
	fs := newFlagSet("compare", stderr)
	common.register(fs)
	fs.StringVar(&baseline, "baseline", "", "baseline session date (YYYY-MM-DD)")
	fs.StringVar(&current, "current", time.Now().Format("2006-01-02"), "current session date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if baseline == "" {
		return errors.New("compare: -baseline is required")
	}

	store, err := storage.Open(common.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	b, err := loadResult(store, baseline)
	if err != nil {
		return err
	}
	c, err := loadResult(store, current)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "EXERCISE\tMETRIC\t%s\t%s\tDELTA\tTREND\n", baseline, current)
	for _, ch := range analysis.Compare(b, c) {
		trend := "worse"
		switch {
		case ch.Delta == 0:
			trend = "same"
		case ch.Improved():
			trend = "better"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%+.2f\t%s\n", ch.Exercise, ch.Metric, ch.Baseline, ch.Current, ch.Delta, trend)
	}
	return w.Flush()
}

func runMonitor(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		common commonFlags
		path   string
		chunk  int
	)
	fs := newFlagSet("monitor", stderr)
	common.register(fs)
	fs.StringVar(&path, "wav", "", "recording to stream")
	fs.IntVar(&chunk, "chunk", 512, "samples per capture chunk")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if path == "" {
		return errors.New("monitor: -wav is required")
	}
	if chunk <= 0 {
		return fmt.Errorf("monitor: -chunk %d must be positive", chunk)
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	data, err := transcode.LoadWAV(path)
	if err != nil {
		return err
	}

	in := make(chan []float64)
	go func() {
		defer close(in)
		for start := 0; start < len(data.PCM); start += chunk {
			select {
			case in <- data.PCM[start:min(start+chunk, len(data.PCM))]:
			case <-ctx.Done():
				return
			}
		}
	}()

	m, err := monitor.New(monitor.DefaultConfig(data.SampleRate, cfg.Pitch))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	for reading := range m.Run(ctx, in) {
		if err := enc.Encode(reading); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func runPassage(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	fs := newFlagSet("passage", stderr)
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, cfg.Session.ReadingPassage)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
