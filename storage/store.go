// Package storage keeps practice sessions and their versioned analysis
// results in a SQLite database.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/voicevo/logging"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a session or analysis does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
)

const dateLayout = "2006-01-02"

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id          INTEGER PRIMARY KEY,
		date        TEXT NOT NULL UNIQUE,
		created_at  TEXT NOT NULL,
		notes       TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS analyses (
		session_id  INTEGER NOT NULL,
		version     INTEGER NOT NULL,
		exercise    TEXT NOT NULL,
		payload     TEXT NOT NULL,
		PRIMARY KEY (session_id, version, exercise),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
`

// Session is one stored practice day.
type Session struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	Notes     string    `json:"notes,omitempty"`
}

// Store wraps the session database.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens or creates the database at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// A single connection keeps SQLite writes serialised and the pragma
	// below in effect for every statement.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{
		db: db,
		logger: logging.WithFields(logging.Fields{
			"component": "session_store",
			"path":      path,
		}),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSession creates the session for date, or updates its notes when it
// already exists, and returns its id.
func (s *Store) SaveSession(date, notes string) (int64, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	var id int64
	err := s.db.QueryRow(`
		INSERT INTO sessions (date, created_at, notes) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET notes = excluded.notes
		RETURNING id`,
		date, time.Now().UTC().Format(time.RFC3339), notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save session %s: %w", date, err)
	}

	s.logger.Debug("Session saved", logging.Fields{"date": date, "session_id": id})
	return id, nil
}

// SessionByDate looks a session up by its date.
func (s *Store) SessionByDate(date string) (*Session, error) {
	row := s.db.QueryRow("SELECT id, date, created_at, notes FROM sessions WHERE date = ?", date)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", date, err)
	}
	return session, nil
}

// ListSessions returns every session, oldest first.
func (s *Store) ListSessions() ([]Session, error) {
	rows, err := s.db.Query("SELECT id, date, created_at, notes FROM sessions ORDER BY date")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		session Session
		created string
	)
	if err := row.Scan(&session.ID, &session.Date, &created, &session.Notes); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	session.CreatedAt = t
	return &session, nil
}

// SaveAnalysis stores v as JSON under (session, version, exercise),
// replacing any previous result for the same key.
func (s *Store) SaveAnalysis(sessionID int64, exercise string, version int, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s analysis: %w", exercise, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO analyses (session_id, version, exercise, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, version, exercise) DO UPDATE SET payload = excluded.payload`,
		sessionID, version, exercise, string(payload),
	)
	if err != nil {
		return fmt.Errorf("save %s analysis for session %d: %w", exercise, sessionID, err)
	}

	s.logger.Debug("Analysis saved", logging.Fields{
		"session_id": sessionID,
		"exercise":   exercise,
		"version":    version,
		"bytes":      len(payload),
	})
	return nil
}

// LoadAnalysis decodes a stored result into out.
func (s *Store) LoadAnalysis(sessionID int64, exercise string, version int, out any) error {
	var payload string
	err := s.db.QueryRow(
		"SELECT payload FROM analyses WHERE session_id = ? AND version = ? AND exercise = ?",
		sessionID, version, exercise,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s analysis for session %d (v%d): %w", exercise, sessionID, version, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load %s analysis: %w", exercise, err)
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decode %s analysis: %w", exercise, err)
	}
	return nil
}

// Analyses returns the raw payloads of every exercise stored for a
// session at version, keyed by exercise.
func (s *Store) Analyses(sessionID int64, version int) (map[string]json.RawMessage, error) {
	rows, err := s.db.Query(
		"SELECT exercise, payload FROM analyses WHERE session_id = ? AND version = ? ORDER BY exercise",
		sessionID, version,
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var exercise, payload string
		if err := rows.Scan(&exercise, &payload); err != nil {
			return nil, fmt.Errorf("list analyses for session %d: %w", sessionID, err)
		}
		out[exercise] = json.RawMessage(payload)
	}
	return out, rows.Err()
}
