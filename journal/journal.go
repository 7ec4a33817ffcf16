// journal/journal.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package journal keeps a sqlite database of replayed sessions with their
// mode transitions and FMA events, so that runs can be compared and
// queried after the fact.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmp/autoflight/autopilot"
	"github.com/mmp/autoflight/log"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrUnknownSession = errors.New("Unknown journal session")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	profile TEXT NOT NULL,
	source  TEXT NOT NULL,
	started INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS transitions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	session   TEXT NOT NULL REFERENCES sessions(id),
	time      REAL NOT NULL,
	machine   TEXT NOT NULL,
	name      TEXT NOT NULL,
	from_mode TEXT NOT NULL,
	to_mode   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS transitions_session ON transitions(session, time);
CREATE TABLE IF NOT EXISTS fma_events (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT NOT NULL REFERENCES sessions(id),
	time    REAL NOT NULL,
	event   TEXT NOT NULL
);`

// Session describes one journaled run.
type Session struct {
	ID      uuid.UUID
	Name    string
	Profile string
	Source  string
	Started time.Time
}

type FMAEvent struct {
	Time  float64
	Event string
}

// Store is a journal database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
	lg *log.Logger
}

// Open opens or creates the journal at path; ":memory:" gives a private
// in-memory journal.
func Open(path string, lg *log.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// A single connection serializes the writers and keeps an in-memory
	// database alive.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA foreign_keys = ON", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create journal: %w", err)
		}
	}
	lg.Debugf("%s: journal opened", path)
	return &Store{db: db, lg: lg}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Begin records the start of a session and returns its id.
func (s *Store) Begin(ctx context.Context, name, profile, source string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions (id, name, profile, source, started) VALUES (?, ?, ?, ?, ?)`,
		id.String(), name, profile, source, time.Now().UnixMilli())
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin session: %w", err)
	}
	s.lg.Debug("journal session", "id", id.String(), "name", name, "profile", profile)
	return id, nil
}

func (s *Store) RecordTransition(ctx context.Context, session uuid.UUID, tr autopilot.Transition) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (session, time, machine, name, from_mode, to_mode) VALUES (?, ?, ?, ?, ?, ?)`,
		session.String(), tr.Time, tr.Machine, tr.Name, tr.From, tr.To)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

func (s *Store) RecordFMAEvent(ctx context.Context, session uuid.UUID, t float64, event string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO fma_events (session, time, event) VALUES (?, ?, ?)`,
		session.String(), t, event)
	if err != nil {
		return fmt.Errorf("record FMA event: %w", err)
	}
	return nil
}

func (s *Store) checkSession(ctx context.Context, session uuid.UUID) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, session.String()).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", session, ErrUnknownSession)
	}
	return nil
}

// Transitions returns a session's transitions in time order.
func (s *Store) Transitions(ctx context.Context, session uuid.UUID) ([]autopilot.Transition, error) {
	if err := s.checkSession(ctx, session); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, machine, name, from_mode, to_mode FROM transitions WHERE session = ? ORDER BY time, id`,
		session.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trs []autopilot.Transition
	for rows.Next() {
		var tr autopilot.Transition
		if err := rows.Scan(&tr.Time, &tr.Machine, &tr.Name, &tr.From, &tr.To); err != nil {
			return nil, err
		}
		trs = append(trs, tr)
	}
	return trs, rows.Err()
}

func (s *Store) FMAEvents(ctx context.Context, session uuid.UUID) ([]FMAEvent, error) {
	if err := s.checkSession(ctx, session); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT time, event FROM fma_events WHERE session = ? ORDER BY time, id`,
		session.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evs []FMAEvent
	for rows.Next() {
		var ev FMAEvent
		if err := rows.Scan(&ev.Time, &ev.Event); err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
	return evs, rows.Err()
}

// Sessions returns all sessions, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, profile, source, started FROM sessions ORDER BY started, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ss []Session
	for rows.Next() {
		var (
			sess    Session
			id      string
			started int64
		)
		if err := rows.Scan(&id, &sess.Name, &sess.Profile, &sess.Source, &started); err != nil {
			return nil, err
		}
		if sess.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("session id %q: %w", id, err)
		}
		sess.Started = time.UnixMilli(started)
		ss = append(ss, sess)
	}
	return ss, rows.Err()
}
