// Package session keeps per-visitor state on the server, keyed by a session
// id carried in a cookie (web) or derived from the chat id (bot).
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"keto-planner/internal/database"
)

// Fixed entry names.
const (
	NameFormData      = "formData"
	NameGeneratedPlan = "generatedPlan"
	NameSavedPlan     = "savedPlan"
)

// ErrNotFound is returned by Get when the entry does not exist.
var ErrNotFound = errors.New("session entry not found")

// Envelope is the stored form of every entry.
type Envelope struct {
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
}

// Store persists envelopes in the sessions table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore creates a Store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// Put wraps payload in an envelope and stores it under (sessionID, name),
// replacing any previous value.
func (s *Store) Put(ctx context.Context, sessionID, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", name, err)
	}

	now := s.now()
	env, err := json.Marshal(Envelope{Payload: data, Timestamp: now.UnixMilli()})
	if err != nil {
		return fmt.Errorf("failed to encode %s envelope: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, name, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id, name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		sessionID, name, string(env), database.FormatTime(now))
	if err != nil {
		return fmt.Errorf("failed to store session entry %s: %w", name, err)
	}
	return nil
}

// Get decodes the payload stored under (sessionID, name) into dst and
// returns the time it was written.
func (s *Store) Get(ctx context.Context, sessionID, name string, dst any) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE session_id = ? AND name = ?`, sessionID, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load session entry %s: %w", name, err)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode %s envelope: %w", name, err)
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode %s payload: %w", name, err)
	}
	return time.UnixMilli(env.Timestamp), nil
}

// Delete removes one entry. Deleting a missing entry is not an error.
func (s *Store) Delete(ctx context.Context, sessionID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ? AND name = ?`, sessionID, name)
	if err != nil {
		return fmt.Errorf("failed to delete session entry %s: %w", name, err)
	}
	return nil
}

// Clear removes every entry of a session.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// CleanupOlderThan removes entries not written within age and reports how
// many were removed.
func (s *Store) CleanupOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	threshold := database.FormatTime(s.now().Add(-age))
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return res.RowsAffected()
}
