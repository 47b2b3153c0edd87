package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"keto-planner/internal/database"
	"keto-planner/internal/form"
)

// ErrProfileNotFound is returned when a user has not saved answers yet.
var ErrProfileNotFound = errors.New("profile not found")

// Profiles keeps the latest confirmed answers of each user.
type Profiles struct {
	db *sql.DB
}

// NewProfiles creates a Profiles repository.
func NewProfiles(db *sql.DB) *Profiles {
	return &Profiles{db: db}
}

// Upsert stores answers as the user's profile.
func (p *Profiles) Upsert(ctx context.Context, userID string, answers form.Answers) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, answers, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET answers = excluded.answers, updated_at = excluded.updated_at`,
		userID, string(data), database.FormatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to upsert profile for user %s: %w", userID, err)
	}
	return nil
}

// Get returns the user's saved answers.
func (p *Profiles) Get(ctx context.Context, userID string) (form.Answers, error) {
	var raw string
	err := p.db.QueryRowContext(ctx, `SELECT answers FROM profiles WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return form.Answers{}, ErrProfileNotFound
	}
	if err != nil {
		return form.Answers{}, fmt.Errorf("failed to load profile for user %s: %w", userID, err)
	}

	var a form.Answers
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return form.Answers{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return a, nil
}
