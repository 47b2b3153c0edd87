package planner

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

var (
	// ErrPlanNotFound is returned when no plan has the requested id.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrForbidden is returned when a plan belongs to another user.
	ErrForbidden = errors.New("plan belongs to another user")
)

// StoredPlan is a persisted plan row.
type StoredPlan struct {
	ID        string
	UserID    string
	PlanData  []byte // {"raw": "<generation text>"}
	CreatedAt time.Time
}

type planData struct {
	Raw string `json:"raw"`
}

// Raw returns the generation text stored in PlanData.
func (p StoredPlan) Raw() string {
	var d planData
	if err := json.Unmarshal(p.PlanData, &d); err != nil {
		return string(p.PlanData)
	}
	return d.Raw
}

// Result normalizes the stored text for display.
func (p StoredPlan) Result() Result {
	return Normalize(p.Raw())
}

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d, now: time.Now}
}

// Save inserts a plan owned by userID and returns its id.
func (r *PlanRepository) Save(ctx context.Context, userID, raw string) (string, error) {
	data, err := json.Marshal(planData{Raw: raw})
	if err != nil {
		return "", fmt.Errorf("failed to encode plan: %w", err)
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO plans (id, user_id, plan_data, created_at) VALUES (?, ?, ?, ?)`,
		id, userID, string(data), database.FormatTime(r.now()))
	if err != nil {
		return "", fmt.Errorf("failed to save plan for user %s: %w", userID, err)
	}
	return id, nil
}

// GetForUser loads a plan and checks that userID owns it.
func (r *PlanRepository) GetForUser(ctx context.Context, id, userID string) (*StoredPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, plan_data, created_at FROM plans WHERE id = ?`, id)

	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s: %w", id, err)
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	return p, nil
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, plan_data, created_at FROM plans
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read plan row: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (*StoredPlan, error) {
	var (
		p       StoredPlan
		data    string
		created string
	)
	if err := s.Scan(&p.ID, &p.UserID, &data, &created); err != nil {
		return nil, err
	}
	p.PlanData = []byte(data)
	p.CreatedAt = database.ParseTime(created)
	return &p, nil
}

// CountByUserID reports how many plans a user has saved.
func (r *PlanRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plans WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count plans for user %s: %w", userID, err)
	}
	return n, nil
}
