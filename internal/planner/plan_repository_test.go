package planner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"keto-planner/internal/database"
	"keto-planner/internal/logger"
)

func newTestRepository(t *testing.T) *PlanRepository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "plans.db"), logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPlanRepository(db.SQL)
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	raw := "## Day 1\n### Breakfast\nEggs\n### Lunch\nSalad\n### Dinner\nSteak\n"
	id, err := repo.Save(ctx, "user-1", raw)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Run("owner can read", func(t *testing.T) {
		p, err := repo.GetForUser(ctx, id, "user-1")
		if err != nil {
			t.Fatalf("GetForUser failed: %v", err)
		}
		if p.Raw() != raw {
			t.Errorf("Expected raw text to round trip, got %q", p.Raw())
		}
		if string(p.PlanData) == raw {
			t.Error("Expected plan data to be wrapped in a JSON object")
		}
		if res := p.Result(); !res.Parsed() || res.Plan.Days[0].Breakfast != "Eggs" {
			t.Errorf("Expected stored plan to normalize, got %+v", res)
		}
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		_, err := repo.GetForUser(ctx, id, "user-2")
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetForUser(ctx, "missing", "user-1")
		if !errors.Is(err, ErrPlanNotFound) {
			t.Errorf("Expected ErrPlanNotFound, got %v", err)
		}
	})
}

func TestPlanRepositoryListRecent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, raw := range []string{"first", "second", "third"} {
		repo.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		if _, err := repo.Save(ctx, "user-1", raw); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if _, err := repo.Save(ctx, "user-2", "foreign"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	plans, err := repo.ListRecentByUserID(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("ListRecentByUserID failed: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("Expected 2 plans, got %d", len(plans))
	}
	if plans[0].Raw() != "third" || plans[1].Raw() != "second" {
		t.Errorf("Expected newest first, got %q, %q", plans[0].Raw(), plans[1].Raw())
	}
	if !plans[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("Expected created_at to round trip, got %v", plans[0].CreatedAt)
	}

	if n, err := repo.CountByUserID(ctx, "user-1"); err != nil || n != 3 {
		t.Errorf("Expected 3 plans for user-1, got %d (%v)", n, err)
	}
}
