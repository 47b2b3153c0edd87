package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"keto-planner/internal/database"
	"keto-planner/internal/form"
	"keto-planner/internal/logger"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "auth.db"), logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t).SQL)
	users.cost = bcrypt.MinCost

	created, err := users.Register(ctx, " Jane@Example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if created.Email != "jane@example.com" {
		t.Errorf("Expected normalized email, got %q", created.Email)
	}

	t.Run("authenticate", func(t *testing.T) {
		u, err := users.Authenticate(ctx, "jane@example.com", "correct-horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if u.ID != created.ID {
			t.Errorf("Expected user %s, got %s", created.ID, u.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := users.Authenticate(ctx, "jane@example.com", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		if _, err := users.Authenticate(ctx, "bob@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		if _, err := users.Register(ctx, "jane@example.com", "another-pass"); !errors.Is(err, ErrEmailTaken) {
			t.Errorf("Expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		if _, err := users.Register(ctx, "not-an-email", "correct-horse"); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("Expected ErrInvalidEmail, got %v", err)
		}
		if _, err := users.Register(ctx, "short@example.com", "123"); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("Expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("get", func(t *testing.T) {
		u, err := users.Get(ctx, created.ID)
		if err != nil || u.Email != "jane@example.com" {
			t.Errorf("Expected stored user, got %+v (%v)", u, err)
		}
	})
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	signed, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	id, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if id != "user-1" {
		t.Errorf("Expected user-1, got %q", id)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokens("other-secret", time.Hour)
		if _, err := other.Parse(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokens("test-secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := later.Parse(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := tokens.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	profiles := NewProfiles(newTestDB(t).SQL)

	if _, err := profiles.Get(ctx, "user-1"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("Expected ErrProfileNotFound, got %v", err)
	}

	first := form.Answers{Gender: form.GenderMale, Age: 40}
	if err := profiles.Upsert(ctx, "user-1", first); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	second := form.Answers{Gender: form.GenderFemale, Age: 41, HeightCM: form.Float(170)}
	if err := profiles.Upsert(ctx, "user-1", second); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := profiles.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Gender != form.GenderFemale || got.Age != 41 || got.HeightCM == nil || *got.HeightCM != 170 {
		t.Errorf("Expected latest answers, got %+v", got)
	}
}
