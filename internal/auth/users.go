// Package auth handles accounts, the signed session cookie and the saved
// questionnaire profile of signed-in users.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"keto-planner/internal/database"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrInvalidEmail is returned for a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("password is too short")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// User is an account row without the password hash.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Users stores accounts with bcrypt password hashes.
type Users struct {
	db   *sql.DB
	cost int
}

// NewUsers creates a Users repository.
func NewUsers(db *sql.DB) *Users {
	return &Users{db: db, cost: bcrypt.DefaultCost}
}

// Register creates an account.
func (u *Users) Register(ctx context.Context, email, password string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	res, err := u.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING`,
		user.ID, user.Email, string(hash), database.FormatTime(user.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrEmailTaken
	}
	return user, nil
}

// Authenticate checks a password and returns the account.
func (u *Users) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var (
		user    User
		hash    string
		created string
	)
	err = u.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Email, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	user.CreatedAt = database.ParseTime(created)
	return &user, nil
}

// Get loads an account by id.
func (u *Users) Get(ctx context.Context, id string) (*User, error) {
	var (
		user    User
		created string
	)
	err := u.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	user.CreatedAt = database.ParseTime(created)
	return &user, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
