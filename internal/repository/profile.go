package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gatekey/gatekey/internal/model"
)

// Common errors for profile repository operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailExists     = errors.New("email already exists")
)

// CreateProfile inserts a new profile.
// Uniqueness of email is enforced by the store's unique index, not by
// a prior read, so two concurrent inserts with the same email yield
// exactly one success and one ErrEmailExists.
func (r *Repository) CreateProfile(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profiles (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Email,
		p.Name,
		p.PasswordHash,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetProfileByID retrieves a profile by its id, including the password
// hash. Callers returning profiles outward must use the sanitized view.
func (r *Repository) GetProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	query := `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var p model.Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Email,
		&p.Name,
		&p.PasswordHash,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by id: %w", err)
	}

	return &p, nil
}

// GetProfileByEmail retrieves a profile by its email address,
// including the password hash.
func (r *Repository) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	query := `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM profiles
		WHERE email = $1
	`

	var p model.Profile
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&p.ID,
		&p.Email,
		&p.Name,
		&p.PasswordHash,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}

	return &p, nil
}

// UpdateProfileName updates the display name and bumps updated_at.
func (r *Repository) UpdateProfileName(ctx context.Context, id, name string) (*model.Profile, error) {
	query := `
		UPDATE profiles
		SET name = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, email, name, password_hash, created_at, updated_at
	`

	var p model.Profile
	err := r.pool.QueryRow(ctx, query, id, name, time.Now().UTC()).Scan(
		&p.ID,
		&p.Email,
		&p.Name,
		&p.PasswordHash,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile name: %w", err)
	}

	return &p, nil
}

// EmailExists reports whether a profile with the given email exists.
// Used only for the user-facing pre-check; the insert path never
// relies on it.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM profiles WHERE email = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// isUniqueViolation reports whether err is the store's
// constraint-violation signal for a unique index conflict.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
