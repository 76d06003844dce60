package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fitpulse/fitpulse-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, email, passwordHash, firstName, lastName string) (*User, error) {
	dbUser := &database.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Goals:        "[]",
		IsActive:     true,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdatePassword updates a user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateProfile applies a partial profile update and returns the updated user.
func (r *Repository) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*User, error) {
	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("updated_at = NOW()").
		Where("id = ?", userID)

	if update.FirstName != nil {
		q = q.Set("first_name = ?", *update.FirstName)
	}
	if update.LastName != nil {
		q = q.Set("last_name = ?", *update.LastName)
	}
	if update.AvatarURL != nil {
		q = q.Set("avatar_url = ?", *update.AvatarURL)
	}
	if update.Goals != nil {
		encoded, err := json.Marshal(*update.Goals)
		if err != nil {
			return nil, fmt.Errorf("failed to encode goals: %w", err)
		}
		q = q.Set("goals = ?", string(encoded))
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, userID)
}

// Delete removes a user; dependent rows are removed by FK cascade.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.User)(nil)).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	goals := []string{}
	if dbu.Goals != "" {
		// Tolerate malformed stored goals rather than failing the read
		_ = json.Unmarshal([]byte(dbu.Goals), &goals)
	}

	return &User{
		ID:            dbu.ID,
		Email:         dbu.Email,
		PasswordHash:  dbu.PasswordHash,
		FirstName:     dbu.FirstName,
		LastName:      dbu.LastName,
		AvatarURL:     dbu.AvatarURL,
		Goals:         goals,
		IsActive:      dbu.IsActive,
		EmailVerified: dbu.EmailVerified,
		CreatedAt:     dbu.CreatedAt,
		UpdatedAt:     dbu.UpdatedAt,
	}
}
