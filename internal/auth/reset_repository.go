package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fitpulse/fitpulse-api/internal/database"
)

var ErrResetTokenNotFound = errors.New("reset token invalid, expired or already used")

// ResetRepository handles single-use password reset tokens in Postgres.
type ResetRepository struct {
	db *bun.DB
}

func NewResetRepository(db *bun.DB) *ResetRepository {
	return &ResetRepository{db: db}
}

// StoreResetToken persists a reset token hash with its expiry.
func (r *ResetRepository) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	dbToken := &database.PasswordResetToken{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbToken).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	return nil
}

// ConsumeResetToken marks a valid token as used and returns its owner.
// The single UPDATE makes the consume atomic: a second call with the same
// token matches zero rows.
func (r *ResetRepository) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.db.NewUpdate().
		Model((*database.PasswordResetToken)(nil)).
		Set("used = TRUE").
		Where("token_hash = ?", hashToken(token)).
		Where("used = FALSE").
		Where("expires_at > NOW()").
		Returning("user_id").
		Scan(ctx, &userID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrResetTokenNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	return userID, nil
}
