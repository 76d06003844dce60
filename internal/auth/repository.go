package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fitpulse/fitpulse-api/internal/database"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token has expired")
)

// Repository handles refresh token persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// StoreRefreshToken stores a refresh token in the database
func (r *Repository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	dbToken := &database.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbToken).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken retrieves a refresh token by its hash
func (r *Repository) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	dbToken := new(database.RefreshToken)
	err := r.db.NewSelect().
		Model(dbToken).
		Where("token_hash = ?", hashToken(token)).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return mapDBRefreshTokenToModel(dbToken), nil
}

// RotateRefreshToken deletes the old token row and inserts the new one in a
// single transaction, so a crash between the two statements cannot leave
// both or neither valid. If the old row is already gone (token reuse or a
// concurrent rotation) the whole rotation fails.
func (r *Repository) RotateRefreshToken(ctx context.Context, oldToken string, userID uuid.UUID, newToken string, expiresAt time.Time) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewDelete().
			Model((*database.RefreshToken)(nil)).
			Where("token_hash = ?", hashToken(oldToken)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete old refresh token: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrRefreshTokenNotFound
		}

		dbToken := &database.RefreshToken{
			UserID:    userID,
			TokenHash: hashToken(newToken),
			ExpiresAt: expiresAt,
		}
		if _, err := tx.NewInsert().Model(dbToken).Exec(ctx); err != nil {
			return fmt.Errorf("failed to store rotated refresh token: %w", err)
		}

		return nil
	})
}

// DeleteRefreshToken removes a refresh token row. Deleting a token that does
// not exist is not an error; logout is idempotent.
func (r *Repository) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*database.RefreshToken)(nil)).
		Where("token_hash = ?", hashToken(token)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	return nil
}

// RevokeAllUserTokens deletes all refresh tokens for a user (forced logout everywhere)
func (r *Repository) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*database.RefreshToken)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke all user tokens: %w", err)
	}

	return nil
}

// EnforceSessionLimit prunes the user's expired tokens and, if the active
// count is still at or over max, evicts the oldest rows to make room for one
// new session.
func (r *Repository) EnforceSessionLimit(ctx context.Context, userID uuid.UUID, max int) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*database.RefreshToken)(nil)).
			Where("user_id = ?", userID).
			Where("expires_at <= NOW()").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to prune expired tokens: %w", err)
		}

		count, err := tx.NewSelect().
			Model((*database.RefreshToken)(nil)).
			Where("user_id = ?", userID).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count active tokens: %w", err)
		}

		if count >= max {
			_, err := tx.NewDelete().
				Model((*database.RefreshToken)(nil)).
				Where("id IN (?)", tx.NewSelect().
					Model((*database.RefreshToken)(nil)).
					Column("id").
					Where("user_id = ?", userID).
					Order("created_at ASC").
					Limit(count-max+1)).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to evict oldest tokens: %w", err)
			}
		}

		return nil
	})
}

// hashToken returns the hex-encoded SHA-256 of a token so the opaque value
// itself is never persisted.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// mapDBRefreshTokenToModel converts database model to domain model
func mapDBRefreshTokenToModel(dbt *database.RefreshToken) *RefreshToken {
	return &RefreshToken{
		ID:        dbt.ID,
		UserID:    dbt.UserID,
		TokenHash: dbt.TokenHash,
		ExpiresAt: dbt.ExpiresAt,
		CreatedAt: dbt.CreatedAt,
	}
}
