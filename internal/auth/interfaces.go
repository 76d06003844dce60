package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fitpulse/fitpulse-api/internal/user"
)

// TokenService defines the interface for access token creation and validation.
type TokenService interface {
	CreateToken(userID uuid.UUID, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// RefreshTokenRepository defines the interface for refresh token storage.
// Rotation must be atomic: the old token is invalidated and the new one
// stored in a single transaction.
type RefreshTokenRepository interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldToken string, userID uuid.UUID, newToken string, expiresAt time.Time) error
	DeleteRefreshToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	EnforceSessionLimit(ctx context.Context, userID uuid.UUID, max int) error
}

// ResetTokenRepository defines the interface for single-use password reset tokens.
type ResetTokenRepository interface {
	StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	// ConsumeResetToken atomically marks a valid token as used and returns
	// its owner; an expired, unknown or already-used token fails.
	ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error)
}

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, firstName, lastName string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, firstName, token string) error
}
