package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitpulse/fitpulse-api/internal/user"
)

// RefreshToken is the domain view of a persisted refresh token row.
// Only the hash of the opaque token is ever stored.
type RefreshToken struct {
	ID        int64
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the token is past its expiry.
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// AuthTokens is the token pair returned by login and refresh
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// LoginResult bundles the token pair with the public user projection.
type LoginResult struct {
	User         *user.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	TokenType    string     `json:"tokenType"`
	ExpiresIn    int64      `json:"expiresIn"`
}
