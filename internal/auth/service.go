package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/fitpulse/fitpulse-api/internal/logging"
	"github.com/fitpulse/fitpulse-api/internal/user"
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailRequired        = errors.New("email is required")
	ErrPasswordRequired     = errors.New("password is required")
	ErrPasswordTooShort     = errors.New("password must be at least 8 characters")
	ErrNameRequired         = errors.New("first name and last name are required")
	ErrInvalidEmailFormat   = errors.New("invalid email format")
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
)

// Argon2id parameters - tuned for security vs performance balance
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// Service handles authentication business logic
type Service struct {
	userRepo             UserStore
	authRepo             RefreshTokenRepository
	resetRepo            ResetTokenRepository
	tokenService         TokenService
	emailService         EmailService
	logger               *logging.Logger
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
	resetTokenDuration   time.Duration
	maxSessionsPerUser   int

	// dummyHash is compared against when login hits an unknown email, so
	// the unknown-email and wrong-password paths take comparable time.
	dummyHash string
}

func NewService(
	userRepo UserStore,
	authRepo RefreshTokenRepository,
	resetRepo ResetTokenRepository,
	tokenService TokenService,
	emailService EmailService,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
	refreshTokenDuration time.Duration,
	resetTokenDuration time.Duration,
	maxSessionsPerUser int,
) *Service {
	s := &Service{
		userRepo:             userRepo,
		authRepo:             authRepo,
		resetRepo:            resetRepo,
		tokenService:         tokenService,
		emailService:         emailService,
		logger:               logger,
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
		resetTokenDuration:   resetTokenDuration,
		maxSessionsPerUser:   maxSessionsPerUser,
	}

	dummy, err := s.hashPassword("not-a-real-password")
	if err == nil {
		s.dummyHash = dummy
	}

	return s
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*user.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, ErrNameRequired
	}

	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, email, passwordHash, firstName, lastName)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login authenticates a user and returns tokens plus the public user projection
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Burn a comparable amount of work so unknown email and wrong
			// password are indistinguishable to the caller
			s.verifyPassword(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.verifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	// Cap concurrent sessions; the oldest refresh token is evicted first
	if err := s.authRepo.EnforceSessionLimit(ctx, existingUser.ID, s.maxSessionsPerUser); err != nil {
		return nil, fmt.Errorf("failed to enforce session limit: %w", err)
	}

	tokens, err := s.generateTokens(ctx, existingUser.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &LoginResult{
		User:         existingUser,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		ExpiresIn:    tokens.ExpiresIn,
	}, nil
}

// RefreshAccessToken rotates a refresh token and mints a new token pair.
// The old token is permanently invalid afterwards even if unexpired.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	rt, err := s.authRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if rt.IsExpired() {
		return nil, ErrRefreshTokenExpired
	}

	newRefreshToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshTokenDuration)
	if err := s.authRepo.RotateRefreshToken(ctx, refreshToken, rt.UserID, newRefreshToken, expiresAt); err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			// Lost a race with a concurrent rotation of the same token
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	accessToken, err := s.tokenService.CreateToken(rt.UserID, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
	}, nil
}

// Logout revokes a refresh token; revoking an unknown token is a no-op.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.authRepo.DeleteRefreshToken(ctx, refreshToken)
}

// GetUser returns the user for a verified access token subject.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// RequestPasswordReset initiates the password reset process
// Always returns nil to prevent email enumeration attacks
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Don't reveal if user exists
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		s.logger.Warn("failed to get user for password reset", "error", err)
		return nil
	}

	token, err := generateRandomToken()
	if err != nil {
		s.logger.Warn("failed to generate password reset token", "error", err)
		return nil
	}

	expiresAt := time.Now().Add(s.resetTokenDuration)
	if err := s.resetRepo.StoreResetToken(ctx, existingUser.ID, token, expiresAt); err != nil {
		s.logger.Warn("failed to store password reset token", "error", err)
		return nil
	}

	// Send password reset email in goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendPasswordResetEmail(emailCtx, existingUser.Email, existingUser.FirstName, token); err != nil {
			s.logger.Warn("failed to send password reset email", "email", existingUser.Email, "error", err)
		}
	}()

	return nil
}

// ResetPassword consumes a reset token, stores the new password and revokes
// every refresh token the user holds (forced logout everywhere).
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	userID, err := s.resetRepo.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return ErrResetTokenNotFound
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.authRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke all user tokens after password reset", "error", err)
	}

	return nil
}

// ChangePassword verifies the current password, stores the new one and
// revokes all refresh tokens so every other session re-authenticates.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 8 {
		return ErrPasswordTooShort
	}

	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !s.verifyPassword(existingUser.PasswordHash, currentPassword) {
		return ErrCurrentPasswordWrong
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.authRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke all user tokens after password change", "error", err)
	}

	return nil
}

// generateTokens creates both access and refresh tokens
func (s *Service) generateTokens(ctx context.Context, userID uuid.UUID) (*AuthTokens, error) {
	accessToken, err := s.tokenService.CreateToken(userID, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshTokenDuration)
	if err := s.authRepo.StoreRefreshToken(ctx, userID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
	}, nil
}

// hashPassword creates an argon2id hash of the password
func (s *Service) hashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	// Encode as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		encodedSalt,
		encodedHash,
	), nil
}

// verifyPassword checks if a password matches the stored hash
func (s *Service) verifyPassword(encodedHash, password string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	var memory, time uint32
	var threads uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		return false
	}
	_, err = fmt.Sscanf(parts[2], "v=%d", &version)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	inputHash := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		threads,
		uint32(len(decodedHash)),
	)

	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}

// generateRandomToken creates a cryptographically secure random token
func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
