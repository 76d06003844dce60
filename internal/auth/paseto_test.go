package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestNewPasetoService_KeyLength(t *testing.T) {
	t.Parallel()

	if _, err := NewPasetoService([]byte("too-short")); err == nil {
		t.Fatal("expected error for short key, got nil")
	}
	if _, err := NewPasetoService(testKey()); err != nil {
		t.Fatalf("NewPasetoService error: %v", err)
	}
}

func TestCreateAndVerifyToken(t *testing.T) {
	t.Parallel()

	svc, err := NewPasetoService(testKey())
	if err != nil {
		t.Fatalf("NewPasetoService error: %v", err)
	}

	userID := uuid.New()
	token, err := svc.CreateToken(userID, 15*time.Minute)
	if err != nil {
		t.Fatalf("CreateToken error: %v", err)
	}

	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if claims.UserID != userID.String() {
		t.Fatalf("user id mismatch: got %q want %q", claims.UserID, userID.String())
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		t.Fatalf("expiration %v not after issue time %v", claims.ExpiresAt, claims.IssuedAt)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	t.Parallel()

	svc, err := NewPasetoService(testKey())
	if err != nil {
		t.Fatalf("NewPasetoService error: %v", err)
	}

	token, err := svc.CreateToken(uuid.New(), -time.Minute)
	if err != nil {
		t.Fatalf("CreateToken error: %v", err)
	}

	if _, err := svc.VerifyToken(token); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestVerifyToken_WrongKey(t *testing.T) {
	t.Parallel()

	svc, err := NewPasetoService(testKey())
	if err != nil {
		t.Fatalf("NewPasetoService error: %v", err)
	}
	other, err := NewPasetoService([]byte("fedcba9876543210fedcba9876543210"))
	if err != nil {
		t.Fatalf("NewPasetoService error: %v", err)
	}

	token, err := svc.CreateToken(uuid.New(), 15*time.Minute)
	if err != nil {
		t.Fatalf("CreateToken error: %v", err)
	}

	if _, err := other.VerifyToken(token); err == nil {
		t.Fatal("expected error for token encrypted with another key, got nil")
	}
}

func TestVerifyToken_Malformed(t *testing.T) {
	t.Parallel()

	svc, err := NewPasetoService(testKey())
	if err != nil {
		t.Fatalf("NewPasetoService error: %v", err)
	}

	if _, err := svc.VerifyToken("v4.local.not-a-token"); err == nil {
		t.Fatal("expected error for malformed token, got nil")
	}
}
