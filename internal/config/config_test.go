package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPasetoKey = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PASETO_KEY", testPasetoKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.TrustedOrigins)
	assert.Equal(t, "fitpulse", cfg.Database.DBName)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenDuration)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenDuration)
	assert.Equal(t, 5, cfg.Auth.MaxSessionsPerUser)
}

func TestLoad_RejectsBadPasetoKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"missing", ""},
		{"too short", "short"},
		{"too long", testPasetoKey + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PASETO_KEY", tt.key)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PASETO_KEY", testPasetoKey)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ACCESS_TOKEN_DURATION", "900")
	t.Setenv("MAX_SESSIONS_PER_USER", "3")
	t.Setenv("TRUSTED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 900*time.Second, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 3, cfg.Auth.MaxSessionsPerUser)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.TrustedOrigins)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("PASETO_KEY", testPasetoKey)
	t.Setenv("ACCESS_TOKEN_DURATION", "not-a-number")
	t.Setenv("MAX_SESSIONS_PER_USER", "many")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 5, cfg.Auth.MaxSessionsPerUser)
}

func TestDatabaseConnectionString(t *testing.T) {
	t.Parallel()

	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     "5432",
		User:     "fit",
		Password: "secret",
		DBName:   "fitpulse",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5432 user=fit password=secret dbname=fitpulse sslmode=require",
		db.ConnectionString(),
	)
}

func TestRedisAddress(t *testing.T) {
	t.Parallel()

	r := RedisConfig{Host: "cache.internal", Port: "6380"}
	assert.Equal(t, "cache.internal:6380", r.Address())
}
