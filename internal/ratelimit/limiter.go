package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultMaxRequests is the number of requests allowed per IP per window
	DefaultMaxRequests = 10
	// DefaultWindow is the fixed-window duration for IP rate limiting
	DefaultWindow = 1 * time.Hour
	// DefaultEmailCooldown is how long an email must wait between reset requests
	DefaultEmailCooldown = 5 * time.Minute
)

// Limiter implements fixed-window rate limiting backed by Redis.
// Keys carry a TTL so Redis expires counters without manual cleanup.
type Limiter struct {
	client        *redis.Client
	maxRequests   int
	window        time.Duration
	emailCooldown time.Duration
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{
		client:        client,
		maxRequests:   DefaultMaxRequests,
		window:        DefaultWindow,
		emailCooldown: DefaultEmailCooldown,
	}
}

// getIPKey generates the Redis key for an IP counter
func getIPKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

// getEmailCooldownKey generates the Redis key for an email cooldown marker
func getEmailCooldownKey(email string) string {
	return fmt.Sprintf("ratelimit:email_cooldown:%s", email)
}

// CheckIPRateLimit reports whether an IP has exceeded the password-reset limit
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.CheckIPRateLimitWithPurpose(ctx, ip, "password_reset")
}

// CheckIPRateLimitWithPurpose reports whether an IP has exceeded the limit
// for the given purpose (e.g. "login", "register")
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	key := getIPKey(ip, purpose)

	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return count >= l.maxRequests, nil
}

// RecordIPRequest increments the password-reset counter for an IP
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.RecordIPRequestWithPurpose(ctx, ip, "password_reset")
}

// RecordIPRequestWithPurpose increments the counter for an IP and purpose.
// The window TTL is set only when the key is first created so the window
// stays fixed rather than sliding.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := getIPKey(ip, purpose)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}

	_ = incr.Val()
	return nil
}

// CheckEmailCooldown reports whether an email is still on cooldown
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	key := getEmailCooldownKey(email)

	exists, err := l.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}

	return exists > 0, nil
}

// SetEmailCooldown places an email on cooldown
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	key := getEmailCooldownKey(email)

	if err := l.client.Set(ctx, key, "1", l.emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}

	return nil
}
