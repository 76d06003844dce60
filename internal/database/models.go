package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted user record. The password hash never leaves the
// data layer; public projections live in the user package.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email         string    `bun:"email,notnull,unique"`
	PasswordHash  string    `bun:"password_hash,notnull"`
	FirstName     string    `bun:"first_name,notnull"`
	LastName      string    `bun:"last_name,notnull"`
	AvatarURL     *string   `bun:"avatar_url"`
	Goals         string    `bun:"goals,notnull,default:'[]'"`
	IsActive      bool      `bun:"is_active,notnull,default:true"`
	EmailVerified bool      `bun:"email_verified,notnull,default:false"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// RefreshToken stores only a hash of the opaque refresh token.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	TokenHash string    `bun:"token_hash,notnull,unique"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// PasswordResetToken is single-use: once used is set it never validates again.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	TokenHash string    `bun:"token_hash,notnull,unique"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	Used      bool      `bun:"used,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Group is joinable by its 6-character invite code, unique across all groups.
type Group struct {
	bun.BaseModel `bun:"table:groups"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	Code        string    `bun:"code,notnull,unique"`
	CreatorID   uuid.UUID `bun:"creator_id,notnull,type:uuid"`
	Description *string   `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// GroupMember carries a UNIQUE(user_id) constraint so the database itself
// rejects a second concurrent membership.
type GroupMember struct {
	bun.BaseModel `bun:"table:group_members"`

	ID       int64     `bun:"id,pk,autoincrement"`
	GroupID  int64     `bun:"group_id,notnull"`
	UserID   uuid.UUID `bun:"user_id,notnull,unique,type:uuid"`
	JoinedAt time.Time `bun:"joined_at,notnull,default:current_timestamp"`
}

// ProgressEntry records one metric measurement on a calendar date.
type ProgressEntry struct {
	bun.BaseModel `bun:"table:progress"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Category  string    `bun:"category,notnull"`
	Metric    string    `bun:"metric,notnull"`
	Value     float64   `bun:"value,notnull"`
	Unit      *string   `bun:"unit"`
	Notes     *string   `bun:"notes"`
	Date      time.Time `bun:"date,notnull,type:date"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type Notification struct {
	bun.BaseModel `bun:"table:notifications"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Title     string    `bun:"title,notnull"`
	Message   string    `bun:"message,notnull"`
	Type      string    `bun:"type,notnull,default:'info'"`
	IsRead    bool      `bun:"is_read,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions"`

	ID                 int64      `bun:"id,pk,autoincrement"`
	UserID             uuid.UUID  `bun:"user_id,notnull,type:uuid"`
	StripeCustomerID   *string    `bun:"stripe_customer_id"`
	StripeSubID        *string    `bun:"stripe_subscription_id"`
	Status             string     `bun:"status,notnull"`
	PlanType           string     `bun:"plan_type,notnull"`
	CurrentPeriodStart *time.Time `bun:"current_period_start"`
	CurrentPeriodEnd   *time.Time `bun:"current_period_end"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

type UserFriend struct {
	bun.BaseModel `bun:"table:user_friends"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	FriendID  uuid.UUID `bun:"friend_id,notnull,type:uuid"`
	Status    string    `bun:"status,notnull,default:'pending'"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type Setting struct {
	bun.BaseModel `bun:"table:settings"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Key         string    `bun:"key,notnull,unique"`
	Value       string    `bun:"value,notnull"`
	Description *string   `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
