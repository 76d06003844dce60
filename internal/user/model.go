package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // Never expose password hash in JSON
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	AvatarURL     *string   `json:"avatarUrl"`
	Goals         []string  `json:"goals"`
	IsActive      bool      `json:"isActive"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProfileUpdate carries a partial profile update; nil fields are left as-is.
type ProfileUpdate struct {
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	AvatarURL *string   `json:"avatarUrl"`
	Goals     *[]string `json:"goals"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u ProfileUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.AvatarURL == nil && u.Goals == nil
}
