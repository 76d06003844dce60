package group

import (
	"time"

	"github.com/google/uuid"
)

// Group is the API representation of a group
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	CreatorID   uuid.UUID `json:"creatorId"`
	Description *string   `json:"description,omitempty"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Member is one group membership with the member's public identity
type Member struct {
	UserID    uuid.UUID `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// GroupDetail is a group with its full member list
type GroupDetail struct {
	Group
	Members []Member `json:"members"`
}

// ProgressEntry is a member's progress entry annotated with the author's name
type ProgressEntry struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Category  string    `json:"category"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Unit      *string   `json:"unit,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProgressFilter narrows a group progress listing
type ProgressFilter struct {
	Category  string
	Metric    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}
