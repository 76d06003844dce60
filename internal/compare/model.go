package compare

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a user identity in a comparison or leaderboard row
type Participant struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	AvatarURL *string   `json:"avatarUrl"`
}

// ProgressEntry is a progress row in a comparison
type ProgressEntry struct {
	ID       int64     `json:"id"`
	UserID   uuid.UUID `json:"userId"`
	Category string    `json:"category"`
	Metric   string    `json:"metric"`
	Value    float64   `json:"value"`
	Unit     *string   `json:"unit,omitempty"`
	Date     time.Time `json:"date"`
}

// Side is one user's half of a comparison with summary stats
type Side struct {
	User         Participant     `json:"user"`
	Progress     []ProgressEntry `json:"progress"`
	TotalEntries int             `json:"totalEntries"`
	AverageValue float64         `json:"averageValue"`
}

// Comparison is a pairwise progress comparison
type Comparison struct {
	CurrentUser Side `json:"currentUser"`
	Friend      Side `json:"friend"`
}

// LeaderboardRow is one ranked leaderboard entry
type LeaderboardRow struct {
	User          Participant `json:"user"`
	TotalEntries  int         `json:"totalEntries"`
	TotalProgress float64     `json:"totalProgress"`
	Rank          int         `json:"rank"`
}

// Filter narrows comparison and leaderboard queries
type Filter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
}
