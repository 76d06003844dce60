package progress

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded measurement for a user
type Entry struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Category  string    `json:"category"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Unit      *string   `json:"unit,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewEntry carries the fields required to record an entry
type NewEntry struct {
	Category string
	Metric   string
	Value    float64
	Unit     *string
	Notes    *string
	Date     time.Time
}

// EntryUpdate is a partial update; nil fields are left unchanged
type EntryUpdate struct {
	Category *string
	Metric   *string
	Value    *float64
	Unit     *string
	Notes    *string
	Date     *time.Time
}

// IsEmpty reports whether no field is set
func (u EntryUpdate) IsEmpty() bool {
	return u.Category == nil && u.Metric == nil && u.Value == nil &&
		u.Unit == nil && u.Notes == nil && u.Date == nil
}

// ListFilter narrows and pages an entry listing
type ListFilter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}
