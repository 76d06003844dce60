package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/fitpulse/fitpulse-api/internal/database"
)

var ErrNotFound = errors.New("setting not found")

// Setting is one global key/value configuration row
type Setting struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Metrics holds the dashboard counters
type Metrics struct {
	TotalUsers    int `json:"totalUsers"`
	TotalProgress int `json:"totalProgress"`
	ActiveUsers   int `json:"activeUsers"`
}

// Repository handles settings persistence and metric queries
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns all settings ordered by key
func (r *Repository) List(ctx context.Context) ([]Setting, error) {
	var dbSettings []database.Setting
	err := r.db.NewSelect().
		Model(&dbSettings).
		OrderExpr("key ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	settings := make([]Setting, 0, len(dbSettings))
	for _, dbs := range dbSettings {
		settings = append(settings, mapDBSettingToModel(&dbs))
	}

	return settings, nil
}

// Update sets a known setting's value; unknown keys are never created
func (r *Repository) Update(ctx context.Context, key, value string) (*Setting, error) {
	dbs := new(database.Setting)
	err := r.db.NewUpdate().
		Model(dbs).
		Set("value = ?", value).
		Set("updated_at = NOW()").
		Where("key = ?", key).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}

	setting := mapDBSettingToModel(dbs)
	return &setting, nil
}

// Metrics counts users, progress entries and users active in the last 30 days
func (r *Repository) Metrics(ctx context.Context) (*Metrics, error) {
	totalUsers, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	totalProgress, err := r.db.NewSelect().
		Model((*database.ProgressEntry)(nil)).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count progress entries: %w", err)
	}

	var activeUsers int
	err = r.db.NewSelect().
		Model((*database.ProgressEntry)(nil)).
		ColumnExpr("COUNT(DISTINCT user_id)").
		Where("created_at > NOW() - INTERVAL '30 days'").
		Scan(ctx, &activeUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	return &Metrics{
		TotalUsers:    totalUsers,
		TotalProgress: totalProgress,
		ActiveUsers:   activeUsers,
	}, nil
}

func mapDBSettingToModel(dbs *database.Setting) Setting {
	return Setting{
		ID:          dbs.ID,
		Key:         dbs.Key,
		Value:       dbs.Value,
		Description: dbs.Description,
		UpdatedAt:   dbs.UpdatedAt,
	}
}
