package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fitpulse/fitpulse-api/internal/database"
)

// ErrNotFound covers both missing entries and entries owned by someone else;
// the API never reveals which it was.
var ErrNotFound = errors.New("progress entry not found")

// Repository handles progress entry persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create records a new progress entry for the user
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, entry NewEntry) (*Entry, error) {
	dbEntry := &database.ProgressEntry{
		UserID:   userID,
		Category: entry.Category,
		Metric:   entry.Metric,
		Value:    entry.Value,
		Unit:     entry.Unit,
		Notes:    entry.Notes,
		Date:     entry.Date,
	}

	_, err := r.db.NewInsert().
		Model(dbEntry).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress entry: %w", err)
	}

	return mapDBEntryToModel(dbEntry), nil
}

// List returns the user's entries matching the filter, newest first
func (r *Repository) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Entry, error) {
	var dbEntries []database.ProgressEntry

	q := r.db.NewSelect().
		Model(&dbEntries).
		Where("user_id = ?", userID)

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.StartDate != nil {
		q = q.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("date <= ?", *filter.EndDate)
	}

	err := q.OrderExpr("date DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress entries: %w", err)
	}

	entries := make([]Entry, 0, len(dbEntries))
	for i := range dbEntries {
		entries = append(entries, *mapDBEntryToModel(&dbEntries[i]))
	}

	return entries, nil
}

// Get retrieves one of the user's entries by id
func (r *Repository) Get(ctx context.Context, userID uuid.UUID, entryID int64) (*Entry, error) {
	dbEntry := new(database.ProgressEntry)
	err := r.db.NewSelect().
		Model(dbEntry).
		Where("id = ?", entryID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get progress entry: %w", err)
	}

	return mapDBEntryToModel(dbEntry), nil
}

// Update applies a partial update to one of the user's entries
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, entryID int64, update EntryUpdate) (*Entry, error) {
	q := r.db.NewUpdate().
		Model((*database.ProgressEntry)(nil)).
		Set("updated_at = NOW()").
		Where("id = ?", entryID).
		Where("user_id = ?", userID)

	if update.Category != nil {
		q = q.Set("category = ?", *update.Category)
	}
	if update.Metric != nil {
		q = q.Set("metric = ?", *update.Metric)
	}
	if update.Value != nil {
		q = q.Set("value = ?", *update.Value)
	}
	if update.Unit != nil {
		q = q.Set("unit = ?", *update.Unit)
	}
	if update.Notes != nil {
		q = q.Set("notes = ?", *update.Notes)
	}
	if update.Date != nil {
		q = q.Set("date = ?", *update.Date)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update progress entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.Get(ctx, userID, entryID)
}

// Delete removes one of the user's entries
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID, entryID int64) error {
	result, err := r.db.NewDelete().
		Model((*database.ProgressEntry)(nil)).
		Where("id = ?", entryID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete progress entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func mapDBEntryToModel(dbe *database.ProgressEntry) *Entry {
	return &Entry{
		ID:        dbe.ID,
		UserID:    dbe.UserID,
		Category:  dbe.Category,
		Metric:    dbe.Metric,
		Value:     dbe.Value,
		Unit:      dbe.Unit,
		Notes:     dbe.Notes,
		Date:      dbe.Date,
		CreatedAt: dbe.CreatedAt,
		UpdatedAt: dbe.UpdatedAt,
	}
}
