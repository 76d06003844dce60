package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fitpulse/fitpulse-api/internal/database"
)

var ErrNotFound = errors.New("notification not found")

// Notification is a message delivered to a single user
type Notification struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListFilter pages and narrows a notification listing
type ListFilter struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

// Repository handles notification persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a notification for the user
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, title, message, notifType string) (*Notification, error) {
	dbn := &database.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    notifType,
	}

	_, err := r.db.NewInsert().
		Model(dbn).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return mapDBNotificationToModel(dbn), nil
}

// List returns the user's notifications, newest first
func (r *Repository) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Notification, error) {
	var dbNotifications []database.Notification

	q := r.db.NewSelect().
		Model(&dbNotifications).
		Where("user_id = ?", userID)

	if filter.UnreadOnly {
		q = q.Where("is_read = FALSE")
	}

	err := q.OrderExpr("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	notifications := make([]Notification, 0, len(dbNotifications))
	for i := range dbNotifications {
		notifications = append(notifications, *mapDBNotificationToModel(&dbNotifications[i]))
	}

	return notifications, nil
}

// MarkRead marks one of the user's notifications as read
func (r *Repository) MarkRead(ctx context.Context, userID uuid.UUID, notificationID int64) (*Notification, error) {
	dbn := new(database.Notification)
	err := r.db.NewUpdate().
		Model(dbn).
		Set("is_read = TRUE").
		Where("id = ?", notificationID).
		Where("user_id = ?", userID).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}

	return mapDBNotificationToModel(dbn), nil
}

// Delete removes one of the user's notifications
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID, notificationID int64) error {
	result, err := r.db.NewDelete().
		Model((*database.Notification)(nil)).
		Where("id = ?", notificationID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
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

func mapDBNotificationToModel(dbn *database.Notification) *Notification {
	return &Notification{
		ID:        dbn.ID,
		UserID:    dbn.UserID,
		Title:     dbn.Title,
		Message:   dbn.Message,
		Type:      dbn.Type,
		IsRead:    dbn.IsRead,
		CreatedAt: dbn.CreatedAt,
	}
}
