package subscription

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

var (
	ErrNotFound    = errors.New("no subscription found")
	ErrNoActiveSub = errors.New("no active subscription found")
)

// Subscription is a user's billing plan record
type Subscription struct {
	ID                 int64      `json:"id"`
	UserID             uuid.UUID  `json:"userId"`
	Status             string     `json:"status"`
	PlanType           string     `json:"planType"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Repository handles subscription persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an active subscription for the user
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, planType string) (*Subscription, error) {
	dbs := &database.Subscription{
		UserID:   userID,
		Status:   "active",
		PlanType: planType,
	}

	_, err := r.db.NewInsert().
		Model(dbs).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	return mapDBSubscriptionToModel(dbs), nil
}

// GetLatest returns the user's most recent subscription
func (r *Repository) GetLatest(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	dbs := new(database.Subscription)
	err := r.db.NewSelect().
		Model(dbs).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return mapDBSubscriptionToModel(dbs), nil
}

// Cancel marks the user's active subscription as canceled
func (r *Repository) Cancel(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	dbs := new(database.Subscription)
	err := r.db.NewUpdate().
		Model(dbs).
		Set("status = ?", "canceled").
		Set("updated_at = NOW()").
		Where("user_id = ?", userID).
		Where("status = ?", "active").
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveSub
		}
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	return mapDBSubscriptionToModel(dbs), nil
}

func mapDBSubscriptionToModel(dbs *database.Subscription) *Subscription {
	return &Subscription{
		ID:                 dbs.ID,
		UserID:             dbs.UserID,
		Status:             dbs.Status,
		PlanType:           dbs.PlanType,
		CurrentPeriodStart: dbs.CurrentPeriodStart,
		CurrentPeriodEnd:   dbs.CurrentPeriodEnd,
		CreatedAt:          dbs.CreatedAt,
		UpdatedAt:          dbs.UpdatedAt,
	}
}
