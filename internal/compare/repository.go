package compare

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fitpulse/fitpulse-api/internal/database"
)

// Repository handles friendship and aggregation queries
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// FriendshipExists reports whether any friendship row links the two users,
// in either direction and regardless of status
func (r *Repository) FriendshipExists(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.UserFriend)(nil)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("user_id = ?", userID).Where("friend_id = ?", friendID)
				}).
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("user_id = ?", friendID).Where("friend_id = ?", userID)
				})
		}).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// AreFriends reports whether an accepted friendship links the two users
func (r *Repository) AreFriends(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.UserFriend)(nil)).
		Where("status = ?", "accepted").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("user_id = ?", userID).Where("friend_id = ?", friendID)
				}).
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("user_id = ?", friendID).Where("friend_id = ?", userID)
				})
		}).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// CreateInvitation inserts a pending friendship and notifies the invitee in
// one transaction
func (r *Repository) CreateInvitation(ctx context.Context, userID, friendID uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		friendship := &database.UserFriend{
			UserID:   userID,
			FriendID: friendID,
			Status:   "pending",
		}
		if _, err := tx.NewInsert().
			Model(friendship).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create friendship: %w", err)
		}

		notification := &database.Notification{
			UserID:  friendID,
			Title:   "New Friend Invitation",
			Message: "You have received a friend invitation to compare progress!",
			Type:    "info",
		}
		if _, err := tx.NewInsert().
			Model(notification).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create invitation notification: %w", err)
		}

		return nil
	})
}

// GetParticipant loads a user's public identity
func (r *Repository) GetParticipant(ctx context.Context, userID uuid.UUID) (*Participant, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Column("id", "email", "first_name", "last_name", "avatar_url").
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &Participant{
		ID:        dbUser.ID,
		Email:     dbUser.Email,
		FirstName: dbUser.FirstName,
		LastName:  dbUser.LastName,
		AvatarURL: dbUser.AvatarURL,
	}, nil
}

// ListUserProgress returns one user's entries matching the filter, newest first
func (r *Repository) ListUserProgress(ctx context.Context, userID uuid.UUID, filter Filter) ([]ProgressEntry, error) {
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

	if err := q.OrderExpr("date DESC, id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	entries := make([]ProgressEntry, 0, len(dbEntries))
	for _, dbe := range dbEntries {
		entries = append(entries, ProgressEntry{
			ID:       dbe.ID,
			UserID:   dbe.UserID,
			Category: dbe.Category,
			Metric:   dbe.Metric,
			Value:    dbe.Value,
			Unit:     dbe.Unit,
			Date:     dbe.Date,
		})
	}

	return entries, nil
}

// Leaderboard ranks active users by summed progress value. Users without
// matching entries still appear, with zero totals.
func (r *Repository) Leaderboard(ctx context.Context, filter Filter, limit int) ([]LeaderboardRow, error) {
	var rows []struct {
		ID            uuid.UUID `bun:"id"`
		Email         string    `bun:"email"`
		FirstName     string    `bun:"first_name"`
		LastName      string    `bun:"last_name"`
		AvatarURL     *string   `bun:"avatar_url"`
		TotalEntries  int       `bun:"total_entries"`
		TotalProgress *float64  `bun:"total_progress"`
	}

	joinExpr := "LEFT JOIN progress AS p ON p.user_id = u.id"
	joinArgs := make([]any, 0, 3)
	if filter.Category != "" {
		joinExpr += " AND p.category = ?"
		joinArgs = append(joinArgs, filter.Category)
	}
	if filter.StartDate != nil {
		joinExpr += " AND p.date >= ?"
		joinArgs = append(joinArgs, *filter.StartDate)
	}
	if filter.EndDate != nil {
		joinExpr += " AND p.date <= ?"
		joinArgs = append(joinArgs, *filter.EndDate)
	}

	err := r.db.NewSelect().
		TableExpr("users AS u").
		ColumnExpr("u.id, u.email, u.first_name, u.last_name, u.avatar_url").
		ColumnExpr("COUNT(p.id) AS total_entries").
		ColumnExpr("SUM(p.value) AS total_progress").
		Join(joinExpr, joinArgs...).
		Where("u.is_active = TRUE").
		GroupExpr("u.id, u.email, u.first_name, u.last_name, u.avatar_url").
		OrderExpr("total_progress DESC NULLS LAST").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	leaderboard := make([]LeaderboardRow, 0, len(rows))
	for i, row := range rows {
		total := 0.0
		if row.TotalProgress != nil {
			total = *row.TotalProgress
		}
		leaderboard = append(leaderboard, LeaderboardRow{
			User: Participant{
				ID:        row.ID,
				Email:     row.Email,
				FirstName: row.FirstName,
				LastName:  row.LastName,
				AvatarURL: row.AvatarURL,
			},
			TotalEntries:  row.TotalEntries,
			TotalProgress: total,
			Rank:          i + 1,
		})
	}

	return leaderboard, nil
}

// sideStats computes per-side totals for a comparison
func sideStats(entries []ProgressEntry) (int, float64) {
	if len(entries) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, e := range entries {
		sum += e.Value
	}
	return len(entries), sum / float64(len(entries))
}
