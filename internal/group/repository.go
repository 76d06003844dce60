package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/fitpulse/fitpulse-api/internal/database"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrNotMember     = errors.New("not a group member")
	// ErrAlreadyMember is raised by the UNIQUE(user_id) constraint when a
	// concurrent request wins the race for a user's single membership slot
	ErrAlreadyMember = errors.New("user already belongs to a group")
	ErrCodeTaken     = errors.New("group code already taken")
)

// Repository handles group and membership persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithCreator inserts a group and its creator's membership in one
// transaction. A duplicate code maps to ErrCodeTaken so the caller can retry
// with a fresh code; a duplicate membership maps to ErrAlreadyMember.
func (r *Repository) CreateWithCreator(ctx context.Context, name, code string, description *string, creatorID uuid.UUID) (*Group, error) {
	dbGroup := &database.Group{
		Name:        name,
		Code:        code,
		CreatorID:   creatorID,
		Description: description,
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(dbGroup).
			Returning("*").
			Exec(ctx); err != nil {
			if isUniqueViolation(err, "groups_code_key") {
				return ErrCodeTaken
			}
			return fmt.Errorf("failed to create group: %w", err)
		}

		member := &database.GroupMember{
			GroupID: dbGroup.ID,
			UserID:  creatorID,
		}
		if _, err := tx.NewInsert().
			Model(member).
			Exec(ctx); err != nil {
			if isUniqueViolation(err, "group_members_user_id_key") {
				return ErrAlreadyMember
			}
			return fmt.Errorf("failed to add creator membership: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapDBGroupToModel(dbGroup, 1), nil
}

// HasMembership reports whether the user currently belongs to any group
func (r *Repository) HasMembership(ctx context.Context, userID uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.GroupMember)(nil)).
		Where("user_id = ?", userID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// IsMember reports whether the user belongs to the given group
func (r *Repository) IsMember(ctx context.Context, groupID int64, userID uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.GroupMember)(nil)).
		Where("group_id = ?", groupID).
		Where("user_id = ?", userID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return exists, nil
}

// GetByCode retrieves a group by its invite code
func (r *Repository) GetByCode(ctx context.Context, code string) (*Group, error) {
	dbGroup := new(database.Group)
	err := r.db.NewSelect().
		Model(dbGroup).
		Where("code = ?", code).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group by code: %w", err)
	}

	count, err := r.memberCount(ctx, dbGroup.ID)
	if err != nil {
		return nil, err
	}

	return mapDBGroupToModel(dbGroup, count), nil
}

// GetByID retrieves a group with its member count
func (r *Repository) GetByID(ctx context.Context, groupID int64) (*Group, error) {
	dbGroup := new(database.Group)
	err := r.db.NewSelect().
		Model(dbGroup).
		Where("id = ?", groupID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	count, err := r.memberCount(ctx, dbGroup.ID)
	if err != nil {
		return nil, err
	}

	return mapDBGroupToModel(dbGroup, count), nil
}

// GetUserGroup retrieves the group the user belongs to, or ErrNotMember
func (r *Repository) GetUserGroup(ctx context.Context, userID uuid.UUID) (*Group, error) {
	member := new(database.GroupMember)
	err := r.db.NewSelect().
		Model(member).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("failed to get user membership: %w", err)
	}

	return r.GetByID(ctx, member.GroupID)
}

// AddMember adds a user to a group. The UNIQUE(user_id) constraint rejects a
// second membership even under concurrent joins.
func (r *Repository) AddMember(ctx context.Context, groupID int64, userID uuid.UUID) error {
	member := &database.GroupMember{
		GroupID: groupID,
		UserID:  userID,
	}

	if _, err := r.db.NewInsert().
		Model(member).
		Exec(ctx); err != nil {
		if isUniqueViolation(err, "group_members_user_id_key") {
			return ErrAlreadyMember
		}
		return fmt.Errorf("failed to add group member: %w", err)
	}

	return nil
}

// ListMembers returns group members ordered by join time, earliest first
func (r *Repository) ListMembers(ctx context.Context, groupID int64) ([]Member, error) {
	var rows []struct {
		UserID    uuid.UUID `bun:"user_id"`
		FirstName string    `bun:"first_name"`
		LastName  string    `bun:"last_name"`
		AvatarURL *string   `bun:"avatar_url"`
		JoinedAt  time.Time `bun:"joined_at"`
	}

	err := r.db.NewSelect().
		TableExpr("group_members AS gm").
		ColumnExpr("gm.user_id, u.first_name, u.last_name, u.avatar_url, gm.joined_at").
		Join("JOIN users AS u ON u.id = gm.user_id").
		Where("gm.group_id = ?", groupID).
		OrderExpr("gm.joined_at ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}

	members := make([]Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, Member{
			UserID:    row.UserID,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			AvatarURL: row.AvatarURL,
			JoinedAt:  row.JoinedAt,
		})
	}

	return members, nil
}

// ListGroupProgress returns members' progress entries, newest first, with the
// author's name attached
func (r *Repository) ListGroupProgress(ctx context.Context, groupID int64, filter ProgressFilter) ([]ProgressEntry, error) {
	var rows []struct {
		ID        int64     `bun:"id"`
		UserID    uuid.UUID `bun:"user_id"`
		FirstName string    `bun:"first_name"`
		LastName  string    `bun:"last_name"`
		Category  string    `bun:"category"`
		Metric    string    `bun:"metric"`
		Value     float64   `bun:"value"`
		Unit      *string   `bun:"unit"`
		Notes     *string   `bun:"notes"`
		Date      time.Time `bun:"date"`
		CreatedAt time.Time `bun:"created_at"`
	}

	q := r.db.NewSelect().
		TableExpr("progress AS p").
		ColumnExpr("p.id, p.user_id, u.first_name, u.last_name, p.category, p.metric, p.value, p.unit, p.notes, p.date, p.created_at").
		Join("JOIN group_members AS gm ON gm.user_id = p.user_id").
		Join("JOIN users AS u ON u.id = p.user_id").
		Where("gm.group_id = ?", groupID)

	if filter.Category != "" {
		q = q.Where("p.category = ?", filter.Category)
	}
	if filter.Metric != "" {
		q = q.Where("p.metric = ?", filter.Metric)
	}
	if filter.StartDate != nil {
		q = q.Where("p.date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("p.date <= ?", *filter.EndDate)
	}

	err := q.OrderExpr("p.date DESC, p.id DESC").
		Limit(filter.Limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list group progress: %w", err)
	}

	entries := make([]ProgressEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ProgressEntry{
			ID:        row.ID,
			UserID:    row.UserID,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Category:  row.Category,
			Metric:    row.Metric,
			Value:     row.Value,
			Unit:      row.Unit,
			Notes:     row.Notes,
			Date:      row.Date,
			CreatedAt: row.CreatedAt,
		})
	}

	return entries, nil
}

// Leave removes a user's membership in a transaction. When the last member
// leaves, the group row is deleted too.
func (r *Repository) Leave(ctx context.Context, groupID int64, userID uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewDelete().
			Model((*database.GroupMember)(nil)).
			Where("group_id = ?", groupID).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to remove membership: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrNotMember
		}

		remaining, err := tx.NewSelect().
			Model((*database.GroupMember)(nil)).
			Where("group_id = ?", groupID).
			Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count remaining members: %w", err)
		}

		if remaining == 0 {
			if _, err := tx.NewDelete().
				Model((*database.Group)(nil)).
				Where("id = ?", groupID).
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to delete empty group: %w", err)
			}
		}

		return nil
	})
}

func (r *Repository) memberCount(ctx context.Context, groupID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.GroupMember)(nil)).
		Where("group_id = ?", groupID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count group members: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error, constraint string) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint") &&
		strings.Contains(err.Error(), constraint)
}

func mapDBGroupToModel(dbg *database.Group, memberCount int) *Group {
	return &Group{
		ID:          dbg.ID,
		Name:        dbg.Name,
		Code:        dbg.Code,
		CreatorID:   dbg.CreatorID,
		Description: dbg.Description,
		MemberCount: memberCount,
		CreatedAt:   dbg.CreatedAt,
	}
}
