package group

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrAlreadyInGroup = errors.New("user is already in a group")
	ErrNameRequired   = errors.New("group name is required")
	ErrCodeRequired   = errors.New("group code is required")
	ErrCodeGenFailure = errors.New("could not generate a unique group code")
	ErrForbidden      = errors.New("user is not a member of this group")
)

// maxCodeAttempts bounds retries when a generated code collides
const maxCodeAttempts = 10

// Store is the persistence interface the group service depends on
type Store interface {
	CreateWithCreator(ctx context.Context, name, code string, description *string, creatorID uuid.UUID) (*Group, error)
	HasMembership(ctx context.Context, userID uuid.UUID) (bool, error)
	IsMember(ctx context.Context, groupID int64, userID uuid.UUID) (bool, error)
	GetByCode(ctx context.Context, code string) (*Group, error)
	GetByID(ctx context.Context, groupID int64) (*Group, error)
	GetUserGroup(ctx context.Context, userID uuid.UUID) (*Group, error)
	AddMember(ctx context.Context, groupID int64, userID uuid.UUID) error
	ListMembers(ctx context.Context, groupID int64) ([]Member, error)
	ListGroupProgress(ctx context.Context, groupID int64, filter ProgressFilter) ([]ProgressEntry, error)
	Leave(ctx context.Context, groupID int64, userID uuid.UUID) error
}

// Service implements group business logic
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create creates a group with a fresh invite code and makes the creator its
// first member. A user already in a group cannot create another one.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name string, description *string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	inGroup, err := s.store.HasMembership(ctx, userID)
	if err != nil {
		return nil, err
	}
	if inGroup {
		return nil, ErrAlreadyInGroup
	}

	// Regenerate on code collision; the odds of exhausting the attempts on a
	// 32^6 keyspace are negligible outside of a broken random source
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}

		created, err := s.store.CreateWithCreator(ctx, name, code, description, userID)
		if err != nil {
			if errors.Is(err, ErrCodeTaken) {
				continue
			}
			if errors.Is(err, ErrAlreadyMember) {
				return nil, ErrAlreadyMember
			}
			return nil, err
		}

		return created, nil
	}

	return nil, ErrCodeGenFailure
}

// Join adds the user to the group identified by the invite code. Codes are
// matched case-insensitively by uppercasing the input.
func (s *Service) Join(ctx context.Context, userID uuid.UUID, code string) (*Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrCodeRequired
	}

	inGroup, err := s.store.HasMembership(ctx, userID)
	if err != nil {
		return nil, err
	}
	if inGroup {
		return nil, ErrAlreadyInGroup
	}

	grp, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddMember(ctx, grp.ID, userID); err != nil {
		return nil, err
	}

	grp.MemberCount++
	return grp, nil
}

// MyGroup returns the user's group, or ErrNotMember when they have none
func (s *Service) MyGroup(ctx context.Context, userID uuid.UUID) (*Group, error) {
	return s.store.GetUserGroup(ctx, userID)
}

// Get returns a group with its member list. Non-members get ErrForbidden
// regardless of whether the group exists.
func (s *Service) Get(ctx context.Context, groupID int64, userID uuid.UUID) (*GroupDetail, error) {
	isMember, err := s.store.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrForbidden
	}

	grp, err := s.store.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &GroupDetail{Group: *grp, Members: members}, nil
}

// Progress returns members' progress entries for a group the user belongs to
func (s *Service) Progress(ctx context.Context, groupID int64, userID uuid.UUID, filter ProgressFilter) ([]ProgressEntry, error) {
	isMember, err := s.store.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrForbidden
	}

	if filter.Limit <= 0 {
		filter.Limit = 30
	}

	return s.store.ListGroupProgress(ctx, groupID, filter)
}

// Leave removes the user from the group; an empty group is deleted
func (s *Service) Leave(ctx context.Context, groupID int64, userID uuid.UUID) error {
	return s.store.Leave(ctx, groupID, userID)
}
