package group

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store enforcing the same constraints as the
// database schema: unique codes and one membership per user
type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	groups     map[int64]*Group
	byCode     map[string]int64
	membership map[uuid.UUID]int64
	joined     map[uuid.UUID]time.Time
	progress   map[int64][]ProgressEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:     1,
		groups:     make(map[int64]*Group),
		byCode:     make(map[string]int64),
		membership: make(map[uuid.UUID]int64),
		joined:     make(map[uuid.UUID]time.Time),
		progress:   make(map[int64][]ProgressEntry),
	}
}

func (f *fakeStore) CreateWithCreator(_ context.Context, name, code string, description *string, creatorID uuid.UUID) (*Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.byCode[code]; taken {
		return nil, ErrCodeTaken
	}
	if _, member := f.membership[creatorID]; member {
		return nil, ErrAlreadyMember
	}
	g := &Group{
		ID:          f.nextID,
		Name:        name,
		Code:        code,
		CreatorID:   creatorID,
		Description: description,
		MemberCount: 1,
		CreatedAt:   time.Now(),
	}
	f.nextID++
	f.groups[g.ID] = g
	f.byCode[code] = g.ID
	f.membership[creatorID] = g.ID
	f.joined[creatorID] = time.Now()
	return g, nil
}

func (f *fakeStore) HasMembership(_ context.Context, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.membership[userID]
	return ok, nil
}

func (f *fakeStore) IsMember(_ context.Context, groupID int64, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.membership[userID] == groupID, nil
}

func (f *fakeStore) GetByCode(_ context.Context, code string) (*Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byCode[code]
	if !ok {
		return nil, ErrGroupNotFound
	}
	g := *f.groups[id]
	return &g, nil
}

func (f *fakeStore) GetByID(_ context.Context, groupID int64) (*Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeStore) GetUserGroup(_ context.Context, userID uuid.UUID) (*Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.membership[userID]
	if !ok {
		return nil, ErrNotMember
	}
	g := *f.groups[id]
	return &g, nil
}

func (f *fakeStore) AddMember(_ context.Context, groupID int64, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, member := f.membership[userID]; member {
		return ErrAlreadyMember
	}
	f.membership[userID] = groupID
	f.joined[userID] = time.Now()
	f.groups[groupID].MemberCount++
	return nil
}

func (f *fakeStore) ListMembers(_ context.Context, groupID int64) ([]Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var members []Member
	for userID, gid := range f.membership {
		if gid == groupID {
			members = append(members, Member{UserID: userID, JoinedAt: f.joined[userID]})
		}
	}
	return members, nil
}

func (f *fakeStore) ListGroupProgress(_ context.Context, groupID int64, filter ProgressFilter) ([]ProgressEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.progress[groupID]
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func (f *fakeStore) Leave(_ context.Context, groupID int64, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.membership[userID] != groupID {
		return ErrNotMember
	}
	delete(f.membership, userID)
	f.groups[groupID].MemberCount--
	remaining := 0
	for _, gid := range f.membership {
		if gid == groupID {
			remaining++
		}
	}
	if remaining == 0 {
		delete(f.byCode, f.groups[groupID].Code)
		delete(f.groups, groupID)
	}
	return nil
}

func TestCreate(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	creator := uuid.New()

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.Create(ctx, creator, "   ", nil)
		assert.ErrorIs(t, err, ErrNameRequired)
	})

	t.Run("success", func(t *testing.T) {
		g, err := svc.Create(ctx, creator, "Morning Runners", nil)
		require.NoError(t, err)
		assert.Equal(t, "Morning Runners", g.Name)
		assert.Len(t, g.Code, CodeLength)
		assert.Equal(t, 1, g.MemberCount)
		assert.Equal(t, creator, g.CreatorID)
	})

	t.Run("creator already in a group", func(t *testing.T) {
		_, err := svc.Create(ctx, creator, "Second Group", nil)
		assert.ErrorIs(t, err, ErrAlreadyInGroup)
	})
}

func TestJoin(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	creator := uuid.New()
	created, err := svc.Create(ctx, creator, "Morning Runners", nil)
	require.NoError(t, err)

	t.Run("empty code", func(t *testing.T) {
		_, err := svc.Join(ctx, uuid.New(), "  ")
		assert.ErrorIs(t, err, ErrCodeRequired)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Join(ctx, uuid.New(), "ZZZZZZ")
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("lowercase code matches", func(t *testing.T) {
		joiner := uuid.New()
		g, err := svc.Join(ctx, joiner, strings.ToLower(created.Code))
		require.NoError(t, err)
		assert.Equal(t, created.ID, g.ID)
		assert.Equal(t, 2, g.MemberCount)
	})

	t.Run("already in a group", func(t *testing.T) {
		_, err := svc.Join(ctx, creator, created.Code)
		assert.ErrorIs(t, err, ErrAlreadyInGroup)
	})
}

func TestGet_NonMemberForbidden(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, uuid.New(), "Morning Runners", nil)
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)

	// A non-existent group looks the same as a forbidden one
	_, err = svc.Get(ctx, 9999, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestProgress_DefaultLimit(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	creator := uuid.New()
	created, err := svc.Create(ctx, creator, "Morning Runners", nil)
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		store.progress[created.ID] = append(store.progress[created.ID], ProgressEntry{ID: int64(i)})
	}

	entries, err := svc.Progress(ctx, created.ID, creator, ProgressFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 30)
}

func TestLeave(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()

	creator := uuid.New()
	created, err := svc.Create(ctx, creator, "Morning Runners", nil)
	require.NoError(t, err)

	joiner := uuid.New()
	_, err = svc.Join(ctx, joiner, created.Code)
	require.NoError(t, err)

	t.Run("non-member", func(t *testing.T) {
		err := svc.Leave(ctx, created.ID, uuid.New())
		assert.ErrorIs(t, err, ErrNotMember)
	})

	t.Run("member leaves, group survives", func(t *testing.T) {
		require.NoError(t, svc.Leave(ctx, created.ID, joiner))
		_, err := store.GetByID(ctx, created.ID)
		assert.NoError(t, err)
	})

	t.Run("last member leaves, group is deleted", func(t *testing.T) {
		require.NoError(t, svc.Leave(ctx, created.ID, creator))
		_, err := store.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrGroupNotFound)

		// The code is free for reuse
		_, err = store.GetByCode(ctx, created.Code)
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})
}
