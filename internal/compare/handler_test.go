package compare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitpulse/fitpulse-api/internal/auth"
	"github.com/fitpulse/fitpulse-api/internal/user"
)

type friendshipKey struct {
	userID   uuid.UUID
	friendID uuid.UUID
}

// fakeStore is an in-memory Store
type fakeStore struct {
	mu           sync.Mutex
	friendships  map[friendshipKey]string // directional pair -> status
	participants map[uuid.UUID]Participant
	progress     map[uuid.UUID][]ProgressEntry
	notified     []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		friendships:  make(map[friendshipKey]string),
		participants: make(map[uuid.UUID]Participant),
		progress:     make(map[uuid.UUID][]ProgressEntry),
	}
}

func (f *fakeStore) addUser(firstName string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.participants[id] = Participant{
		ID:        id,
		Email:     firstName + "@example.com",
		FirstName: firstName,
		LastName:  "Tester",
	}
	return id
}

func (f *fakeStore) addProgress(userID uuid.UUID, category string, values ...float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		f.progress[userID] = append(f.progress[userID], ProgressEntry{
			ID:       int64(len(f.progress[userID]) + 1),
			UserID:   userID,
			Category: category,
			Metric:   "distance",
			Value:    v,
			Date:     time.Now(),
		})
	}
}

func (f *fakeStore) setFriendship(userID, friendID uuid.UUID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friendships[friendshipKey{userID, friendID}] = status
}

func (f *fakeStore) FriendshipExists(_ context.Context, userID, friendID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, forward := f.friendships[friendshipKey{userID, friendID}]
	_, backward := f.friendships[friendshipKey{friendID, userID}]
	return forward || backward, nil
}

func (f *fakeStore) AreFriends(_ context.Context, userID, friendID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.friendships[friendshipKey{userID, friendID}] == "accepted" ||
		f.friendships[friendshipKey{friendID, userID}] == "accepted", nil
}

func (f *fakeStore) CreateInvitation(_ context.Context, userID, friendID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friendships[friendshipKey{userID, friendID}] = "pending"
	f.notified = append(f.notified, friendID)
	return nil
}

func (f *fakeStore) GetParticipant(_ context.Context, userID uuid.UUID) (*Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[userID]
	if !ok {
		return nil, errors.New("no such user")
	}
	return &p, nil
}

func (f *fakeStore) ListUserProgress(_ context.Context, userID uuid.UUID, filter Filter) ([]ProgressEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ProgressEntry
	for _, e := range f.progress[userID] {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) Leaderboard(_ context.Context, filter Filter, limit int) ([]LeaderboardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]LeaderboardRow, 0, len(f.participants))
	for id, p := range f.participants {
		var count int
		var total float64
		for _, e := range f.progress[id] {
			if filter.Category != "" && e.Category != filter.Category {
				continue
			}
			count++
			total += e.Value
		}
		rows = append(rows, LeaderboardRow{User: p, TotalEntries: count, TotalProgress: total})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TotalProgress > rows[j].TotalProgress })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// fakeUserLookup is an in-memory UserLookup
type fakeUserLookup struct {
	byEmail map[string]*user.User
}

func (f *fakeUserLookup) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserLookup) add(id uuid.UUID, email string) {
	f.byEmail[email] = &user.User{ID: id, Email: email}
}

func doRequest(t *testing.T, h *Handler, userID uuid.UUID, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserIDContextKey, userID))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestInvite(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	users := &fakeUserLookup{byEmail: make(map[string]*user.User)}
	h := NewHandler(store, users)

	inviter := store.addUser("alice")
	invitee := store.addUser("bob")
	users.add(inviter, "alice@example.com")
	users.add(invitee, "bob@example.com")

	t.Run("missing email", func(t *testing.T) {
		rec := doRequest(t, h, inviter, http.MethodPost, "/invite", map[string]string{"friendEmail": "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := doRequest(t, h, inviter, http.MethodPost, "/invite", map[string]string{"friendEmail": "nobody@example.com"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("self invite", func(t *testing.T) {
		rec := doRequest(t, h, inviter, http.MethodPost, "/invite", map[string]string{"friendEmail": "alice@example.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success creates pending friendship and notifies invitee", func(t *testing.T) {
		rec := doRequest(t, h, inviter, http.MethodPost, "/invite", map[string]string{"friendEmail": "bob@example.com"})
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, "pending", store.friendships[friendshipKey{inviter, invitee}])
		require.Len(t, store.notified, 1)
		assert.Equal(t, invitee, store.notified[0])
	})

	t.Run("duplicate invite conflicts", func(t *testing.T) {
		rec := doRequest(t, h, inviter, http.MethodPost, "/invite", map[string]string{"friendEmail": "bob@example.com"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("reverse duplicate also conflicts", func(t *testing.T) {
		rec := doRequest(t, h, invitee, http.MethodPost, "/invite", map[string]string{"friendEmail": "alice@example.com"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestCompareWithFriend_RequiresAcceptedFriendship(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := NewHandler(store, &fakeUserLookup{byEmail: make(map[string]*user.User)})

	me := store.addUser("alice")
	stranger := store.addUser("bob")
	pendingFriend := store.addUser("carol")
	store.setFriendship(me, pendingFriend, "pending")

	t.Run("no friendship", func(t *testing.T) {
		rec := doRequest(t, h, me, http.MethodGet, "/user/"+stranger.String(), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("pending friendship", func(t *testing.T) {
		rec := doRequest(t, h, me, http.MethodGet, "/user/"+pendingFriend.String(), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid friend id", func(t *testing.T) {
		rec := doRequest(t, h, me, http.MethodGet, "/user/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCompareWithFriend_Accepted(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := NewHandler(store, &fakeUserLookup{byEmail: make(map[string]*user.User)})

	me := store.addUser("alice")
	friend := store.addUser("bob")
	store.setFriendship(friend, me, "accepted") // direction must not matter
	store.addProgress(me, "cardio", 2, 4)
	store.addProgress(friend, "cardio", 9)
	store.addProgress(friend, "strength", 50)

	rec := doRequest(t, h, me, http.MethodGet, "/user/"+friend.String()+"?category=cardio", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cmp Comparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))

	assert.Equal(t, me, cmp.CurrentUser.User.ID)
	assert.Equal(t, 2, cmp.CurrentUser.TotalEntries)
	assert.Equal(t, 3.0, cmp.CurrentUser.AverageValue)

	assert.Equal(t, friend, cmp.Friend.User.ID)
	assert.Equal(t, 1, cmp.Friend.TotalEntries)
	assert.Equal(t, 9.0, cmp.Friend.AverageValue)
}

func TestLeaderboard(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := NewHandler(store, &fakeUserLookup{byEmail: make(map[string]*user.User)})

	first := store.addUser("alice")
	second := store.addUser("bob")
	idle := store.addUser("carol")
	store.addProgress(first, "cardio", 10, 10)
	store.addProgress(second, "cardio", 5)

	t.Run("ranked by total with idle users included", func(t *testing.T) {
		rec := doRequest(t, h, first, http.MethodGet, "/leaderboard", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var rows []LeaderboardRow
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 3)

		assert.Equal(t, first, rows[0].User.ID)
		assert.Equal(t, 20.0, rows[0].TotalProgress)
		assert.Equal(t, second, rows[1].User.ID)
		assert.Equal(t, idle, rows[2].User.ID)
		assert.Equal(t, 0.0, rows[2].TotalProgress)
		for i, row := range rows {
			assert.Equal(t, i+1, row.Rank)
		}
	})

	t.Run("limit", func(t *testing.T) {
		rec := doRequest(t, h, first, http.MethodGet, "/leaderboard?limit=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var rows []LeaderboardRow
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, 1, rows[0].Rank)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := doRequest(t, h, first, http.MethodGet, fmt.Sprintf("/leaderboard?limit=%d", -3), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date filter", func(t *testing.T) {
		rec := doRequest(t, h, first, http.MethodGet, "/leaderboard?startDate=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
