package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProfileStore is an in-memory ProfileStore
type fakeProfileStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{users: make(map[uuid.UUID]*User)}
}

func (f *fakeProfileStore) add(email, firstName string) *User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: firstName,
		LastName:  "Tester",
		Goals:     []string{},
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeProfileStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeProfileStore) UpdateProfile(_ context.Context, userID uuid.UUID, update ProfileUpdate) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.AvatarURL != nil {
		u.AvatarURL = update.AvatarURL
	}
	if update.Goals != nil {
		u.Goals = *update.Goals
	}
	u.UpdatedAt = time.Now()
	copied := *u
	return &copied, nil
}

func (f *fakeProfileStore) Delete(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return ErrNotFound
	}
	delete(f.users, userID)
	return nil
}

func identityFor(userID uuid.UUID) IdentityFunc {
	return func(context.Context) (uuid.UUID, bool) {
		return userID, true
	}
}

func doRequest(t *testing.T, h *Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	store := newFakeProfileStore()
	target := store.add("alice@example.com", "Alice")
	h := NewHandler(store, identityFor(uuid.New()))

	t.Run("public projection hides email", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/"+target.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Alice", body["firstName"])
		assert.NotContains(t, body, "email")
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateProfile_OwnerOnly(t *testing.T) {
	t.Parallel()

	store := newFakeProfileStore()
	owner := store.add("alice@example.com", "Alice")
	other := store.add("bob@example.com", "Bob")

	t.Run("foreign profile is forbidden", func(t *testing.T) {
		h := NewHandler(store, identityFor(other.ID))
		rec := doRequest(t, h, http.MethodPut, "/"+owner.ID.String(), map[string]string{"firstName": "Mallory"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		unchanged, err := store.GetByID(context.Background(), owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", unchanged.FirstName)
	})

	t.Run("empty update", func(t *testing.T) {
		h := NewHandler(store, identityFor(owner.ID))
		rec := doRequest(t, h, http.MethodPut, "/"+owner.ID.String(), map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("own profile", func(t *testing.T) {
		h := NewHandler(store, identityFor(owner.ID))
		rec := doRequest(t, h, http.MethodPut, "/"+owner.ID.String(), map[string]any{
			"firstName": "Alicia",
			"goals":     []string{"run a marathon"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Alicia", updated.FirstName)
		assert.Equal(t, []string{"run a marathon"}, updated.Goals)
	})
}

func TestDeleteAccount_OwnerOnly(t *testing.T) {
	t.Parallel()

	store := newFakeProfileStore()
	owner := store.add("alice@example.com", "Alice")
	other := store.add("bob@example.com", "Bob")

	t.Run("foreign account is forbidden", func(t *testing.T) {
		h := NewHandler(store, identityFor(other.ID))
		rec := doRequest(t, h, http.MethodDelete, "/"+owner.ID.String(), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		_, err := store.GetByID(context.Background(), owner.ID)
		assert.NoError(t, err)
	})

	t.Run("own account", func(t *testing.T) {
		h := NewHandler(store, identityFor(owner.ID))
		rec := doRequest(t, h, http.MethodDelete, "/"+owner.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		_, err := store.GetByID(context.Background(), owner.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
