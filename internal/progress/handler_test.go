package progress

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

	"github.com/fitpulse/fitpulse-api/internal/auth"
)

// fakeStore is an in-memory Store
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]*Entry
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, entries: make(map[int64]*Entry)}
}

func (f *fakeStore) Create(_ context.Context, userID uuid.UUID, entry NewEntry) (*Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := &Entry{
		ID:        f.nextID,
		UserID:    userID,
		Category:  entry.Category,
		Metric:    entry.Metric,
		Value:     entry.Value,
		Unit:      entry.Unit,
		Notes:     entry.Notes,
		Date:      entry.Date,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.nextID++
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeStore) List(_ context.Context, userID uuid.UUID, filter ListFilter) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Entry
	for _, e := range f.entries {
		if e.UserID != userID {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		out = append(out, *e)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, userID uuid.UUID, entryID int64) (*Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok || e.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeStore) Update(_ context.Context, userID uuid.UUID, entryID int64, update EntryUpdate) (*Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok || e.UserID != userID {
		return nil, ErrNotFound
	}
	if update.Category != nil {
		e.Category = *update.Category
	}
	if update.Metric != nil {
		e.Metric = *update.Metric
	}
	if update.Value != nil {
		e.Value = *update.Value
	}
	if update.Unit != nil {
		e.Unit = update.Unit
	}
	if update.Notes != nil {
		e.Notes = update.Notes
	}
	if update.Date != nil {
		e.Date = *update.Date
	}
	e.UpdatedAt = time.Now()
	copied := *e
	return &copied, nil
}

func (f *fakeStore) Delete(_ context.Context, userID uuid.UUID, entryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryID]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(f.entries, entryID)
	return nil
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

func TestCreateEntry(t *testing.T) {
	t.Parallel()

	h := NewHandler(newFakeStore())
	userID := uuid.New()

	t.Run("missing fields", func(t *testing.T) {
		rec := doRequest(t, h, userID, http.MethodPost, "/", map[string]any{
			"category": "cardio",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := doRequest(t, h, userID, http.MethodPost, "/", map[string]any{
			"category": "cardio",
			"metric":   "distance",
			"value":    5.2,
			"date":     "31-12-2025",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		rec := doRequest(t, h, userID, http.MethodPost, "/", map[string]any{
			"category": "cardio",
			"metric":   "distance",
			"value":    5.2,
			"unit":     "km",
			"date":     "2025-12-31",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var created Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "cardio", created.Category)
		assert.Equal(t, 5.2, created.Value)
		assert.Equal(t, userID, created.UserID)
	})

	t.Run("zero value is accepted", func(t *testing.T) {
		rec := doRequest(t, h, userID, http.MethodPost, "/", map[string]any{
			"category": "weight",
			"metric":   "delta",
			"value":    0,
			"date":     "2025-12-31",
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestListEntries_OwnerScoped(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := NewHandler(store)
	owner := uuid.New()
	other := uuid.New()

	_, err := store.Create(context.Background(), owner, NewEntry{Category: "cardio", Metric: "distance", Value: 5})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), other, NewEntry{Category: "cardio", Metric: "distance", Value: 9})
	require.NoError(t, err)

	rec := doRequest(t, h, owner, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, owner, entries[0].UserID)
}

func TestListEntries_BadLimit(t *testing.T) {
	t.Parallel()

	h := NewHandler(newFakeStore())

	rec := doRequest(t, h, uuid.New(), http.MethodGet, "/?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEntry_ForeignIs404(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := NewHandler(store)
	owner := uuid.New()

	created, err := store.Create(context.Background(), owner, NewEntry{Category: "cardio", Metric: "distance", Value: 5})
	require.NoError(t, err)

	rec := doRequest(t, h, uuid.New(), http.MethodGet, "/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, owner, http.MethodGet, "/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
}

func TestUpdateEntry(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := NewHandler(store)
	owner := uuid.New()

	_, err := store.Create(context.Background(), owner, NewEntry{Category: "cardio", Metric: "distance", Value: 5})
	require.NoError(t, err)

	t.Run("no fields", func(t *testing.T) {
		rec := doRequest(t, h, owner, http.MethodPut, "/1", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		rec := doRequest(t, h, owner, http.MethodPut, "/1", map[string]any{"value": 7.5})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, 7.5, updated.Value)
		assert.Equal(t, "cardio", updated.Category)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doRequest(t, h, owner, http.MethodPut, "/999", map[string]any{"value": 7.5})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteEntry(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	h := NewHandler(store)
	owner := uuid.New()

	_, err := store.Create(context.Background(), owner, NewEntry{Category: "cardio", Metric: "distance", Value: 5})
	require.NoError(t, err)

	rec := doRequest(t, h, owner, http.MethodDelete, "/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, owner, http.MethodDelete, "/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
