package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitpulse/fitpulse-api/internal/auth"
	"github.com/fitpulse/fitpulse-api/internal/httputil"
	"github.com/fitpulse/fitpulse-api/internal/logging"
)

// defaultListLimit caps a listing when the client sends no limit
const defaultListLimit = 100

// Store is the persistence interface the handlers depend on
type Store interface {
	Create(ctx context.Context, userID uuid.UUID, entry NewEntry) (*Entry, error)
	List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Entry, error)
	Get(ctx context.Context, userID uuid.UUID, entryID int64) (*Entry, error)
	Update(ctx context.Context, userID uuid.UUID, entryID int64, update EntryUpdate) (*Entry, error)
	Delete(ctx context.Context, userID uuid.UUID, entryID int64) error
}

// Handler contains HTTP handlers for progress endpoints
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// CreateRequest represents the entry creation request body
type CreateRequest struct {
	Category string   `json:"category"`
	Metric   string   `json:"metric"`
	Value    *float64 `json:"value"`
	Unit     *string  `json:"unit"`
	Notes    *string  `json:"notes"`
	Date     string   `json:"date"`
}

// UpdateRequest represents a partial entry update request body
type UpdateRequest struct {
	Category *string  `json:"category"`
	Metric   *string  `json:"metric"`
	Value    *float64 `json:"value"`
	Unit     *string  `json:"unit"`
	Notes    *string  `json:"notes"`
	Date     *string  `json:"date"`
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create records a new progress entry
// @Summary      Record progress
// @Description  Record a measurement for the current user.
// @Tags         progress
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateRequest true "Entry details"
// @Success      201 {object} Entry
// @Failure      400 {object} httputil.ErrorResponse "Missing required fields"
// @Router       /progress [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	req.Category = strings.TrimSpace(req.Category)
	req.Metric = strings.TrimSpace(req.Metric)
	if req.Category == "" || req.Metric == "" || req.Value == nil || req.Date == "" {
		httputil.RespondErrorWithCode(w, "category, metric, value and date are required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httputil.RespondErrorWithCode(w, "date must be YYYY-MM-DD", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	entry, err := h.store.Create(r.Context(), userID, NewEntry{
		Category: req.Category,
		Metric:   req.Metric,
		Value:    *req.Value,
		Unit:     req.Unit,
		Notes:    req.Notes,
		Date:     date,
	})
	if err != nil {
		logger.Error("failed to create progress entry", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create progress entry", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("progress entry created", "entry_id", entry.ID, "user_id", userID)

	httputil.RespondJSON(w, entry, http.StatusCreated)
}

// List returns the user's progress entries
// @Summary      List progress
// @Description  List the current user's entries, newest first.
// @Tags         progress
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max entries (default 100)"
// @Param        offset query int false "Offset for paging"
// @Param        category query string false "Filter by category"
// @Param        startDate query string false "Filter from date (YYYY-MM-DD)"
// @Param        endDate query string false "Filter to date (YYYY-MM-DD)"
// @Success      200 {array} Entry
// @Router       /progress [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	filter, err := parseListFilter(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	entries, err := h.store.List(r.Context(), userID, filter)
	if err != nil {
		logger.Error("failed to list progress entries", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list progress entries", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, entries, http.StatusOK)
}

// Get returns one entry
// @Summary      Get entry
// @Description  Return one of the current user's entries.
// @Tags         progress
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Entry ID"
// @Success      200 {object} Entry
// @Failure      404 {object} httputil.ErrorResponse "Unknown or foreign entry"
// @Router       /progress/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	entryID, err := parseEntryID(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid entry id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	entry, err := h.store.Get(r.Context(), userID, entryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "progress entry not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get progress entry", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get progress entry", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, entry, http.StatusOK)
}

// Update applies a partial update to one entry
// @Summary      Update entry
// @Description  Partially update one of the current user's entries.
// @Tags         progress
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Entry ID"
// @Param        request body UpdateRequest true "Fields to update"
// @Success      200 {object} Entry
// @Failure      400 {object} httputil.ErrorResponse "No fields to update"
// @Failure      404 {object} httputil.ErrorResponse "Unknown or foreign entry"
// @Router       /progress/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	entryID, err := parseEntryID(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid entry id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	update := EntryUpdate{
		Category: req.Category,
		Metric:   req.Metric,
		Value:    req.Value,
		Unit:     req.Unit,
		Notes:    req.Notes,
	}

	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			httputil.RespondErrorWithCode(w, "date must be YYYY-MM-DD", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		update.Date = &date
	}

	if update.IsEmpty() {
		httputil.RespondErrorWithCode(w, "no fields to update", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	entry, err := h.store.Update(r.Context(), userID, entryID, update)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "progress entry not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update progress entry", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update progress entry", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, entry, http.StatusOK)
}

// Delete removes one entry
// @Summary      Delete entry
// @Description  Delete one of the current user's entries.
// @Tags         progress
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Entry ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse "Unknown or foreign entry"
// @Router       /progress/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	entryID, err := parseEntryID(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid entry id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), userID, entryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "progress entry not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete progress entry", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete progress entry", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("progress entry deleted", "entry_id", entryID, "user_id", userID)

	httputil.RespondJSON(w, map[string]string{"message": "progress entry deleted"}, http.StatusOK)
}

func parseEntryID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	filter := ListFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    defaultListLimit,
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, errors.New("limit must be a positive integer")
		}
		filter.Limit = limit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = offset
	}

	if raw := r.URL.Query().Get("startDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, errors.New("startDate must be YYYY-MM-DD")
		}
		filter.StartDate = &t
	}

	if raw := r.URL.Query().Get("endDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, errors.New("endDate must be YYYY-MM-DD")
		}
		filter.EndDate = &t
	}

	return filter, nil
}
