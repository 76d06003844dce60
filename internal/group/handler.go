package group

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fitpulse/fitpulse-api/internal/auth"
	"github.com/fitpulse/fitpulse-api/internal/httputil"
	"github.com/fitpulse/fitpulse-api/internal/logging"
)

// Handler contains HTTP handlers for group endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateRequest represents the group creation request body
type CreateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// JoinRequest represents the group join request body
type JoinRequest struct {
	Code string `json:"code"`
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Post("/join", h.Join)
	r.Get("/my-group", h.MyGroup)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/progress", h.Progress)
	r.Delete("/{id}/leave", h.Leave)

	return r
}

// Create handles group creation
// @Summary      Create a group
// @Description  Create a group with a unique invite code; the creator becomes the first member.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateRequest true "Group details"
// @Success      201 {object} Group
// @Failure      400 {object} httputil.ErrorResponse "Validation error or already in a group"
// @Failure      409 {object} httputil.ErrorResponse "Lost a concurrent membership race"
// @Router       /groups [post]
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

	grp, err := h.service.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrAlreadyInGroup):
			httputil.RespondErrorWithCode(w, "you are already in a group", httputil.CodeAlreadyInGroup, http.StatusBadRequest)
		case errors.Is(err, ErrAlreadyMember):
			httputil.RespondErrorWithCode(w, "you are already in a group", httputil.CodeAlreadyInGroup, http.StatusConflict)
		case errors.Is(err, ErrCodeGenFailure):
			logger.Error("group code generation exhausted retries")
			httputil.RespondErrorWithCode(w, "failed to generate group code", httputil.CodeCodeGenFailure, http.StatusInternalServerError)
		default:
			logger.Error("failed to create group", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to create group", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("group created", "group_id", grp.ID, "user_id", userID)

	httputil.RespondJSON(w, grp, http.StatusCreated)
}

// Join handles joining a group by invite code
// @Summary      Join a group
// @Description  Join a group by its invite code. Codes are case-insensitive.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body JoinRequest true "Invite code"
// @Success      200 {object} Group
// @Failure      400 {object} httputil.ErrorResponse "Missing code or already in a group"
// @Failure      404 {object} httputil.ErrorResponse "Unknown invite code"
// @Failure      409 {object} httputil.ErrorResponse "Lost a concurrent membership race"
// @Router       /groups/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	grp, err := h.service.Join(r.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrAlreadyInGroup):
			httputil.RespondErrorWithCode(w, "you are already in a group", httputil.CodeAlreadyInGroup, http.StatusBadRequest)
		case errors.Is(err, ErrGroupNotFound):
			httputil.RespondErrorWithCode(w, "group not found", httputil.CodeGroupNotFound, http.StatusNotFound)
		case errors.Is(err, ErrAlreadyMember):
			httputil.RespondErrorWithCode(w, "you are already in a group", httputil.CodeAlreadyInGroup, http.StatusConflict)
		default:
			logger.Error("failed to join group", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to join group", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user joined group", "group_id", grp.ID, "user_id", userID)

	httputil.RespondJSON(w, grp, http.StatusOK)
}

// MyGroup returns the caller's group
// @Summary      Current group
// @Description  Return the group the caller belongs to, or null when they have none.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Group
// @Router       /groups/my-group [get]
func (h *Handler) MyGroup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	grp, err := h.service.MyGroup(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			// Not being in a group is a normal state, not an error
			httputil.RespondJSON(w, nil, http.StatusOK)
			return
		}
		logger.Error("failed to load user's group", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load group", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, grp, http.StatusOK)
}

// Get returns a group with its members
// @Summary      Group detail
// @Description  Return a group's metadata and members. Only members may view a group.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} GroupDetail
// @Failure      403 {object} httputil.ErrorResponse "Not a member"
// @Router       /groups/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	groupID, err := parseGroupID(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid group id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	detail, err := h.service.Get(r.Context(), groupID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			httputil.RespondErrorWithCode(w, "you are not a member of this group", httputil.CodeNotGroupMember, http.StatusForbidden)
		case errors.Is(err, ErrGroupNotFound):
			httputil.RespondErrorWithCode(w, "group not found", httputil.CodeGroupNotFound, http.StatusNotFound)
		default:
			logger.Error("failed to load group", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to load group", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, detail, http.StatusOK)
}

// Progress returns members' progress for a group
// @Summary      Group progress feed
// @Description  Return group members' progress entries, newest first.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Param        category query string false "Filter by category"
// @Param        metric query string false "Filter by metric"
// @Param        startDate query string false "Filter from date (YYYY-MM-DD)"
// @Param        endDate query string false "Filter to date (YYYY-MM-DD)"
// @Param        limit query int false "Max entries (default 30)"
// @Success      200 {array} ProgressEntry
// @Failure      403 {object} httputil.ErrorResponse "Not a member"
// @Router       /groups/{id}/progress [get]
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	groupID, err := parseGroupID(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid group id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	filter, err := parseProgressFilter(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	entries, err := h.service.Progress(r.Context(), groupID, userID, filter)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			httputil.RespondErrorWithCode(w, "you are not a member of this group", httputil.CodeNotGroupMember, http.StatusForbidden)
		default:
			logger.Error("failed to load group progress", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to load group progress", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, entries, http.StatusOK)
}

// Leave removes the caller from a group
// @Summary      Leave a group
// @Description  Leave a group; the group is deleted when its last member leaves.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse "Not a member of this group"
// @Router       /groups/{id}/leave [delete]
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	groupID, err := parseGroupID(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid group id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if err := h.service.Leave(r.Context(), groupID, userID); err != nil {
		if errors.Is(err, ErrNotMember) {
			httputil.RespondErrorWithCode(w, "you are not a member of this group", httputil.CodeNotGroupMember, http.StatusNotFound)
			return
		}
		logger.Error("failed to leave group", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to leave group", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user left group", "group_id", groupID, "user_id", userID)

	httputil.RespondJSON(w, map[string]string{"message": "left group"}, http.StatusOK)
}

func parseGroupID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseProgressFilter(r *http.Request) (ProgressFilter, error) {
	filter := ProgressFilter{
		Category: r.URL.Query().Get("category"),
		Metric:   r.URL.Query().Get("metric"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, errors.New("limit must be a positive integer")
		}
		filter.Limit = limit
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
