package notification

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fitpulse/fitpulse-api/internal/auth"
	"github.com/fitpulse/fitpulse-api/internal/httputil"
	"github.com/fitpulse/fitpulse-api/internal/logging"
)

// defaultListLimit caps a listing when the client sends no limit
const defaultListLimit = 50

// Handler contains HTTP handlers for notification endpoints
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateRequest represents the notification creation request body
type CreateRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{notificationId}/read", h.MarkRead)
	r.Delete("/{notificationId}", h.Delete)

	return r
}

// List returns the caller's notifications
// @Summary      List notifications
// @Description  List the caller's notifications, newest first.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max rows (default 50)"
// @Param        offset query int false "Offset for paging"
// @Param        unreadOnly query bool false "Only unread notifications"
// @Success      200 {array} Notification
// @Router       /notifications [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	filter := ListFilter{
		Limit:      defaultListLimit,
		UnreadOnly: r.URL.Query().Get("unreadOnly") == "true",
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			httputil.RespondErrorWithCode(w, "limit must be a positive integer", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			httputil.RespondErrorWithCode(w, "offset must be a non-negative integer", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		filter.Offset = offset
	}

	notifications, err := h.repo.List(r.Context(), userID, filter)
	if err != nil {
		logger.Error("failed to list notifications", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list notifications", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, notifications, http.StatusOK)
}

// Create creates a notification for the caller
// @Summary      Create notification
// @Description  Create a notification addressed to the caller.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateRequest true "Notification details"
// @Success      201 {object} Notification
// @Failure      400 {object} httputil.ErrorResponse "Missing title or message"
// @Router       /notifications [post]
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

	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if req.Title == "" || req.Message == "" {
		httputil.RespondErrorWithCode(w, "title and message are required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if req.Type == "" {
		req.Type = "info"
	}

	created, err := h.repo.Create(r.Context(), userID, req.Title, req.Message, req.Type)
	if err != nil {
		logger.Error("failed to create notification", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create notification", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// MarkRead marks a notification as read
// @Summary      Mark notification read
// @Description  Mark one of the caller's notifications as read.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        notificationId path int true "Notification ID"
// @Success      200 {object} Notification
// @Failure      404 {object} httputil.ErrorResponse "Unknown or foreign notification"
// @Router       /notifications/{notificationId}/read [put]
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "notificationId"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid notification id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	updated, err := h.repo.MarkRead(r.Context(), userID, notificationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "notification not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to mark notification read", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to mark notification read", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete removes a notification
// @Summary      Delete notification
// @Description  Delete one of the caller's notifications.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        notificationId path int true "Notification ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse "Unknown or foreign notification"
// @Router       /notifications/{notificationId} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "notificationId"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid notification id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), userID, notificationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "notification not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete notification", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete notification", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, map[string]string{"message": "notification deleted"}, http.StatusOK)
}
