package settings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fitpulse/fitpulse-api/internal/httputil"
	"github.com/fitpulse/fitpulse-api/internal/logging"
)

// Handler contains HTTP handlers for settings endpoints
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// UpdateRequest represents the setting update request body
type UpdateRequest struct {
	Value string `json:"value"`
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	// /metrics must come before /{key} so chi does not treat it as a key
	r.Get("/metrics", h.Metrics)
	r.Put("/{key}", h.Update)

	return r
}

// List returns all settings
// @Summary      List settings
// @Description  List all global settings ordered by key.
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Setting
// @Router       /settings [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	settings, err := h.repo.List(r.Context())
	if err != nil {
		logger.Error("failed to list settings", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list settings", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, settings, http.StatusOK)
}

// Update sets a setting's value
// @Summary      Update setting
// @Description  Update the value of an existing setting.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        key path string true "Setting key"
// @Param        request body UpdateRequest true "New value"
// @Success      200 {object} Setting
// @Failure      400 {object} httputil.ErrorResponse "Missing value"
// @Failure      404 {object} httputil.ErrorResponse "Unknown key"
// @Router       /settings/{key} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	key := chi.URLParam(r, "key")

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Value) == "" {
		httputil.RespondErrorWithCode(w, "value is required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	updated, err := h.repo.Update(r.Context(), key, req.Value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "setting not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update setting", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update setting", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("setting updated", "key", key)

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Metrics returns dashboard counters
// @Summary      Dashboard metrics
// @Description  Return total users, total progress entries and users active in the last 30 days.
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Metrics
// @Router       /settings/metrics [get]
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	metrics, err := h.repo.Metrics(r.Context())
	if err != nil {
		logger.Error("failed to load metrics", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load metrics", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, metrics, http.StatusOK)
}
