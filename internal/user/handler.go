package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitpulse/fitpulse-api/internal/httputil"
	"github.com/fitpulse/fitpulse-api/internal/logging"
)

// IdentityFunc extracts the authenticated user's id from the request context.
// Injected by the router to avoid importing the auth package from here.
type IdentityFunc func(ctx context.Context) (uuid.UUID, bool)

// ProfileStore is the persistence the profile handlers depend on
type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// Handler contains HTTP handlers for user profile endpoints
type Handler struct {
	repo     ProfileStore
	identity IdentityFunc
}

func NewHandler(repo ProfileStore, identity IdentityFunc) *Handler {
	return &Handler{repo: repo, identity: identity}
}

// PublicProfile is the profile projection visible to other users
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	AvatarURL *string   `json:"avatarUrl"`
	Goals     []string  `json:"goals"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{userId}", h.Get)
	r.Put("/{userId}", h.Update)
	r.Delete("/{userId}", h.Delete)

	return r
}

// Get returns a user's public profile
// @Summary      Get user profile
// @Description  Return a user's public profile.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userId path string true "User ID"
// @Success      200 {object} PublicProfile
// @Failure      404 {object} httputil.ErrorResponse "Unknown user"
// @Router       /users/{userId} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	targetID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	u, err := h.repo.GetByID(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, PublicProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		Goals:     u.Goals,
		CreatedAt: u.CreatedAt,
	}, http.StatusOK)
}

// Update applies a partial profile update; only the owner may update
// @Summary      Update profile
// @Description  Partially update the caller's own profile.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId path string true "User ID"
// @Param        request body ProfileUpdate true "Fields to update"
// @Success      200 {object} User
// @Failure      400 {object} httputil.ErrorResponse "No fields to update"
// @Failure      403 {object} httputil.ErrorResponse "Not the profile owner"
// @Router       /users/{userId} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	callerID, ok := h.identity(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if targetID != callerID {
		httputil.RespondErrorWithCode(w, "you can only update your own profile", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	var update ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if update.IsEmpty() {
		httputil.RespondErrorWithCode(w, "no fields to update", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	updated, err := h.repo.UpdateProfile(r.Context(), callerID, update)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("profile updated", "user_id", callerID)

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete removes the caller's account; dependent rows cascade
// @Summary      Delete account
// @Description  Delete the caller's own account and all owned data.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userId path string true "User ID"
// @Success      200 {object} map[string]string
// @Failure      403 {object} httputil.ErrorResponse "Not the account owner"
// @Router       /users/{userId} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	callerID, ok := h.identity(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if targetID != callerID {
		httputil.RespondErrorWithCode(w, "you can only delete your own account", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	if err := h.repo.Delete(r.Context(), callerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete account", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("account deleted", "user_id", callerID)

	httputil.RespondJSON(w, map[string]string{"message": "account deleted"}, http.StatusOK)
}
