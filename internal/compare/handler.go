package compare

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
	"github.com/fitpulse/fitpulse-api/internal/user"
)

// defaultLeaderboardLimit caps the leaderboard when no limit is sent
const defaultLeaderboardLimit = 10

// Store is the friendship and aggregation persistence the handlers depend on
type Store interface {
	FriendshipExists(ctx context.Context, userID, friendID uuid.UUID) (bool, error)
	AreFriends(ctx context.Context, userID, friendID uuid.UUID) (bool, error)
	CreateInvitation(ctx context.Context, userID, friendID uuid.UUID) error
	GetParticipant(ctx context.Context, userID uuid.UUID) (*Participant, error)
	ListUserProgress(ctx context.Context, userID uuid.UUID, filter Filter) ([]ProgressEntry, error)
	Leaderboard(ctx context.Context, filter Filter, limit int) ([]LeaderboardRow, error)
}

// UserLookup resolves an invitee's account by email
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Handler contains HTTP handlers for compare endpoints
type Handler struct {
	repo  Store
	users UserLookup
}

func NewHandler(repo Store, users UserLookup) *Handler {
	return &Handler{repo: repo, users: users}
}

// InviteRequest represents the friend invitation request body
type InviteRequest struct {
	FriendEmail string `json:"friendEmail"`
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/invite", h.Invite)
	r.Get("/user/{friendId}", h.CompareWithFriend)
	r.Get("/leaderboard", h.Leaderboard)

	return r
}

// Invite sends a friend invitation
// @Summary      Invite a friend
// @Description  Create a pending friendship and notify the invitee.
// @Tags         compare
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body InviteRequest true "Friend's email"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Missing email or self-invite"
// @Failure      404 {object} httputil.ErrorResponse "Unknown email"
// @Failure      409 {object} httputil.ErrorResponse "Friendship already exists"
// @Router       /compare/invite [post]
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(req.FriendEmail)
	if email == "" {
		httputil.RespondErrorWithCode(w, "friend email is required", httputil.CodeEmailRequired, http.StatusBadRequest)
		return
	}

	friend, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to look up friend", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to send invitation", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if friend.ID == userID {
		httputil.RespondErrorWithCode(w, "cannot add yourself as a friend", httputil.CodeCannotAddSelf, http.StatusBadRequest)
		return
	}

	exists, err := h.repo.FriendshipExists(r.Context(), userID, friend.ID)
	if err != nil {
		logger.Error("failed to check friendship", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to send invitation", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	if exists {
		httputil.RespondErrorWithCode(w, "friendship already exists", httputil.CodeAlreadyFriends, http.StatusConflict)
		return
	}

	if err := h.repo.CreateInvitation(r.Context(), userID, friend.ID); err != nil {
		logger.Error("failed to create invitation", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to send invitation", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("friend invitation sent", "user_id", userID, "friend_id", friend.ID)

	httputil.RespondJSON(w, map[string]string{"message": "Friend invitation sent"}, http.StatusOK)
}

// CompareWithFriend compares the caller's progress with a friend's
// @Summary      Compare with a friend
// @Description  Return both users' progress with per-side totals. Requires an accepted friendship.
// @Tags         compare
// @Produce      json
// @Security     BearerAuth
// @Param        friendId path string true "Friend's user ID"
// @Param        category query string false "Filter by category"
// @Param        startDate query string false "Filter from date (YYYY-MM-DD)"
// @Param        endDate query string false "Filter to date (YYYY-MM-DD)"
// @Success      200 {object} Comparison
// @Failure      403 {object} httputil.ErrorResponse "Users are not friends"
// @Router       /compare/user/{friendId} [get]
func (h *Handler) CompareWithFriend(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	friendID, err := uuid.Parse(chi.URLParam(r, "friendId"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid friend id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	areFriends, err := h.repo.AreFriends(r.Context(), userID, friendID)
	if err != nil {
		logger.Error("failed to check friendship", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to compare progress", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}
	if !areFriends {
		httputil.RespondErrorWithCode(w, "users are not friends", httputil.CodeNotFriends, http.StatusForbidden)
		return
	}

	comparison, err := h.buildComparison(r, userID, friendID, filter)
	if err != nil {
		logger.Error("failed to build comparison", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to compare progress", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, comparison, http.StatusOK)
}

func (h *Handler) buildComparison(r *http.Request, userID, friendID uuid.UUID, filter Filter) (*Comparison, error) {
	ctx := r.Context()

	currentUser, err := h.repo.GetParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	friend, err := h.repo.GetParticipant(ctx, friendID)
	if err != nil {
		return nil, err
	}

	currentProgress, err := h.repo.ListUserProgress(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	friendProgress, err := h.repo.ListUserProgress(ctx, friendID, filter)
	if err != nil {
		return nil, err
	}

	currentTotal, currentAvg := sideStats(currentProgress)
	friendTotal, friendAvg := sideStats(friendProgress)

	return &Comparison{
		CurrentUser: Side{
			User:         *currentUser,
			Progress:     currentProgress,
			TotalEntries: currentTotal,
			AverageValue: currentAvg,
		},
		Friend: Side{
			User:         *friend,
			Progress:     friendProgress,
			TotalEntries: friendTotal,
			AverageValue: friendAvg,
		},
	}, nil
}

// Leaderboard ranks active users by total progress
// @Summary      Leaderboard
// @Description  Rank active users by summed progress value.
// @Tags         compare
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "Filter by category"
// @Param        startDate query string false "Filter from date (YYYY-MM-DD)"
// @Param        endDate query string false "Filter to date (YYYY-MM-DD)"
// @Param        limit query int false "Max rows (default 10)"
// @Success      200 {array} LeaderboardRow
// @Router       /compare/leaderboard [get]
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if _, ok := auth.GetUserIDFromContext(r.Context()); !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.RespondErrorWithCode(w, "limit must be a positive integer", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	leaderboard, err := h.repo.Leaderboard(r.Context(), filter, limit)
	if err != nil {
		logger.Error("failed to build leaderboard", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to build leaderboard", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, leaderboard, http.StatusOK)
}

func parseFilter(r *http.Request) (Filter, error) {
	filter := Filter{
		Category: r.URL.Query().Get("category"),
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
