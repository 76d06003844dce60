package subscription

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fitpulse/fitpulse-api/internal/auth"
	"github.com/fitpulse/fitpulse-api/internal/httputil"
	"github.com/fitpulse/fitpulse-api/internal/logging"
)

// placeholderCheckoutURL stands in until a payment provider is integrated
const placeholderCheckoutURL = "https://checkout.stripe.com/placeholder"

// Handler contains HTTP handlers for subscription endpoints
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CheckoutRequest represents the checkout creation request body
type CheckoutRequest struct {
	PlanType string `json:"planType"`
}

// CheckoutResponse bundles the created subscription with a checkout URL
type CheckoutResponse struct {
	Subscription *Subscription `json:"subscription"`
	CheckoutURL  string        `json:"checkoutUrl"`
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/create-checkout", h.CreateCheckout)
	r.Get("/", h.Get)
	r.Post("/cancel", h.Cancel)

	return r
}

// CreateCheckout creates a subscription and returns a checkout URL
// @Summary      Create checkout
// @Description  Create an active subscription and return a placeholder checkout URL.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CheckoutRequest true "Plan type"
// @Success      200 {object} CheckoutResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing plan type"
// @Router       /subscriptions/create-checkout [post]
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.PlanType) == "" {
		httputil.RespondErrorWithCode(w, "plan type is required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	sub, err := h.repo.Create(r.Context(), userID, req.PlanType)
	if err != nil {
		logger.Error("failed to create subscription", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create subscription", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("subscription created", "user_id", userID, "plan_type", req.PlanType)

	httputil.RespondJSON(w, CheckoutResponse{
		Subscription: sub,
		CheckoutURL:  placeholderCheckoutURL,
	}, http.StatusOK)
}

// Get returns the caller's most recent subscription
// @Summary      Get subscription
// @Description  Return the caller's most recent subscription.
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Subscription
// @Failure      404 {object} httputil.ErrorResponse "No subscription"
// @Router       /subscriptions [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	sub, err := h.repo.GetLatest(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "no subscription found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get subscription", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get subscription", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, sub, http.StatusOK)
}

// Cancel cancels the caller's active subscription
// @Summary      Cancel subscription
// @Description  Cancel the caller's active subscription.
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Subscription
// @Failure      404 {object} httputil.ErrorResponse "No active subscription"
// @Router       /subscriptions/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	sub, err := h.repo.Cancel(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSub) {
			httputil.RespondErrorWithCode(w, "no active subscription found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to cancel subscription", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to cancel subscription", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("subscription canceled", "user_id", userID)

	httputil.RespondJSON(w, sub, http.StatusOK)
}

// Webhook acknowledges payment provider events. Signature verification and
// event handling come with the real payment integration.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]bool{"received": true}, http.StatusOK)
}
