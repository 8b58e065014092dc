package handlers

import (
	"io"
	"net/http"

	"github.com/pratik-mahalle/tiergate/internal/api/dto"
	"github.com/pratik-mahalle/tiergate/internal/api/middleware"
	"github.com/pratik-mahalle/tiergate/internal/billing"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
	"github.com/pratik-mahalle/tiergate/internal/pkg/errors"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/utils"
	"github.com/pratik-mahalle/tiergate/internal/pkg/validator"
)

const maxWebhookBytes = 65536

// BillingHandler handles plan listing, plan changes and Stripe checkout
type BillingHandler struct {
	gate      gate.Service
	stripe    *billing.Stripe
	logger    *logger.Logger
	validator *validator.Validator
}

// NewBillingHandler creates a new BillingHandler. stripe may be nil when
// billing is not configured.
func NewBillingHandler(g gate.Service, stripe *billing.Stripe, log *logger.Logger, val *validator.Validator) *BillingHandler {
	return &BillingHandler{
		gate:      g,
		stripe:    stripe,
		logger:    log,
		validator: val,
	}
}

// ListPlans returns available subscription plans
// @Summary List subscription plans
// @Description Plans in display order. Authenticated callers see their current plan marked.
// @Tags Billing
// @Produce json
// @Success 200 {array} dto.PlanDTO "List of plans"
// @Router /plans [get]
func (h *BillingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	var current plan.ID
	if userID, ok := middleware.GetUserID(r); ok {
		if summary, err := h.gate.PlanSummary(r.Context(), userID); err == nil {
			current = summary.PlanID
		}
	}

	plans := h.gate.Plans()
	out := make([]dto.PlanDTO, 0, len(plans))
	for _, p := range plans {
		out = append(out, dto.NewPlanDTO(p, current))
	}
	utils.WriteSuccess(w, http.StatusOK, out)
}

// ChangePlan moves a user onto another plan and resets the period counters
// @Summary Change a user's plan
// @Description Admin only. Paid plans require a duration of monthly or annual.
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.ChangePlanRequest true "Target plan"
// @Success 200 {object} gate.PlanSummary
// @Failure 400 {object} utils.Envelope "Unknown plan or duration"
// @Failure 403 {object} utils.Envelope "Admin role required"
// @Security BearerAuth
// @Router /billing/subscription [post]
func (h *BillingHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	var req dto.ChangePlanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	target := req.UserID
	if target == "" {
		target = callerID
	}
	var d subscription.Duration
	if req.Duration != "" {
		parsed, err := subscription.ParseDuration(req.Duration)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		d = parsed
	}

	summary, err := h.gate.ChangePlan(r.Context(), target, plan.ID(req.PlanID), d)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"admin_id": callerID,
		"user_id":  target,
		"plan_id":  summary.PlanID,
	}).Info("Plan changed by admin")

	utils.WriteSuccess(w, http.StatusOK, summary)
}

// Checkout opens a Stripe checkout session for the caller
// @Summary Start checkout
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.CheckoutRequest true "Plan to buy"
// @Success 200 {object} dto.CheckoutResponse
// @Failure 503 {object} utils.Envelope "Billing not configured"
// @Security BearerAuth
// @Router /billing/checkout [post]
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}
	email, _ := middleware.GetUserEmail(r)

	var req dto.CheckoutRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}
	d, err := subscription.ParseDuration(req.Duration)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	co, err := h.stripe.CreateCheckout(r.Context(), userID, email, plan.ID(req.PlanID), d)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, dto.CheckoutResponse{SessionID: co.ID, URL: co.URL})
}

// Webhook receives Stripe events
// @Summary Stripe webhook
// @Tags Billing
// @Accept json
// @Produce json
// @Success 200 {object} utils.Envelope
// @Failure 400 {object} utils.Envelope "Signature verification failed"
// @Router /billing/webhook [post]
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid payload"))
		return
	}

	if err := h.stripe.HandleWebhook(r.Context(), body, r.Header.Get("Stripe-Signature")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, map[string]bool{"received": true})
}
