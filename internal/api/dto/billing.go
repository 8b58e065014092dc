package dto

import "github.com/pratik-mahalle/tiergate/internal/domain/plan"

// PlanDTO is a catalog entry as shown to clients
type PlanDTO struct {
	ID                         string        `json:"id"`
	Label                      string        `json:"label"`
	MonthlyMessageLimit        int64         `json:"monthly_message_limit"`
	MonthlyTokenLimit          int64         `json:"monthly_token_limit"`
	TokensPerMessageLimit      int64         `json:"tokens_per_message_limit"`
	PowerTier                  string        `json:"power_tier"`
	ModuleAccess               []plan.Module `json:"module_access"`
	FileUploadEnabled          bool          `json:"file_upload_enabled"`
	MaxConcurrentConversations int           `json:"max_concurrent_conversations"`
	PriceCents                 int64         `json:"price_cents"`
	IsCurrent                  bool          `json:"is_current"`
}

// NewPlanDTO converts a catalog plan
func NewPlanDTO(p plan.Plan, current plan.ID) PlanDTO {
	modules := p.ModuleAccess
	if modules == nil {
		modules = []plan.Module{}
	}
	return PlanDTO{
		ID:                         string(p.ID),
		Label:                      p.Label,
		MonthlyMessageLimit:        p.MonthlyMessageLimit,
		MonthlyTokenLimit:          p.MonthlyTokenLimit,
		TokensPerMessageLimit:      p.TokensPerMessageLimit,
		PowerTier:                  string(p.PowerTier),
		ModuleAccess:               modules,
		FileUploadEnabled:          p.FileUploadEnabled,
		MaxConcurrentConversations: p.MaxConcurrentConversations,
		PriceCents:                 p.PriceCents,
		IsCurrent:                  p.ID == current,
	}
}

// ChangePlanRequest moves a user to another plan. UserID defaults to the
// caller.
type ChangePlanRequest struct {
	UserID   string `json:"user_id,omitempty"`
	PlanID   string `json:"plan_id" validate:"required"`
	Duration string `json:"duration,omitempty" validate:"omitempty,duration"`
}

// CheckoutRequest starts a Stripe checkout for a paid plan
type CheckoutRequest struct {
	PlanID   string `json:"plan_id" validate:"required"`
	Duration string `json:"duration" validate:"required,duration"`
}

// CheckoutResponse points the client at the hosted checkout page
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
