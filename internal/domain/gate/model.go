package gate

import (
	"time"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/usage"
)

// Outcome is the terminal state of one gate evaluation
type Outcome string

// Outcomes
const (
	Allowed                  Outcome = "ALLOWED"
	DeniedMessageLimit       Outcome = "DENIED_MESSAGE_LIMIT"
	DeniedTokenLimit         Outcome = "DENIED_TOKEN_LIMIT"
	DeniedModuleUnauthorized Outcome = "DENIED_MODULE_UNAUTHORIZED"
	ConfigError              Outcome = "CONFIG_ERROR"
)

// IsDenial reports whether o is a user-facing quota or module denial
func (o Outcome) IsDenial() bool {
	switch o {
	case DeniedMessageLimit, DeniedTokenLimit, DeniedModuleUnauthorized:
		return true
	}
	return false
}

// Result is returned by Evaluate for every terminal state. Model and
// MaxResponseTokens are only set when Outcome is Allowed.
type Result struct {
	Outcome           Outcome          `json:"outcome"`
	UserID            string           `json:"user_id"`
	PlanID            plan.ID          `json:"plan_id"`
	Module            plan.Module      `json:"module,omitempty"`
	Model             plan.ModelConfig `json:"model"`
	MaxResponseTokens int64            `json:"max_response_tokens"`
	MessagesUsed      int64            `json:"messages_used"`
	TokensUsed        int64            `json:"tokens_used"`
	MessageLimit      int64            `json:"message_limit"`
	TokenLimit        int64            `json:"token_limit"`

	// Cause carries the configuration error behind a ConfigError outcome
	Cause error `json:"-"`
}

// Err converts a non-allowed result into an error. It returns nil when the
// request was allowed.
func (r *Result) Err() error {
	switch {
	case r.Outcome == Allowed:
		return nil
	case r.Outcome.IsDenial():
		return &DenialError{
			Outcome:      r.Outcome,
			PlanID:       r.PlanID,
			Module:       r.Module,
			MessagesUsed: r.MessagesUsed,
			TokensUsed:   r.TokensUsed,
			MessageLimit: r.MessageLimit,
			TokenLimit:   r.TokenLimit,
		}
	case r.Cause != nil:
		return r.Cause
	default:
		return plan.ErrConfiguration
	}
}

// Limits are the monthly caps of a plan. usage.Unbounded marks no cap.
type Limits struct {
	Messages          int64 `json:"messages"`
	Tokens            int64 `json:"tokens"`
	TokensPerMessage  int64 `json:"tokens_per_message"`
	ConcurrentThreads int   `json:"max_concurrent_conversations"`
}

// Counters is usage or headroom within the current period
type Counters struct {
	Messages int64 `json:"messages"`
	Tokens   int64 `json:"tokens"`
}

// PlanSummary is the display view of a user's plan and usage
type PlanSummary struct {
	UserID            string                           `json:"user_id"`
	PlanID            plan.ID                          `json:"plan_id"`
	PlanLabel         string                           `json:"plan_label"`
	PowerTier         plan.PowerTier                   `json:"power_tier"`
	Period            usage.PeriodKey                  `json:"period"`
	Limits            Limits                           `json:"limits"`
	Used              Counters                         `json:"used"`
	Remaining         Counters                         `json:"remaining"`
	ModuleAccess      []plan.Module                    `json:"module_access"`
	FileUploadEnabled bool                             `json:"file_upload_enabled"`
	StartedAt         *time.Time                       `json:"started_at,omitempty"`
	ExpiresAt         *time.Time                       `json:"expires_at,omitempty"`
	History           map[usage.PeriodKey]usage.Totals `json:"history,omitempty"`
}
