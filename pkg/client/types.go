package client

import "time"

// User is an account as returned by the API
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	PlanID        string     `json:"plan_id"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AuthResponse carries a token pair and the authenticated user
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	User         *User  `json:"user"`
}

// Message is one conversation turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one gated chat turn. Module is optional.
type ChatRequest struct {
	Messages []Message `json:"messages"`
	Module   string    `json:"module,omitempty"`
}

// ChatResponse is the reply and the usage after it was charged
type ChatResponse struct {
	Reply      string       `json:"reply"`
	Model      string       `json:"model"`
	SpeedLabel string       `json:"speed_label,omitempty"`
	TokensUsed int64        `json:"tokens_used"`
	Usage      *PlanSummary `json:"usage,omitempty"`
}

// Counters are usage or headroom in the current period. -1 means unlimited.
type Counters struct {
	Messages int64 `json:"messages"`
	Tokens   int64 `json:"tokens"`
}

// Limits are the monthly caps of a plan. -1 means unlimited.
type Limits struct {
	Messages                   int64 `json:"messages"`
	Tokens                     int64 `json:"tokens"`
	TokensPerMessage           int64 `json:"tokens_per_message"`
	MaxConcurrentConversations int   `json:"max_concurrent_conversations"`
}

// PeriodTotals is what was consumed in one month
type PeriodTotals struct {
	Messages int64 `json:"messages"`
	Tokens   int64 `json:"tokens"`
}

// PlanSummary is a user's plan and usage
type PlanSummary struct {
	UserID            string                  `json:"user_id"`
	PlanID            string                  `json:"plan_id"`
	PlanLabel         string                  `json:"plan_label"`
	PowerTier         string                  `json:"power_tier"`
	Period            string                  `json:"period"`
	Limits            Limits                  `json:"limits"`
	Used              Counters                `json:"used"`
	Remaining         Counters                `json:"remaining"`
	ModuleAccess      []string                `json:"module_access"`
	FileUploadEnabled bool                    `json:"file_upload_enabled"`
	StartedAt         *time.Time              `json:"started_at,omitempty"`
	ExpiresAt         *time.Time              `json:"expires_at,omitempty"`
	History           map[string]PeriodTotals `json:"history,omitempty"`
}

// Plan is a catalog entry
type Plan struct {
	ID                         string   `json:"id"`
	Label                      string   `json:"label"`
	MonthlyMessageLimit        int64    `json:"monthly_message_limit"`
	MonthlyTokenLimit          int64    `json:"monthly_token_limit"`
	TokensPerMessageLimit      int64    `json:"tokens_per_message_limit"`
	PowerTier                  string   `json:"power_tier"`
	ModuleAccess               []string `json:"module_access"`
	FileUploadEnabled          bool     `json:"file_upload_enabled"`
	MaxConcurrentConversations int      `json:"max_concurrent_conversations"`
	PriceCents                 int64    `json:"price_cents"`
	IsCurrent                  bool     `json:"is_current"`
}

// Checkout points at a hosted Stripe checkout page
type Checkout struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// UserUsage is one row of the admin user listing
type UserUsage struct {
	User
	Period       string `json:"period"`
	MessagesUsed int64  `json:"messages_used"`
	TokensUsed   int64  `json:"tokens_used"`
}

// UserPage is one page of the admin user listing
type UserPage struct {
	Data       []UserUsage `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalItems int64       `json:"total_items"`
	TotalPages int         `json:"total_pages"`
}

// Denial is attached to quota and module denials
type Denial struct {
	PlanID       string `json:"plan_id"`
	Module       string `json:"module,omitempty"`
	MessagesUsed int64  `json:"messages_used"`
	TokensUsed   int64  `json:"tokens_used"`
	MessageLimit int64  `json:"message_limit"`
	TokenLimit   int64  `json:"token_limit"`
}

// HealthResponse is the liveness probe body
type HealthResponse struct {
	Status string `json:"status"`
}
