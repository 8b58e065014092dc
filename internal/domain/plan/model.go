package plan

import "fmt"

// ID identifies a subscription plan
type ID string

// Well-known plan identifiers
const (
	FreeTier       ID = "FREE_TIER"
	SilverMonthly  ID = "SILVER_MONTHLY"
	GoldMonthly    ID = "GOLD_MONTHLY"
	GoldAnnual     ID = "GOLD_ANNUAL"
	PlatinumAnnual ID = "PLATINUM_ANNUAL"
)

// Unlimited marks a limit that is never enforced. A limit of 0 is a real
// "no access" limit and is enforced.
const Unlimited int64 = -1

// PowerTier selects the model configuration a plan runs on
type PowerTier string

// Power tiers
const (
	TierStandard PowerTier = "standard"
	TierAdvanced PowerTier = "advanced"
	TierElite    PowerTier = "elite"
)

// Module is a gated capability a plan may unlock. The set is closed: callers
// parse user input with ParseModule and never match on raw strings.
type Module string

// Modules
const (
	ModuleNone         Module = ""
	ModuleCodeAssist   Module = "CODE_ASSIST_MODULE"
	ModuleDataAnalysis Module = "DATA_ANALYSIS_MODULE"
	ModuleDocumentQA   Module = "DOCUMENT_QA_MODULE"
	ModuleResearch     Module = "RESEARCH_MODULE"
)

// AllModules lists every known module in display order
var AllModules = []Module{
	ModuleCodeAssist,
	ModuleDataAnalysis,
	ModuleDocumentQA,
	ModuleResearch,
}

// IsValid reports whether m is a known module
func (m Module) IsValid() bool {
	for _, known := range AllModules {
		if m == known {
			return true
		}
	}
	return false
}

// ParseModule converts a raw module name into a Module. The empty string
// yields ModuleNone.
func ParseModule(s string) (Module, error) {
	if s == "" {
		return ModuleNone, nil
	}
	m := Module(s)
	if !m.IsValid() {
		return ModuleNone, fmt.Errorf("%w: %q", ErrUnknownModule, s)
	}
	return m, nil
}

// Plan is an immutable catalog entry
type Plan struct {
	ID                         ID        `json:"id" yaml:"id" validate:"required"`
	Label                      string    `json:"label" yaml:"label" validate:"required"`
	MonthlyMessageLimit        int64     `json:"monthly_message_limit" yaml:"monthly_message_limit" validate:"quota"`
	MonthlyTokenLimit          int64     `json:"monthly_token_limit" yaml:"monthly_token_limit" validate:"quota"`
	TokensPerMessageLimit      int64     `json:"tokens_per_message_limit" yaml:"tokens_per_message_limit" validate:"quota"`
	PowerTier                  PowerTier `json:"power_tier" yaml:"power_tier" validate:"required"`
	ModuleAccess               []Module  `json:"module_access" yaml:"module_access"`
	FileUploadEnabled          bool      `json:"file_upload_enabled" yaml:"file_upload_enabled"`
	MaxConcurrentConversations int       `json:"max_concurrent_conversations" yaml:"max_concurrent_conversations" validate:"gt=0"`
	PriceCents                 int64     `json:"price_cents" yaml:"price_cents" validate:"gte=0"`
	StripePriceID              string    `json:"-" yaml:"stripe_price_id"`
}

// Allows reports whether the plan unlocks module m
func (p Plan) Allows(m Module) bool {
	for _, granted := range p.ModuleAccess {
		if granted == m {
			return true
		}
	}
	return false
}

// IsFree reports whether the plan costs nothing
func (p Plan) IsFree() bool {
	return p.PriceCents == 0
}

// ModelConfig is the provider configuration for a power tier
type ModelConfig struct {
	ProviderModelID string  `json:"provider_model_id" yaml:"provider_model_id" validate:"required"`
	Temperature     float64 `json:"temperature" yaml:"temperature" validate:"gte=0,lte=1"`
	SpeedLabel      string  `json:"speed_label" yaml:"speed_label"`
}
