package plan

// DefaultPlans is the catalog shipped with the binary. Deployments may
// replace it with a YAML file.
func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:                         FreeTier,
			Label:                      "Free",
			MonthlyMessageLimit:        10,
			MonthlyTokenLimit:          5000,
			TokensPerMessageLimit:      500,
			PowerTier:                  TierStandard,
			MaxConcurrentConversations: 1,
		},
		{
			ID:                         SilverMonthly,
			Label:                      "Silver",
			MonthlyMessageLimit:        300,
			MonthlyTokenLimit:          200000,
			TokensPerMessageLimit:      1000,
			PowerTier:                  TierStandard,
			ModuleAccess:               []Module{ModuleCodeAssist},
			FileUploadEnabled:          true,
			MaxConcurrentConversations: 3,
			PriceCents:                 999,
		},
		{
			ID:                         GoldMonthly,
			Label:                      "Gold",
			MonthlyMessageLimit:        1500,
			MonthlyTokenLimit:          1000000,
			TokensPerMessageLimit:      2000,
			PowerTier:                  TierAdvanced,
			ModuleAccess:               []Module{ModuleCodeAssist, ModuleDataAnalysis, ModuleDocumentQA},
			FileUploadEnabled:          true,
			MaxConcurrentConversations: 5,
			PriceCents:                 2999,
		},
		{
			ID:                         GoldAnnual,
			Label:                      "Gold (annual)",
			MonthlyMessageLimit:        1500,
			MonthlyTokenLimit:          1000000,
			TokensPerMessageLimit:      2000,
			PowerTier:                  TierAdvanced,
			ModuleAccess:               []Module{ModuleCodeAssist, ModuleDataAnalysis, ModuleDocumentQA},
			FileUploadEnabled:          true,
			MaxConcurrentConversations: 5,
			PriceCents:                 29900,
		},
		{
			ID:                         PlatinumAnnual,
			Label:                      "Platinum (annual)",
			MonthlyMessageLimit:        Unlimited,
			MonthlyTokenLimit:          Unlimited,
			TokensPerMessageLimit:      4000,
			PowerTier:                  TierElite,
			ModuleAccess:               AllModules,
			FileUploadEnabled:          true,
			MaxConcurrentConversations: 20,
			PriceCents:                 79900,
		},
	}
}

// DefaultModels maps the shipped power tiers to provider models
func DefaultModels() map[PowerTier]ModelConfig {
	return map[PowerTier]ModelConfig{
		TierStandard: {ProviderModelID: "gpt-4o-mini", Temperature: 0.7, SpeedLabel: "fast"},
		TierAdvanced: {ProviderModelID: "gpt-4o", Temperature: 0.6, SpeedLabel: "balanced"},
		TierElite:    {ProviderModelID: "gpt-4.1", Temperature: 0.5, SpeedLabel: "thorough"},
	}
}

// Defaults returns the shipped catalog and tier map
func Defaults() (*Catalog, *TierMap, error) {
	catalog, err := NewCatalog(FreeTier, DefaultPlans()...)
	if err != nil {
		return nil, nil, err
	}
	tiers, err := NewTierMap(DefaultModels())
	if err != nil {
		return nil, nil, err
	}
	return catalog, tiers, nil
}
