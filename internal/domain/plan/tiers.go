package plan

import "fmt"

// TierMap maps a power tier to the provider model configuration
type TierMap struct {
	models map[PowerTier]ModelConfig
}

// NewTierMap builds an immutable tier map
func NewTierMap(models map[PowerTier]ModelConfig) (*TierMap, error) {
	m := &TierMap{models: make(map[PowerTier]ModelConfig, len(models))}
	for tier, cfg := range models {
		if cfg.ProviderModelID == "" {
			return nil, fmt.Errorf("%w: tier %s has no provider model id", ErrConfiguration, tier)
		}
		if cfg.Temperature < 0 || cfg.Temperature > 1 {
			return nil, fmt.Errorf("%w: tier %s temperature %.2f outside [0,1]", ErrConfiguration, tier, cfg.Temperature)
		}
		m.models[tier] = cfg
	}
	return m, nil
}

// Resolve returns the model configuration for tier. A missing mapping is a
// configuration error and is never defaulted.
func (m *TierMap) Resolve(tier PowerTier) (ModelConfig, error) {
	cfg, ok := m.models[tier]
	if !ok {
		return ModelConfig{}, fmt.Errorf("%w: no model mapped for power tier %q", ErrConfiguration, tier)
	}
	return cfg, nil
}

// Missing returns the entries of tiers that have no mapping
func (m *TierMap) Missing(tiers []PowerTier) []PowerTier {
	var out []PowerTier
	for _, t := range tiers {
		if _, ok := m.models[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
