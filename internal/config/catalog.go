package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/pkg/validator"
)

// CatalogFile is the YAML layout of a plan catalog override
type CatalogFile struct {
	BasePlan   plan.ID                             `yaml:"base_plan" json:"base_plan" validate:"required"`
	Plans      []plan.Plan                         `yaml:"plans" json:"plans" validate:"required,min=1,dive"`
	PowerTiers map[plan.PowerTier]plan.ModelConfig `yaml:"power_tiers" json:"power_tiers" validate:"required,min=1,dive"`
}

// LoadCatalog returns the shipped catalog when path is empty, otherwise the
// catalog described by the YAML file at path
func LoadCatalog(path string) (*plan.Catalog, *plan.TierMap, error) {
	if path == "" {
		return plan.Defaults()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read plan catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML plan catalog
func ParseCatalog(data []byte) (*plan.Catalog, *plan.TierMap, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to parse plan catalog: %v", plan.ErrConfiguration, err)
	}

	if errs := validator.Validate(file); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Message)
		}
		return nil, nil, fmt.Errorf("%w: %s", plan.ErrConfiguration, strings.Join(msgs, "; "))
	}

	catalog, err := plan.NewCatalog(file.BasePlan, file.Plans...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", plan.ErrConfiguration, err)
	}
	tiers, err := plan.NewTierMap(file.PowerTiers)
	if err != nil {
		return nil, nil, err
	}
	return catalog, tiers, nil
}
