package plan

import (
	"fmt"
)

// Catalog is the read-only table of subscription plans. It is safe for
// concurrent use once constructed.
type Catalog struct {
	base  ID
	plans map[ID]Plan
	order []ID
}

// NewCatalog builds a catalog whose fallback plan is base. Plans keep the
// order they are given in.
func NewCatalog(base ID, plans ...Plan) (*Catalog, error) {
	c := &Catalog{
		base:  base,
		plans: make(map[ID]Plan, len(plans)),
		order: make([]ID, 0, len(plans)),
	}

	for _, p := range plans {
		if err := validatePlan(p); err != nil {
			return nil, err
		}
		if _, exists := c.plans[p.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlan, p.ID)
		}
		p.ModuleAccess = append([]Module(nil), p.ModuleAccess...)
		c.plans[p.ID] = p
		c.order = append(c.order, p.ID)
	}

	if _, ok := c.plans[base]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBasePlan, base)
	}

	return c, nil
}

func validatePlan(p Plan) error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPlan)
	}
	limits := map[string]int64{
		"monthly_message_limit":    p.MonthlyMessageLimit,
		"monthly_token_limit":      p.MonthlyTokenLimit,
		"tokens_per_message_limit": p.TokensPerMessageLimit,
	}
	for name, v := range limits {
		if v < Unlimited {
			return fmt.Errorf("%w: %s %s=%d", ErrInvalidPlan, p.ID, name, v)
		}
	}
	if p.TokensPerMessageLimit == 0 {
		return fmt.Errorf("%w: %s tokens_per_message_limit must be positive or unlimited", ErrInvalidPlan, p.ID)
	}
	if p.MaxConcurrentConversations <= 0 {
		return fmt.Errorf("%w: %s max_concurrent_conversations must be positive", ErrInvalidPlan, p.ID)
	}
	if p.PowerTier == "" {
		return fmt.Errorf("%w: %s has no power tier", ErrInvalidPlan, p.ID)
	}
	for _, m := range p.ModuleAccess {
		if !m.IsValid() {
			return fmt.Errorf("%w: %s grants %q", ErrUnknownModule, p.ID, m)
		}
	}
	return nil
}

// Lookup returns the plan for id, or the base plan when id is empty or
// unknown. Unknown ids are recoverable data errors.
func (c *Catalog) Lookup(id ID) Plan {
	if p, ok := c.plans[id]; ok {
		return p
	}
	return c.plans[c.base]
}

// Known reports whether id is in the catalog
func (c *Catalog) Known(id ID) bool {
	_, ok := c.plans[id]
	return ok
}

// Base returns the free/base plan id
func (c *Catalog) Base() ID {
	return c.base
}

// IsBase reports whether id is the base plan
func (c *Catalog) IsBase(id ID) bool {
	return id == c.base
}

// List returns all plans in catalog order
func (c *Catalog) List() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id])
	}
	return out
}

// PowerTiers returns the distinct power tiers referenced by the catalog
func (c *Catalog) PowerTiers() []PowerTier {
	seen := make(map[PowerTier]bool)
	var out []PowerTier
	for _, id := range c.order {
		t := c.plans[id].PowerTier
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
