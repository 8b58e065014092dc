package plan

import (
	"errors"
	"testing"
)

func TestCatalog_Lookup(t *testing.T) {
	catalog, _, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults() error = %v", err)
	}

	tests := []struct {
		name string
		id   ID
		want ID
	}{
		{name: "known paid plan", id: GoldAnnual, want: GoldAnnual},
		{name: "base plan", id: FreeTier, want: FreeTier},
		{name: "unknown plan falls back to base", id: "BRONZE_LEGACY", want: FreeTier},
		{name: "empty plan falls back to base", id: "", want: FreeTier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := catalog.Lookup(tt.id); got.ID != tt.want {
				t.Errorf("Lookup(%q) = %v, want %v", tt.id, got.ID, tt.want)
			}
		})
	}
}

func TestNewCatalog_Validation(t *testing.T) {
	free := Plan{ID: FreeTier, Label: "Free", PowerTier: TierStandard, TokensPerMessageLimit: 500, MaxConcurrentConversations: 1}

	tests := []struct {
		name    string
		base    ID
		plans   []Plan
		wantErr error
	}{
		{name: "valid", base: FreeTier, plans: []Plan{free}},
		{name: "missing base", base: GoldAnnual, plans: []Plan{free}, wantErr: ErrMissingBasePlan},
		{name: "duplicate id", base: FreeTier, plans: []Plan{free, free}, wantErr: ErrDuplicatePlan},
		{
			name:    "limit below unlimited sentinel",
			base:    FreeTier,
			plans:   []Plan{{ID: FreeTier, PowerTier: TierStandard, TokensPerMessageLimit: 500, MaxConcurrentConversations: 1, MonthlyMessageLimit: -2}},
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "zero tokens per message",
			base:    FreeTier,
			plans:   []Plan{{ID: FreeTier, PowerTier: TierStandard, MaxConcurrentConversations: 1}},
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "zero conversations",
			base:    FreeTier,
			plans:   []Plan{{ID: FreeTier, PowerTier: TierStandard, TokensPerMessageLimit: 500}},
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "unknown module grant",
			base:    FreeTier,
			plans:   []Plan{{ID: FreeTier, PowerTier: TierStandard, TokensPerMessageLimit: 500, MaxConcurrentConversations: 1, ModuleAccess: []Module{"SHELL_MODULE"}}},
			wantErr: ErrUnknownModule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.base, tt.plans...)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("NewCatalog() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewCatalog() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalog_ListKeepsOrder(t *testing.T) {
	catalog, _, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults() error = %v", err)
	}
	plans := catalog.List()
	if len(plans) != len(DefaultPlans()) {
		t.Fatalf("List() len = %d, want %d", len(plans), len(DefaultPlans()))
	}
	for i, p := range DefaultPlans() {
		if plans[i].ID != p.ID {
			t.Errorf("List()[%d] = %v, want %v", i, plans[i].ID, p.ID)
		}
	}
}

func TestTierMap_Resolve(t *testing.T) {
	tiers, err := NewTierMap(DefaultModels())
	if err != nil {
		t.Fatalf("NewTierMap() error = %v", err)
	}

	cfg, err := tiers.Resolve(TierAdvanced)
	if err != nil {
		t.Fatalf("Resolve(advanced) error = %v", err)
	}
	if cfg.ProviderModelID != "gpt-4o" {
		t.Errorf("Resolve(advanced) model = %v, want gpt-4o", cfg.ProviderModelID)
	}

	if _, err := tiers.Resolve("quantum"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Resolve(quantum) error = %v, want ErrConfiguration", err)
	}
}

func TestNewTierMap_RejectsBadTemperature(t *testing.T) {
	_, err := NewTierMap(map[PowerTier]ModelConfig{
		TierStandard: {ProviderModelID: "gpt-4o-mini", Temperature: 1.5},
	})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("NewTierMap() error = %v, want ErrConfiguration", err)
	}
}

func TestTierMap_Missing(t *testing.T) {
	tiers, _ := NewTierMap(map[PowerTier]ModelConfig{
		TierStandard: {ProviderModelID: "gpt-4o-mini"},
	})
	missing := tiers.Missing([]PowerTier{TierStandard, TierElite})
	if len(missing) != 1 || missing[0] != TierElite {
		t.Errorf("Missing() = %v, want [elite]", missing)
	}
}

func TestParseModule(t *testing.T) {
	tests := []struct {
		in      string
		want    Module
		wantErr bool
	}{
		{in: "", want: ModuleNone},
		{in: "CODE_ASSIST_MODULE", want: ModuleCodeAssist},
		{in: "CODE_ASSIST", wantErr: true},
		{in: "code_assist_module", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseModule(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseModule(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseModule(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlan_Allows(t *testing.T) {
	p := Plan{ModuleAccess: []Module{ModuleCodeAssist}}
	if !p.Allows(ModuleCodeAssist) {
		t.Error("Allows(code assist) = false, want true")
	}
	if p.Allows(ModuleDataAnalysis) {
		t.Error("Allows(data analysis) = true, want false")
	}
}
