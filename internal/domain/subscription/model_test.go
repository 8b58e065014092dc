package subscription

import (
	"errors"
	"testing"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
)

var now = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func paid(id plan.ID, expires time.Time) State {
	started := expires.AddDate(0, 0, -30)
	return State{PlanID: id, StartedAt: &started, ExpiresAt: &expires}
}

func TestState_EffectivePlan(t *testing.T) {
	tests := []struct {
		name        string
		state       State
		want        plan.ID
		wantChanged bool
	}{
		{name: "base plan", state: NewState(plan.FreeTier), want: plan.FreeTier},
		{name: "active paid plan", state: paid(plan.GoldMonthly, now.Add(time.Hour)), want: plan.GoldMonthly},
		{name: "expires exactly now", state: paid(plan.GoldMonthly, now), want: plan.GoldMonthly},
		{name: "expired yesterday", state: paid(plan.GoldMonthly, now.AddDate(0, 0, -1)), want: plan.FreeTier, wantChanged: true},
		{name: "paid plan without expiry", state: State{PlanID: plan.PlatinumAnnual}, want: plan.PlatinumAnnual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.state
			got, changed := s.EffectivePlan(now, plan.FreeTier)
			if got != tt.want {
				t.Errorf("EffectivePlan() = %v, want %v", got, tt.want)
			}
			if changed != tt.wantChanged {
				t.Errorf("EffectivePlan() changed = %v, want %v", changed, tt.wantChanged)
			}
			if changed && (s.StartedAt != nil || s.ExpiresAt != nil) {
				t.Error("EffectivePlan() kept timestamps after downgrade")
			}
		})
	}
}

func TestState_DowngradeIsOneShot(t *testing.T) {
	s := paid(plan.SilverMonthly, now.AddDate(0, 0, -2))

	if _, changed := s.EffectivePlan(now, plan.FreeTier); !changed {
		t.Fatal("first EffectivePlan() did not downgrade")
	}
	got, changed := s.EffectivePlan(now.AddDate(0, 1, 0), plan.FreeTier)
	if got != plan.FreeTier {
		t.Errorf("second EffectivePlan() = %v, want base", got)
	}
	if changed {
		t.Error("second EffectivePlan() reported another change")
	}
}

func TestState_ChangePlan(t *testing.T) {
	tests := []struct {
		name        string
		next        plan.ID
		duration    Duration
		wantExpires *time.Time
		wantErr     error
	}{
		{name: "annual", next: plan.GoldAnnual, duration: Annual, wantExpires: ptr(now.AddDate(0, 0, 365))},
		{name: "monthly", next: plan.SilverMonthly, duration: Monthly, wantExpires: ptr(now.AddDate(0, 0, 30))},
		{name: "to base clears term", next: plan.FreeTier, duration: ""},
		{name: "paid without duration", next: plan.GoldMonthly, duration: "", wantErr: ErrInvalidDuration},
		{name: "paid with unknown duration", next: plan.GoldMonthly, duration: "weekly", wantErr: ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := paid(plan.SilverMonthly, now.AddDate(0, 0, 5))
			err := s.ChangePlan(tt.next, tt.duration, now, plan.FreeTier)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ChangePlan() error = %v, want %v", err, tt.wantErr)
				}
				if s.PlanID != plan.SilverMonthly {
					t.Errorf("PlanID = %v after failed change", s.PlanID)
				}
				return
			}
			if err != nil {
				t.Fatalf("ChangePlan() error = %v", err)
			}
			if s.PlanID != tt.next {
				t.Errorf("PlanID = %v, want %v", s.PlanID, tt.next)
			}
			if tt.wantExpires == nil {
				if s.ExpiresAt != nil || s.StartedAt != nil {
					t.Errorf("timestamps = %v/%v, want nil", s.StartedAt, s.ExpiresAt)
				}
				return
			}
			if s.ExpiresAt == nil || !s.ExpiresAt.Equal(*tt.wantExpires) {
				t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, tt.wantExpires)
			}
			if s.StartedAt == nil || !s.StartedAt.Equal(now) {
				t.Errorf("StartedAt = %v, want %v", s.StartedAt, now)
			}
		})
	}
}

func TestState_ChangePlanKeepsMillisecondPrecision(t *testing.T) {
	at := now.Add(1500*time.Millisecond + 42*time.Microsecond)
	s := NewState(plan.FreeTier)
	if err := s.ChangePlan(plan.GoldMonthly, Monthly, at, plan.FreeTier); err != nil {
		t.Fatal(err)
	}
	want := now.Add(1500 * time.Millisecond)
	if !s.StartedAt.Equal(want) || !s.ExpiresAt.Equal(want.AddDate(0, 0, 30)) {
		t.Errorf("term = %v..%v, want it to start at %v", s.StartedAt, s.ExpiresAt, want)
	}
}

func TestState_Renew(t *testing.T) {
	inTwoDays := now.AddDate(0, 0, 2)

	tests := []struct {
		name        string
		state       State
		renew       plan.ID
		duration    Duration
		wantStarted time.Time
		wantExpires time.Time
		wantErr     error
	}{
		{
			name:        "early renewal extends from expiry",
			state:       paid(plan.GoldMonthly, inTwoDays),
			renew:       plan.GoldMonthly,
			duration:    Monthly,
			wantStarted: inTwoDays.AddDate(0, 0, -30),
			wantExpires: inTwoDays.AddDate(0, 0, 30),
		},
		{
			name:        "annual renewal",
			state:       paid(plan.GoldAnnual, inTwoDays),
			renew:       plan.GoldAnnual,
			duration:    Annual,
			wantStarted: inTwoDays.AddDate(0, 0, -30),
			wantExpires: inTwoDays.AddDate(0, 0, 365),
		},
		{
			name:        "lapsed term restarts at now",
			state:       paid(plan.GoldMonthly, now.AddDate(0, 0, -1)),
			renew:       plan.GoldMonthly,
			duration:    Monthly,
			wantStarted: now,
			wantExpires: now.AddDate(0, 0, 30),
		},
		{
			name:        "already downgraded",
			state:       NewState(plan.FreeTier),
			renew:       plan.GoldMonthly,
			duration:    Monthly,
			wantStarted: now,
			wantExpires: now.AddDate(0, 0, 30),
		},
		{
			name:        "record moved to another plan",
			state:       paid(plan.SilverMonthly, inTwoDays),
			renew:       plan.GoldMonthly,
			duration:    Monthly,
			wantStarted: now,
			wantExpires: now.AddDate(0, 0, 30),
		},
		{name: "base plan", state: NewState(plan.FreeTier), renew: plan.FreeTier, duration: Monthly, wantErr: ErrNoTerm},
		{name: "unknown duration", state: paid(plan.GoldMonthly, inTwoDays), renew: plan.GoldMonthly, duration: "weekly", wantErr: ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.state.Clone()
			err := s.Renew(tt.renew, tt.duration, now, plan.FreeTier)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Renew() error = %v, want %v", err, tt.wantErr)
				}
				if s.PlanID != tt.state.PlanID {
					t.Errorf("PlanID = %v after failed renewal", s.PlanID)
				}
				return
			}
			if err != nil {
				t.Fatalf("Renew() error = %v", err)
			}
			if s.PlanID != tt.renew {
				t.Errorf("PlanID = %v, want %v", s.PlanID, tt.renew)
			}
			if s.StartedAt == nil || !s.StartedAt.Equal(tt.wantStarted) {
				t.Errorf("StartedAt = %v, want %v", s.StartedAt, tt.wantStarted)
			}
			if s.ExpiresAt == nil || !s.ExpiresAt.Equal(tt.wantExpires) {
				t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, tt.wantExpires)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	for in, want := range map[string]Duration{"monthly": Monthly, " Annual ": Annual} {
		got, err := ParseDuration(in)
		if err != nil || got != want {
			t.Errorf("ParseDuration(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDuration("quarterly"); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("ParseDuration(quarterly) error = %v", err)
	}
}

func TestState_Clone(t *testing.T) {
	s := paid(plan.GoldMonthly, now)
	c := s.Clone()
	*c.ExpiresAt = c.ExpiresAt.Add(time.Hour)
	if !s.ExpiresAt.Equal(now) {
		t.Error("Clone() shares ExpiresAt with the original")
	}
}

func ptr(t time.Time) *time.Time { return &t }
