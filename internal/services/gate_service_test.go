package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
	"github.com/pratik-mahalle/tiergate/internal/domain/usage"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/clock"
	"github.com/pratik-mahalle/tiergate/internal/testutil"
)

var march10 = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

type gateFixture struct {
	svc   gate.Service
	store *testutil.MockUserStore
	clock *clock.Fake
}

func newGateFixture(t *testing.T, now time.Time) *gateFixture {
	t.Helper()
	catalog, tiers := testutil.Catalog(t)
	store := testutil.NewMockUserStore()
	clk := clock.NewFake(now)
	return &gateFixture{
		svc:   NewGateService(store, catalog, tiers, clk, nil, testutil.TestLogger()),
		store: store,
		clock: clk,
	}
}

// seed stores a user on planID with the given usage in the current period
func (f *gateFixture) seed(email string, planID plan.ID, messages, tokens int64) *user.Record {
	now := f.clock.Now()
	rec := testutil.NewUser(email, now)
	if planID != plan.FreeTier {
		_ = rec.Subscription.ChangePlan(planID, subscription.Monthly, now.AddDate(0, 0, -1), plan.FreeTier)
	}
	_ = rec.Usage.Record(messages, tokens)
	f.store.Seed(rec)
	return rec
}

func TestGateService_Evaluate(t *testing.T) {
	tests := []struct {
		name        string
		plan        plan.ID
		messages    int64
		tokens      int64
		module      plan.Module
		wantOutcome gate.Outcome
		wantErr     error
	}{
		{name: "free plan within limits", plan: plan.FreeTier, messages: 3, tokens: 100, wantOutcome: gate.Allowed},
		{name: "message limit reached", plan: plan.FreeTier, messages: 10, tokens: 100, wantOutcome: gate.DeniedMessageLimit, wantErr: gate.ErrMessageLimit},
		{name: "token limit reached", plan: plan.FreeTier, messages: 2, tokens: 5000, wantOutcome: gate.DeniedTokenLimit, wantErr: gate.ErrTokenLimit},
		{name: "both limits reached reports messages first", plan: plan.FreeTier, messages: 12, tokens: 9000, wantOutcome: gate.DeniedMessageLimit, wantErr: gate.ErrMessageLimit},
		{
			name: "module outside plan with quota left", plan: plan.SilverMonthly, messages: 1, tokens: 10,
			module: plan.ModuleDataAnalysis, wantOutcome: gate.DeniedModuleUnauthorized, wantErr: gate.ErrModuleUnauthorized,
		},
		{name: "module inside plan", plan: plan.SilverMonthly, module: plan.ModuleCodeAssist, wantOutcome: gate.Allowed},
		{
			name: "quota checked before module", plan: plan.FreeTier, messages: 10,
			module: plan.ModuleResearch, wantOutcome: gate.DeniedMessageLimit, wantErr: gate.ErrMessageLimit,
		},
		{name: "unlimited plan", plan: plan.PlatinumAnnual, messages: 1 << 30, tokens: 1 << 40, module: plan.ModuleResearch, wantOutcome: gate.Allowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateFixture(t, march10)
			rec := f.seed("user@example.com", tt.plan, tt.messages, tt.tokens)

			result, err := f.svc.Evaluate(context.Background(), rec.ID, tt.module)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if result.Outcome != tt.wantOutcome {
				t.Fatalf("Evaluate() outcome = %v, want %v", result.Outcome, tt.wantOutcome)
			}

			err = result.Err()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Result.Err() = %v, want nil", err)
				}
				if result.Model.ProviderModelID == "" {
					t.Error("allowed result has no model")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Result.Err() = %v, want %v", err, tt.wantErr)
			}
			var denial *gate.DenialError
			if !errors.As(err, &denial) || denial.PlanID != tt.plan {
				t.Errorf("Result.Err() = %#v, want DenialError on %v", err, tt.plan)
			}
			if result.Model.ProviderModelID != "" {
				t.Error("denied result carries a model")
			}
		})
	}
}

func TestGateService_EvaluateAllowedCarriesTier(t *testing.T) {
	f := newGateFixture(t, march10)
	rec := f.seed("gold@example.com", plan.GoldMonthly, 0, 0)

	result, err := f.svc.Evaluate(context.Background(), rec.ID, plan.ModuleDocumentQA)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Model.ProviderModelID != "gpt-4o" {
		t.Errorf("model = %v, want gpt-4o", result.Model.ProviderModelID)
	}
	if result.MaxResponseTokens != 2000 {
		t.Errorf("MaxResponseTokens = %d, want 2000", result.MaxResponseTokens)
	}
	if f.store.PutCalls != 0 {
		t.Errorf("PutCalls = %d, want no writes for a read-only evaluation", f.store.PutCalls)
	}
}

func TestGateService_ZeroLimitDenies(t *testing.T) {
	catalog, err := plan.NewCatalog(plan.FreeTier, plan.Plan{
		ID:                         plan.FreeTier,
		Label:                      "Locked",
		MonthlyMessageLimit:        0,
		MonthlyTokenLimit:          plan.Unlimited,
		TokensPerMessageLimit:      100,
		PowerTier:                  plan.TierStandard,
		MaxConcurrentConversations: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	_, tiers := testutil.Catalog(t)
	store := testutil.NewMockUserStore()
	svc := NewGateService(store, catalog, tiers, clock.NewFake(march10), nil, testutil.TestLogger())

	rec := testutil.NewUser("locked@example.com", march10)
	store.Seed(rec)

	result, err := svc.Evaluate(context.Background(), rec.ID, plan.ModuleNone)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Outcome != gate.DeniedMessageLimit {
		t.Errorf("outcome = %v, want %v", result.Outcome, gate.DeniedMessageLimit)
	}
}

func TestGateService_ConfigError(t *testing.T) {
	catalog, _ := testutil.Catalog(t)
	tiers, err := plan.NewTierMap(map[plan.PowerTier]plan.ModelConfig{
		plan.TierStandard: {ProviderModelID: "gpt-4o-mini", Temperature: 0.7},
	})
	if err != nil {
		t.Fatal(err)
	}
	store := testutil.NewMockUserStore()
	svc := NewGateService(store, catalog, tiers, clock.NewFake(march10), nil, testutil.TestLogger())

	rec := testutil.NewUser("elite@example.com", march10)
	_ = rec.Subscription.ChangePlan(plan.PlatinumAnnual, subscription.Annual, march10, plan.FreeTier)
	store.Seed(rec)

	result, err := svc.Evaluate(context.Background(), rec.ID, plan.ModuleNone)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Outcome != gate.ConfigError {
		t.Fatalf("outcome = %v, want %v", result.Outcome, gate.ConfigError)
	}
	if !errors.Is(result.Err(), plan.ErrConfiguration) {
		t.Errorf("Result.Err() = %v, want ErrConfiguration", result.Err())
	}
	if result.Outcome.IsDenial() {
		t.Error("config error reported as a user denial")
	}
}

func TestGateService_ExpiredPlanDowngrades(t *testing.T) {
	f := newGateFixture(t, march10)
	ctx := context.Background()

	rec := testutil.NewUser("lapsed@example.com", march10)
	_ = rec.Subscription.ChangePlan(plan.GoldMonthly, subscription.Monthly, march10.AddDate(0, 0, -31), plan.FreeTier)
	_ = rec.Usage.Record(12, 600)
	f.store.Seed(rec)

	result, err := f.svc.Evaluate(ctx, rec.ID, plan.ModuleNone)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.PlanID != plan.FreeTier || result.MessageLimit != 10 {
		t.Errorf("evaluated against %v limit %d, want base plan limits", result.PlanID, result.MessageLimit)
	}
	if result.Outcome != gate.DeniedMessageLimit {
		t.Errorf("outcome = %v, want %v", result.Outcome, gate.DeniedMessageLimit)
	}

	stored := f.store.Record(rec.ID)
	if stored.Subscription.PlanID != plan.FreeTier || stored.Subscription.ExpiresAt != nil {
		t.Errorf("stored subscription = %+v, want persisted downgrade", stored.Subscription)
	}
	if f.store.PutCalls != 1 {
		t.Errorf("PutCalls = %d, want 1", f.store.PutCalls)
	}

	f.clock.Advance(48 * time.Hour)
	summary, err := f.svc.PlanSummary(ctx, rec.ID)
	if err != nil {
		t.Fatalf("PlanSummary() error = %v", err)
	}
	if summary.PlanID != plan.FreeTier {
		t.Errorf("PlanSummary().PlanID = %v, want %v", summary.PlanID, plan.FreeTier)
	}
	if f.store.PutCalls != 1 {
		t.Errorf("PutCalls = %d after second read, want downgrade written once", f.store.PutCalls)
	}
}

func TestGateService_MonthRollover(t *testing.T) {
	f := newGateFixture(t, time.Date(2025, time.January, 31, 22, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec := f.seed("monthly@example.com", plan.FreeTier, 0, 0)

	if _, err := f.svc.Evaluate(ctx, rec.ID, plan.ModuleNone); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Settle(ctx, rec.ID, 5); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}

	f.clock.Set(time.Date(2025, time.February, 1, 8, 0, 0, 0, time.UTC))
	result, err := f.svc.Evaluate(ctx, rec.ID, plan.ModuleNone)
	if err != nil {
		t.Fatal(err)
	}
	if result.MessagesUsed != 0 || result.TokensUsed != 0 {
		t.Errorf("counters at decision = %d/%d, want zeroed by rollover", result.MessagesUsed, result.TokensUsed)
	}

	stored := f.store.Record(rec.ID)
	if got := stored.Usage.History["2025-01"]; got != (usage.Totals{Messages: 1, Tokens: 5}) {
		t.Errorf("History[2025-01] = %+v, want {1 5}", got)
	}
	if stored.Usage.CurrentPeriod != "2025-02" {
		t.Errorf("CurrentPeriod = %v, want 2025-02", stored.Usage.CurrentPeriod)
	}

	if err := f.svc.Settle(ctx, rec.ID, 7); err != nil {
		t.Fatal(err)
	}
	stored = f.store.Record(rec.ID)
	if stored.Usage.MessagesUsed != 1 || stored.Usage.TokensUsed != 7 {
		t.Errorf("February counters = %d/%d, want 1/7", stored.Usage.MessagesUsed, stored.Usage.TokensUsed)
	}
}

func TestGateService_UserNotFound(t *testing.T) {
	f := newGateFixture(t, march10)
	ctx := context.Background()

	if _, err := f.svc.Evaluate(ctx, "missing", plan.ModuleNone); !errors.Is(err, gate.ErrUserNotFound) {
		t.Errorf("Evaluate() error = %v, want ErrUserNotFound", err)
	}
	if err := f.svc.Settle(ctx, "missing", 1); !errors.Is(err, gate.ErrUserNotFound) {
		t.Errorf("Settle() error = %v, want ErrUserNotFound", err)
	}
	if _, err := f.svc.PlanSummary(ctx, "missing"); !errors.Is(err, gate.ErrUserNotFound) {
		t.Errorf("PlanSummary() error = %v, want ErrUserNotFound", err)
	}
}

func TestGateService_PersistenceFailure(t *testing.T) {
	f := newGateFixture(t, time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	rec := f.seed("flaky@example.com", plan.FreeTier, 2, 20)

	f.store.PutError = errors.New("disk full")

	if err := f.svc.Settle(ctx, rec.ID, 10); !errors.Is(err, gate.ErrPersistence) {
		t.Fatalf("Settle() error = %v, want ErrPersistence", err)
	}
	if stored := f.store.Record(rec.ID); stored.Usage.MessagesUsed != 2 || stored.Usage.TokensUsed != 20 {
		t.Errorf("stored usage = %+v after failed settle, want unchanged", stored.Usage)
	}

	f.clock.Set(time.Date(2025, time.February, 2, 0, 0, 0, 0, time.UTC))
	if _, err := f.svc.Evaluate(ctx, rec.ID, plan.ModuleNone); !errors.Is(err, gate.ErrPersistence) {
		t.Fatalf("Evaluate() error = %v, want ErrPersistence", err)
	}
	if stored := f.store.Record(rec.ID); stored.Usage.CurrentPeriod != "2025-01" {
		t.Errorf("CurrentPeriod = %v after failed rollover, want 2025-01", stored.Usage.CurrentPeriod)
	}

	// retrying once storage recovers applies the rollover
	f.store.PutError = nil
	result, err := f.svc.Evaluate(ctx, rec.ID, plan.ModuleNone)
	if err != nil {
		t.Fatalf("retry Evaluate() error = %v", err)
	}
	if result.Outcome != gate.Allowed || result.MessagesUsed != 0 {
		t.Errorf("retry result = %+v", result)
	}
}

func TestGateService_SettleRejectsNegative(t *testing.T) {
	f := newGateFixture(t, march10)
	rec := f.seed("neg@example.com", plan.FreeTier, 0, 0)

	if err := f.svc.Settle(context.Background(), rec.ID, -1); !errors.Is(err, usage.ErrNegativeUsage) {
		t.Errorf("Settle() error = %v, want ErrNegativeUsage", err)
	}
	if f.store.PutCalls != 0 {
		t.Errorf("PutCalls = %d, want 0", f.store.PutCalls)
	}
}

func TestGateService_QuotaNeverExceededThroughGate(t *testing.T) {
	f := newGateFixture(t, march10)
	ctx := context.Background()
	rec := f.seed("loop@example.com", plan.FreeTier, 0, 0)

	var last *gate.Result
	for i := 0; i < 15; i++ {
		result, err := f.svc.Evaluate(ctx, rec.ID, plan.ModuleNone)
		if err != nil {
			t.Fatal(err)
		}
		last = result
		if result.Outcome == gate.Allowed {
			if err := f.svc.Settle(ctx, rec.ID, 10); err != nil {
				t.Fatal(err)
			}
		}
	}

	stored := f.store.Record(rec.ID)
	if stored.Usage.MessagesUsed != 10 {
		t.Errorf("MessagesUsed = %d, want exactly the limit", stored.Usage.MessagesUsed)
	}
	if last.Outcome != gate.DeniedMessageLimit {
		t.Errorf("last outcome = %v, want %v", last.Outcome, gate.DeniedMessageLimit)
	}
}

func TestGateService_ConcurrentSettle(t *testing.T) {
	f := newGateFixture(t, march10)
	rec := f.seed("busy@example.com", plan.PlatinumAnnual, 0, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.svc.Settle(context.Background(), rec.ID, 2); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	stored := f.store.Record(rec.ID)
	if stored.Usage.MessagesUsed != 50 || stored.Usage.TokensUsed != 100 {
		t.Errorf("usage = %d/%d, want 50/100 with no lost updates", stored.Usage.MessagesUsed, stored.Usage.TokensUsed)
	}
}

func TestGateService_ChangePlan(t *testing.T) {
	tests := []struct {
		name        string
		from        plan.ID
		to          plan.ID
		duration    subscription.Duration
		wantExpires *time.Time
		wantErr     error
	}{
		{name: "upgrade to annual", from: plan.FreeTier, to: plan.GoldAnnual, duration: subscription.Annual, wantExpires: ptrTime(march10.AddDate(0, 0, 365))},
		{name: "switch to monthly", from: plan.GoldAnnual, to: plan.SilverMonthly, duration: subscription.Monthly, wantExpires: ptrTime(march10.AddDate(0, 0, 30))},
		{name: "downgrade to base", from: plan.GoldMonthly, to: plan.FreeTier},
		{name: "unknown plan", from: plan.FreeTier, to: "DIAMOND", duration: subscription.Monthly, wantErr: plan.ErrUnknownPlan},
		{name: "paid plan without duration", from: plan.FreeTier, to: plan.GoldMonthly, wantErr: subscription.ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateFixture(t, march10)
			rec := f.seed("mover@example.com", tt.from, 4, 400)

			summary, err := f.svc.ChangePlan(context.Background(), rec.ID, tt.to, tt.duration)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ChangePlan() error = %v, want %v", err, tt.wantErr)
				}
				if stored := f.store.Record(rec.ID); stored.Subscription.PlanID != tt.from || stored.Usage.MessagesUsed != 4 {
					t.Errorf("stored record changed after failed plan change: %+v", stored)
				}
				return
			}
			if err != nil {
				t.Fatalf("ChangePlan() error = %v", err)
			}

			if summary.PlanID != tt.to {
				t.Errorf("PlanID = %v, want %v", summary.PlanID, tt.to)
			}
			if summary.Used.Messages != 0 || summary.Used.Tokens != 0 {
				t.Errorf("Used = %+v, want zeroed", summary.Used)
			}

			stored := f.store.Record(rec.ID)
			if stored.Usage.MessagesUsed != 0 || stored.Usage.TokensUsed != 0 {
				t.Errorf("stored usage = %+v, want zeroed", stored.Usage)
			}
			if got := stored.Usage.History["2025-03"]; got.Messages != 4 {
				t.Errorf("History[2025-03] = %+v, want pre-change usage kept", got)
			}
			if tt.wantExpires == nil {
				if stored.Subscription.ExpiresAt != nil {
					t.Errorf("ExpiresAt = %v, want nil", stored.Subscription.ExpiresAt)
				}
				return
			}
			if stored.Subscription.ExpiresAt == nil || !stored.Subscription.ExpiresAt.Equal(*tt.wantExpires) {
				t.Errorf("ExpiresAt = %v, want %v", stored.Subscription.ExpiresAt, tt.wantExpires)
			}
		})
	}
}

func TestGateService_Renew(t *testing.T) {
	// seeded gold terms started March 9 and end April 8 at 09:00
	termEnd := march10.AddDate(0, 0, 29)

	tests := []struct {
		name         string
		renewAt      time.Time
		wantExpires  time.Time
		wantMessages int64
	}{
		{name: "early renewal keeps usage", renewAt: march10.AddDate(0, 0, 10), wantExpires: termEnd.AddDate(0, 0, 30), wantMessages: 4},
		{name: "late renewal skips the downgrade", renewAt: termEnd.Add(2 * time.Hour), wantExpires: termEnd.Add(2*time.Hour).AddDate(0, 0, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateFixture(t, march10)
			rec := f.seed("renewer@example.com", plan.GoldMonthly, 4, 400)
			f.clock.Set(tt.renewAt)

			summary, err := f.svc.Renew(context.Background(), rec.ID, plan.GoldMonthly, subscription.Monthly)
			if err != nil {
				t.Fatalf("Renew() error = %v", err)
			}
			if summary.PlanID != plan.GoldMonthly {
				t.Errorf("PlanID = %v, want %v", summary.PlanID, plan.GoldMonthly)
			}

			stored := f.store.Record(rec.ID)
			if stored.Subscription.ExpiresAt == nil || !stored.Subscription.ExpiresAt.Equal(tt.wantExpires) {
				t.Errorf("ExpiresAt = %v, want %v", stored.Subscription.ExpiresAt, tt.wantExpires)
			}
			if stored.Usage.MessagesUsed != tt.wantMessages {
				t.Errorf("MessagesUsed = %d, want %d", stored.Usage.MessagesUsed, tt.wantMessages)
			}
			if got := stored.Usage.History["2025-03"]; got.Messages != 4 {
				t.Errorf("History[2025-03] = %+v, want March usage kept", got)
			}
		})
	}
}

func TestGateService_RenewRejects(t *testing.T) {
	tests := []struct {
		name     string
		plan     plan.ID
		duration subscription.Duration
		putErr   error
		wantErr  error
	}{
		{name: "unknown plan", plan: "DIAMOND", duration: subscription.Monthly, wantErr: plan.ErrUnknownPlan},
		{name: "base plan", plan: plan.FreeTier, duration: subscription.Monthly, wantErr: subscription.ErrNoTerm},
		{name: "no duration", plan: plan.GoldMonthly, wantErr: subscription.ErrInvalidDuration},
		{name: "store write fails", plan: plan.GoldMonthly, duration: subscription.Monthly, putErr: errors.New("disk full"), wantErr: gate.ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGateFixture(t, march10)
			rec := f.seed("renewer@example.com", plan.GoldMonthly, 4, 400)
			before := f.store.Record(rec.ID).Subscription
			f.store.PutError = tt.putErr

			if _, err := f.svc.Renew(context.Background(), rec.ID, tt.plan, tt.duration); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Renew() error = %v, want %v", err, tt.wantErr)
			}
			if after := f.store.Record(rec.ID).Subscription; !after.ExpiresAt.Equal(*before.ExpiresAt) {
				t.Errorf("ExpiresAt moved to %v after a failed renewal", after.ExpiresAt)
			}
		})
	}
}

func TestGateService_PlanSummary(t *testing.T) {
	f := newGateFixture(t, march10)
	rec := f.seed("summary@example.com", plan.SilverMonthly, 100, 50000)

	summary, err := f.svc.PlanSummary(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("PlanSummary() error = %v", err)
	}
	if summary.PlanLabel != "Silver" {
		t.Errorf("PlanLabel = %q, want Silver", summary.PlanLabel)
	}
	if summary.Limits.Messages != 300 || summary.Remaining.Messages != 200 || summary.Remaining.Tokens != 150000 {
		t.Errorf("Limits = %+v Remaining = %+v", summary.Limits, summary.Remaining)
	}
	if summary.Period != "2025-03" || summary.ExpiresAt == nil {
		t.Errorf("Period = %v ExpiresAt = %v", summary.Period, summary.ExpiresAt)
	}
	if len(summary.ModuleAccess) != 1 || summary.ModuleAccess[0] != plan.ModuleCodeAssist {
		t.Errorf("ModuleAccess = %v", summary.ModuleAccess)
	}

	platinum := f.seed("vip@example.com", plan.PlatinumAnnual, 5, 5)
	summary, _ = f.svc.PlanSummary(context.Background(), platinum.ID)
	if summary.Remaining.Messages != usage.Unbounded || summary.Remaining.Tokens != usage.Unbounded {
		t.Errorf("unlimited Remaining = %+v, want unbounded", summary.Remaining)
	}
}

func TestGateService_Reconcile(t *testing.T) {
	f := newGateFixture(t, march10)
	ctx := context.Background()

	rec := testutil.NewUser("idle@example.com", march10)
	_ = rec.Subscription.ChangePlan(plan.SilverMonthly, subscription.Monthly, march10.AddDate(0, -2, 0), plan.FreeTier)
	f.store.Seed(rec)

	changed, err := f.svc.Reconcile(ctx, rec.ID)
	if err != nil || !changed {
		t.Fatalf("Reconcile() = %v, %v, want true", changed, err)
	}
	changed, err = f.svc.Reconcile(ctx, rec.ID)
	if err != nil || changed {
		t.Errorf("second Reconcile() = %v, %v, want false", changed, err)
	}
	if f.store.PutCalls != 1 {
		t.Errorf("PutCalls = %d, want 1", f.store.PutCalls)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
