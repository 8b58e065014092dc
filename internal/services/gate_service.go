package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
	"github.com/pratik-mahalle/tiergate/internal/domain/usage"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/clock"
	"github.com/pratik-mahalle/tiergate/internal/pkg/keymutex"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/metrics"
)

// GateService implements gate.Service
type GateService struct {
	store   user.Store
	catalog *plan.Catalog
	tiers   *plan.TierMap
	clock   clock.Clock
	locks   *keymutex.KeyMutex
	logger  *logger.Logger
}

// NewGateService creates a new gate service. Services that write user
// records must share locks.
func NewGateService(
	store user.Store,
	catalog *plan.Catalog,
	tiers *plan.TierMap,
	clk clock.Clock,
	locks *keymutex.KeyMutex,
	log *logger.Logger,
) gate.Service {
	if clk == nil {
		clk = clock.System
	}
	if locks == nil {
		locks = keymutex.New()
	}
	return &GateService{
		store:   store,
		catalog: catalog,
		tiers:   tiers,
		clock:   clk,
		locks:   locks,
		logger:  log,
	}
}

// transition records what a read-path refresh changed on a record
type transition struct {
	downgradedFrom plan.ID
	rolledFrom     usage.PeriodKey
	rolled         bool
}

func (t transition) changed() bool {
	return t.downgradedFrom != "" || t.rolled
}

// Evaluate decides whether userID may send one message
func (s *GateService) Evaluate(ctx context.Context, userID string, module plan.Module) (*gate.Result, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.clock.Now()
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.refresh(ctx, rec, now); err != nil {
		return nil, err
	}

	p := s.catalog.Lookup(rec.Subscription.PlanID)
	result := &gate.Result{
		UserID:       userID,
		PlanID:       p.ID,
		Module:       module,
		MessagesUsed: rec.Usage.MessagesUsed,
		TokensUsed:   rec.Usage.TokensUsed,
		MessageLimit: p.MonthlyMessageLimit,
		TokenLimit:   p.MonthlyTokenLimit,
	}

	switch {
	case rec.Usage.MessageLimitReached(p):
		result.Outcome = gate.DeniedMessageLimit
	case rec.Usage.TokenLimitReached(p):
		result.Outcome = gate.DeniedTokenLimit
	case module != plan.ModuleNone && !p.Allows(module):
		result.Outcome = gate.DeniedModuleUnauthorized
	}

	if result.Outcome == "" {
		model, err := s.tiers.Resolve(p.PowerTier)
		if err != nil {
			result.Outcome = gate.ConfigError
			result.Cause = err
		} else {
			result.Outcome = gate.Allowed
			result.Model = model
			result.MaxResponseTokens = p.TokensPerMessageLimit
		}
	}

	s.logDecision(result, p)
	metrics.RecordGateDecision(string(result.Outcome), string(p.ID))

	return result, nil
}

// Settle records one generated message against userID
func (s *GateService) Settle(ctx context.Context, userID string, tokensConsumed int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.clock.Now()
	rec, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	t := s.apply(rec, now)
	if err := rec.Usage.Record(1, tokensConsumed); err != nil {
		return err
	}

	if err := s.persist(ctx, rec, now); err != nil {
		return err
	}
	s.logTransition(rec, t)

	p := s.catalog.Lookup(rec.Subscription.PlanID)
	s.logger.Event("ledger.settled").WithFields(map[string]interface{}{
		"user_id":       userID,
		"plan_id":       p.ID,
		"period":        rec.Usage.CurrentPeriod,
		"tokens":        tokensConsumed,
		"messages_used": rec.Usage.MessagesUsed,
		"tokens_used":   rec.Usage.TokensUsed,
		"message_limit": p.MonthlyMessageLimit,
		"token_limit":   p.MonthlyTokenLimit,
	}).Info("Usage settled")
	metrics.RecordTokensSettled(string(p.ID), tokensConsumed)

	return nil
}

// PlanSummary returns the user's plan, limits and usage
func (s *GateService) PlanSummary(ctx context.Context, userID string) (*gate.PlanSummary, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.clock.Now()
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, rec, now); err != nil {
		return nil, err
	}

	return s.summarize(rec), nil
}

// ChangePlan moves userID to planID and starts a fresh billing period
func (s *GateService) ChangePlan(ctx context.Context, userID string, planID plan.ID, d subscription.Duration) (*gate.PlanSummary, error) {
	if !s.catalog.Known(planID) {
		return nil, fmt.Errorf("%w: %s", plan.ErrUnknownPlan, planID)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.clock.Now()
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	t := s.apply(rec, now)
	previous := rec.Subscription.PlanID
	if err := rec.Subscription.ChangePlan(planID, d, now, s.catalog.Base()); err != nil {
		return nil, err
	}
	rec.Usage.Reset(now)

	if err := s.persist(ctx, rec, now); err != nil {
		return nil, err
	}
	s.logTransition(rec, t)

	s.logger.Event("subscription.changed").WithFields(map[string]interface{}{
		"user_id":    userID,
		"plan_id":    planID,
		"from_plan":  previous,
		"duration":   d,
		"expires_at": rec.Subscription.ExpiresAt,
	}).Info("Subscription plan changed")
	metrics.RecordPlanChange(string(planID))

	return s.summarize(rec), nil
}

// Renew extends userID's term on planID. The renewal is applied before the
// expiry check so a renewal that lands just after the old term ended does not
// pass through a downgrade.
func (s *GateService) Renew(ctx context.Context, userID string, planID plan.ID, d subscription.Duration) (*gate.PlanSummary, error) {
	if !s.catalog.Known(planID) {
		return nil, fmt.Errorf("%w: %s", plan.ErrUnknownPlan, planID)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.clock.Now()
	rec, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	previous := rec.Subscription.Clone()
	if err := rec.Subscription.Renew(planID, d, now, s.catalog.Base()); err != nil {
		return nil, err
	}
	t := s.apply(rec, now)

	if err := s.persist(ctx, rec, now); err != nil {
		return nil, err
	}
	s.logTransition(rec, t)

	s.logger.Event("subscription.renewed").WithFields(map[string]interface{}{
		"user_id":       userID,
		"plan_id":       planID,
		"from_plan":     previous.PlanID,
		"duration":      d,
		"expired_at":    previous.ExpiresAt,
		"expires_at":    rec.Subscription.ExpiresAt,
		"messages_used": rec.Usage.MessagesUsed,
		"tokens_used":   rec.Usage.TokensUsed,
	}).Info("Subscription renewed")
	metrics.RecordRenewal(string(planID))

	return s.summarize(rec), nil
}

// Reconcile applies expiry and rollover for userID
func (s *GateService) Reconcile(ctx context.Context, userID string) (bool, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.clock.Now()
	rec, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}

	t := s.apply(rec, now)
	if !t.changed() {
		return false, nil
	}
	if err := s.persist(ctx, rec, now); err != nil {
		return false, err
	}
	s.logTransition(rec, t)
	return true, nil
}

// Plans lists the catalog in display order
func (s *GateService) Plans() []plan.Plan {
	return s.catalog.List()
}

func (s *GateService) load(ctx context.Context, userID string) (*user.Record, error) {
	rec, err := s.store.Get(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", gate.ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gate.ErrPersistence, err)
	}
	return rec, nil
}

// apply runs the expiry check before the rollover. Neither is durable until
// the record is persisted.
func (s *GateService) apply(rec *user.Record, now time.Time) transition {
	var t transition

	previous := rec.Subscription.PlanID
	if _, downgraded := rec.Subscription.EffectivePlan(now, s.catalog.Base()); downgraded {
		t.downgradedFrom = previous
	}

	t.rolledFrom = rec.Usage.CurrentPeriod
	t.rolled = rec.Usage.RolloverIfNeeded(now)

	return t
}

// refresh applies expiry and rollover and persists them when they changed
// the record
func (s *GateService) refresh(ctx context.Context, rec *user.Record, now time.Time) error {
	t := s.apply(rec, now)
	if !t.changed() {
		return nil
	}
	if err := s.persist(ctx, rec, now); err != nil {
		return err
	}
	s.logTransition(rec, t)
	return nil
}

func (s *GateService) persist(ctx context.Context, rec *user.Record, now time.Time) error {
	rec.UpdatedAt = now.UTC()
	if err := s.store.Put(ctx, rec); err != nil {
		metrics.RecordPersistFailure()
		s.logger.WithFields(map[string]interface{}{
			"user_id": rec.ID,
			"plan_id": rec.Subscription.PlanID,
		}).ErrorWithErr(err, "Failed to persist user record")
		return fmt.Errorf("%w: %w", gate.ErrPersistence, err)
	}
	return nil
}

func (s *GateService) logTransition(rec *user.Record, t transition) {
	if t.downgradedFrom != "" {
		s.logger.Event("subscription.downgraded").WithFields(map[string]interface{}{
			"user_id":   rec.ID,
			"plan_id":   rec.Subscription.PlanID,
			"from_plan": t.downgradedFrom,
		}).Info("Expired plan downgraded to base plan")
		metrics.RecordDowngrade()
	}
	if t.rolled && t.rolledFrom != "" {
		closed := rec.Usage.History[t.rolledFrom]
		s.logger.Event("ledger.rollover").WithFields(map[string]interface{}{
			"user_id":         rec.ID,
			"plan_id":         rec.Subscription.PlanID,
			"from_period":     t.rolledFrom,
			"period":          rec.Usage.CurrentPeriod,
			"closed_messages": closed.Messages,
			"closed_tokens":   closed.Tokens,
		}).Info("Usage period rolled over")
		metrics.RecordRollover()
	}
}

func (s *GateService) logDecision(r *gate.Result, p plan.Plan) {
	log := s.logger.WithFields(map[string]interface{}{
		"user_id":       r.UserID,
		"plan_id":       r.PlanID,
		"outcome":       r.Outcome,
		"module":        r.Module,
		"messages_used": r.MessagesUsed,
		"tokens_used":   r.TokensUsed,
		"message_limit": r.MessageLimit,
		"token_limit":   r.TokenLimit,
	})

	switch {
	case r.Outcome == gate.Allowed:
		log.Event("gate.allowed").With("model", r.Model.ProviderModelID).Debug("Request allowed")
	case r.Outcome == gate.ConfigError:
		log.Event("gate.config_error").With("power_tier", p.PowerTier).ErrorWithErr(r.Cause, "No model configured for power tier")
	default:
		log.Event("gate.denied").Warn("Request denied")
	}
}

func (s *GateService) summarize(rec *user.Record) *gate.PlanSummary {
	p := s.catalog.Lookup(rec.Subscription.PlanID)
	sub := rec.Subscription.Clone()

	history := make(map[usage.PeriodKey]usage.Totals, len(rec.Usage.History))
	for k, v := range rec.Usage.History {
		history[k] = v
	}

	return &gate.PlanSummary{
		UserID:    rec.ID,
		PlanID:    p.ID,
		PlanLabel: p.Label,
		PowerTier: p.PowerTier,
		Period:    rec.Usage.CurrentPeriod,
		Limits: gate.Limits{
			Messages:          p.MonthlyMessageLimit,
			Tokens:            p.MonthlyTokenLimit,
			TokensPerMessage:  p.TokensPerMessageLimit,
			ConcurrentThreads: p.MaxConcurrentConversations,
		},
		Used: gate.Counters{
			Messages: rec.Usage.MessagesUsed,
			Tokens:   rec.Usage.TokensUsed,
		},
		Remaining: gate.Counters{
			Messages: rec.Usage.RemainingMessages(p),
			Tokens:   rec.Usage.RemainingTokens(p),
		},
		ModuleAccess:      append([]plan.Module(nil), p.ModuleAccess...),
		FileUploadEnabled: p.FileUploadEnabled,
		StartedAt:         sub.StartedAt,
		ExpiresAt:         sub.ExpiresAt,
		History:           history,
	}
}
