package gate

import (
	"context"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
)

// Service decides whether a user may send a message and meters what was
// consumed. Every method serializes load, mutate and persist per user.
type Service interface {
	// Evaluate runs the expiry, rollover, limit, module and tier checks in
	// that order. Denials and configuration defects are reported through
	// Result; the error is only set for ErrUserNotFound and ErrPersistence.
	Evaluate(ctx context.Context, userID string, module plan.Module) (*Result, error)

	// Settle records one message and tokensConsumed. Call it exactly once
	// per successful generation.
	Settle(ctx context.Context, userID string, tokensConsumed int64) error

	// PlanSummary returns the display view of the user's plan and usage
	PlanSummary(ctx context.Context, userID string) (*PlanSummary, error)

	// ChangePlan assigns a catalog plan and resets the usage counters
	ChangePlan(ctx context.Context, userID string, planID plan.ID, d subscription.Duration) (*PlanSummary, error)

	// Renew extends the paid term of planID by d. Usage counters are left
	// to the monthly rollover.
	Renew(ctx context.Context, userID string, planID plan.ID, d subscription.Duration) (*PlanSummary, error)

	// Reconcile applies expiry and rollover without evaluating a request.
	// It reports whether the record changed.
	Reconcile(ctx context.Context, userID string) (bool, error)

	// Plans lists the catalog
	Plans() []plan.Plan
}
