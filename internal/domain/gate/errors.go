package gate

import (
	"errors"
	"fmt"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
)

var (
	// ErrUserNotFound means the caller must re-authenticate
	ErrUserNotFound = errors.New("user not found")

	// ErrPersistence wraps a failed store write. The mutation was not
	// applied and the whole call may be retried.
	ErrPersistence = errors.New("usage state could not be persisted")

	ErrMessageLimit       = errors.New("monthly message limit reached")
	ErrTokenLimit         = errors.New("monthly token limit reached")
	ErrModuleUnauthorized = errors.New("module not included in plan")
)

// DenialError describes a quota or module denial with the counters seen at
// decision time
type DenialError struct {
	Outcome      Outcome
	PlanID       plan.ID
	Module       plan.Module
	MessagesUsed int64
	TokensUsed   int64
	MessageLimit int64
	TokenLimit   int64
}

func (e *DenialError) Error() string {
	switch e.Outcome {
	case DeniedMessageLimit:
		return fmt.Sprintf("%s: %d of %d messages used on %s", ErrMessageLimit, e.MessagesUsed, e.MessageLimit, e.PlanID)
	case DeniedTokenLimit:
		return fmt.Sprintf("%s: %d of %d tokens used on %s", ErrTokenLimit, e.TokensUsed, e.TokenLimit, e.PlanID)
	case DeniedModuleUnauthorized:
		return fmt.Sprintf("%s: %s is not available on %s", ErrModuleUnauthorized, e.Module, e.PlanID)
	}
	return string(e.Outcome)
}

// Unwrap lets callers match a denial with errors.Is
func (e *DenialError) Unwrap() error {
	switch e.Outcome {
	case DeniedMessageLimit:
		return ErrMessageLimit
	case DeniedTokenLimit:
		return ErrTokenLimit
	case DeniedModuleUnauthorized:
		return ErrModuleUnauthorized
	}
	return nil
}
