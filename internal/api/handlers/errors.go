package handlers

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/pratik-mahalle/tiergate/internal/billing"
	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
	"github.com/pratik-mahalle/tiergate/internal/domain/usage"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/errors"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/utils"
)

// denialDetails is attached to quota and module denials
type denialDetails struct {
	PlanID       plan.ID     `json:"plan_id"`
	Module       plan.Module `json:"module,omitempty"`
	MessagesUsed int64       `json:"messages_used"`
	TokensUsed   int64       `json:"tokens_used"`
	MessageLimit int64       `json:"message_limit"`
	TokenLimit   int64       `json:"token_limit"`
}

// toAppError maps a domain error onto the HTTP error envelope
func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var denial *gate.DenialError
	if stderrors.As(err, &denial) {
		details := denialDetails{
			PlanID:       denial.PlanID,
			Module:       denial.Module,
			MessagesUsed: denial.MessagesUsed,
			TokensUsed:   denial.TokensUsed,
			MessageLimit: denial.MessageLimit,
			TokenLimit:   denial.TokenLimit,
		}
		switch denial.Outcome {
		case gate.DeniedMessageLimit:
			return errors.MessageLimitReached("Monthly message limit reached. Upgrade your plan or wait for the next period.").WithDetails(details)
		case gate.DeniedTokenLimit:
			return errors.TokenLimitReached("Monthly token limit reached. Upgrade your plan or wait for the next period.").WithDetails(details)
		case gate.DeniedModuleUnauthorized:
			return errors.ModuleNotInPlan("This module is not included in your plan.").WithDetails(details)
		}
	}

	switch {
	case stderrors.Is(err, gate.ErrUserNotFound), stderrors.Is(err, user.ErrInvalidCredentials):
		return errors.Unauthorized("Invalid credentials or session")
	case stderrors.Is(err, plan.ErrConfiguration):
		return errors.ServiceMisconfigured(err)
	case stderrors.Is(err, gate.ErrPersistence):
		return errors.ServiceUnavailableErr("Usage could not be recorded, please retry", err)
	case stderrors.Is(err, chat.ErrProviderFailure):
		return errors.ProviderAPIError("AI provider", err)
	case stderrors.Is(err, plan.ErrUnknownPlan),
		stderrors.Is(err, plan.ErrUnknownModule),
		stderrors.Is(err, subscription.ErrInvalidDuration),
		stderrors.Is(err, usage.ErrNegativeUsage),
		stderrors.Is(err, chat.ErrEmptyConversation),
		stderrors.Is(err, chat.ErrInvalidRole),
		stderrors.Is(err, user.ErrInvalidRole),
		stderrors.Is(err, billing.ErrFreePlan):
		return errors.ValidationError(err.Error(), nil)
	case stderrors.Is(err, user.ErrNotFound):
		return errors.NotFound("User")
	case stderrors.Is(err, user.ErrAlreadyExists):
		return errors.Conflict("Email already registered")
	case stderrors.Is(err, billing.ErrDisabled):
		return errors.ServiceUnavailable("Billing is not configured")
	case stderrors.Is(err, billing.ErrInvalidSignature), stderrors.Is(err, billing.ErrMissingMetadata):
		return errors.BadRequest(err.Error())
	case stderrors.Is(err, context.Canceled):
		return errors.Cancelled(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.ServiceUnavailableErr("Request timed out", err)
	}
	return errors.Internal("Internal server error", err)
}

// writeServiceError writes err and logs server-side failures
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	appErr := toAppError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithFields(map[string]interface{}{
			"code":   appErr.Code,
			"status": appErr.StatusCode,
		}).ErrorWithErr(err, "Request failed")
	}
	utils.WriteError(w, appErr)
}
