package ui

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/pratik-mahalle/tiergate/internal/domain/chat"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
	"github.com/pratik-mahalle/tiergate/internal/domain/usage"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
)

var errPlanSwitchDisabled = errors.New("plan switching is disabled")

// describe turns a service error into a banner for the user. Internal
// details stay in the logs.
func describe(err error) string {
	var denial *gate.DenialError
	switch {
	case errors.As(err, &denial):
		switch denial.Outcome {
		case gate.DeniedMessageLimit:
			return fmt.Sprintf("You have used all %d messages included in your plan this month. Upgrade to keep chatting.", denial.MessageLimit)
		case gate.DeniedTokenLimit:
			return fmt.Sprintf("You have used all %d tokens included in your plan this month. Upgrade to keep chatting.", denial.TokenLimit)
		default:
			return fmt.Sprintf("%s is not included in your plan.", moduleLabel(denial.Module))
		}
	case errors.Is(err, user.ErrInvalidCredentials):
		return "Incorrect email or password."
	case errors.Is(err, user.ErrAlreadyExists):
		return "An account with that email already exists."
	case errors.Is(err, chat.ErrEmptyConversation):
		return "Type a message first."
	case errors.Is(err, chat.ErrInvalidRole):
		return "That message cannot be sent."
	case errors.Is(err, plan.ErrUnknownModule), errors.Is(err, plan.ErrUnknownPlan), errors.Is(err, subscription.ErrInvalidDuration):
		return "That option is not available."
	case errors.Is(err, errPlanSwitchDisabled):
		return "Plan changes are disabled on this server."
	case errors.Is(err, plan.ErrConfiguration):
		return "This plan is misconfigured. Please contact support."
	case errors.Is(err, chat.ErrProviderFailure):
		return "The assistant is unavailable right now. You were not charged for this message."
	case errors.Is(err, gate.ErrPersistence):
		return "Your usage could not be saved. Please try again."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was cancelled."
	}
	return "Something went wrong. Please try again."
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, gate.ErrMessageLimit), errors.Is(err, gate.ErrTokenLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, gate.ErrModuleUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, gate.ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, plan.ErrUnknownModule), errors.Is(err, plan.ErrUnknownPlan), errors.Is(err, subscription.ErrInvalidDuration),
		errors.Is(err, chat.ErrInvalidRole), errors.Is(err, chat.ErrEmptyConversation):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrProviderFailure):
		return http.StatusBadGateway
	case errors.Is(err, gate.ErrPersistence):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func moduleLabel(m plan.Module) string {
	if m == plan.ModuleNone {
		return "General chat"
	}
	words := strings.Split(strings.TrimSuffix(string(m), "_MODULE"), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

var templateFuncs = template.FuncMap{
	"module": moduleLabel,
	"limit": func(n int64) string {
		if n == usage.Unbounded {
			return "Unlimited"
		}
		return fmt.Sprintf("%d", n)
	},
	"percent": func(used, limit int64) int64 {
		if limit <= 0 {
			return 0
		}
		if used >= limit {
			return 100
		}
		return used * 100 / limit
	},
	"dollars": func(cents int64) string {
		return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
	},
}
