package usage

import (
	"fmt"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
)

// Unbounded is returned by the Remaining accessors for unlimited plans
const Unbounded int64 = -1

const periodLayout = "2006-01"

// PeriodKey identifies a calendar-month usage window as YYYY-MM
type PeriodKey string

// PeriodOf returns the period containing t, computed in UTC
func PeriodOf(t time.Time) PeriodKey {
	return PeriodKey(t.UTC().Format(periodLayout))
}

// Start returns the first instant of the period in UTC
func (k PeriodKey) Start() (time.Time, error) {
	t, err := time.Parse(periodLayout, string(k))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(k))
	}
	return t, nil
}

// Totals is the consumption recorded for one period
type Totals struct {
	Messages int64 `json:"messages"`
	Tokens   int64 `json:"tokens"`
}

// Ledger holds one user's usage counters. It is a plain value owned by the
// user record; callers serialize access per user.
type Ledger struct {
	MessagesUsed  int64                `json:"messages_used_this_period"`
	TokensUsed    int64                `json:"tokens_used_this_period"`
	CurrentPeriod PeriodKey            `json:"current_period_key"`
	History       map[PeriodKey]Totals `json:"history_by_period,omitempty"`
}

// NewLedger returns an empty ledger opened on the period of now
func NewLedger(now time.Time) Ledger {
	return Ledger{
		CurrentPeriod: PeriodOf(now),
		History:       make(map[PeriodKey]Totals),
	}
}

// RolloverIfNeeded moves the ledger into the period of now. The counters of
// the closing period are kept in History and the current counters are
// zeroed. It returns true when the ledger changed. Calls within the same
// period, or with a now earlier than the current period, are no-ops.
func (l *Ledger) RolloverIfNeeded(now time.Time) bool {
	next := PeriodOf(now)
	if l.CurrentPeriod == "" {
		l.CurrentPeriod = next
		return true
	}
	if next <= l.CurrentPeriod {
		return false
	}

	if l.History == nil {
		l.History = make(map[PeriodKey]Totals)
	}
	if _, ok := l.History[l.CurrentPeriod]; !ok && (l.MessagesUsed > 0 || l.TokensUsed > 0) {
		l.History[l.CurrentPeriod] = Totals{Messages: l.MessagesUsed, Tokens: l.TokensUsed}
	}

	l.MessagesUsed = 0
	l.TokensUsed = 0
	l.CurrentPeriod = next
	return true
}

// RemainingMessages returns the messages left under p, or Unbounded
func (l *Ledger) RemainingMessages(p plan.Plan) int64 {
	return remaining(p.MonthlyMessageLimit, l.MessagesUsed)
}

// RemainingTokens returns the tokens left under p, or Unbounded
func (l *Ledger) RemainingTokens(p plan.Plan) int64 {
	return remaining(p.MonthlyTokenLimit, l.TokensUsed)
}

func remaining(limit, used int64) int64 {
	if limit == plan.Unlimited {
		return Unbounded
	}
	if left := limit - used; left > 0 {
		return left
	}
	return 0
}

// MessageLimitReached reports whether no message quota remains under p
func (l *Ledger) MessageLimitReached(p plan.Plan) bool {
	return p.MonthlyMessageLimit != plan.Unlimited && l.MessagesUsed >= p.MonthlyMessageLimit
}

// TokenLimitReached reports whether no token quota remains under p
func (l *Ledger) TokenLimitReached(p plan.Plan) bool {
	return p.MonthlyTokenLimit != plan.Unlimited && l.TokensUsed >= p.MonthlyTokenLimit
}

// Record adds consumption to the current period. Counters never decrease.
func (l *Ledger) Record(messages, tokens int64) error {
	if messages < 0 || tokens < 0 {
		return fmt.Errorf("%w: messages=%d tokens=%d", ErrNegativeUsage, messages, tokens)
	}
	if l.History == nil {
		l.History = make(map[PeriodKey]Totals)
	}

	l.MessagesUsed += messages
	l.TokensUsed += tokens

	entry := l.History[l.CurrentPeriod]
	entry.Messages += messages
	entry.Tokens += tokens
	l.History[l.CurrentPeriod] = entry
	return nil
}

// Reset zeroes the counters and opens the period of now. History is kept so
// the month's totals still include usage from before the reset.
func (l *Ledger) Reset(now time.Time) {
	if l.History == nil {
		l.History = make(map[PeriodKey]Totals)
	}
	l.MessagesUsed = 0
	l.TokensUsed = 0
	l.CurrentPeriod = PeriodOf(now)
}

// Clone returns a deep copy of the ledger
func (l Ledger) Clone() Ledger {
	out := l
	if l.History != nil {
		out.History = make(map[PeriodKey]Totals, len(l.History))
		for k, v := range l.History {
			out.History[k] = v
		}
	}
	return out
}
