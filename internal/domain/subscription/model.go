package subscription

import (
	"fmt"
	"strings"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
)

// Duration is the billing cadence of a paid plan
type Duration string

// Durations
const (
	Monthly Duration = "monthly"
	Annual  Duration = "annual"
)

// ParseDuration accepts "monthly" or "annual", case-insensitively
func ParseDuration(s string) (Duration, error) {
	d := Duration(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Monthly, Annual:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDuration, s)
}

// Days returns the length of one term
func (d Duration) Days() (int, error) {
	switch d {
	case Monthly:
		return 30, nil
	case Annual:
		return 365, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, string(d))
}

// TermPrecision is the resolution term timestamps are kept at. Every store
// round-trips it exactly.
const TermPrecision = time.Millisecond

// State is a user's plan assignment. Timestamps are nil on the base plan.
type State struct {
	PlanID    plan.ID    `json:"plan_id"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NewState returns a state on the base plan
func NewState(base plan.ID) State {
	return State{PlanID: base}
}

// Expired reports whether the paid term ended before now
func (s *State) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// EffectivePlan returns the plan in force at now. An expired term moves the
// state to base and clears the timestamps; changed reports that the caller
// must persist the downgrade. Once downgraded, later calls are no-ops.
func (s *State) EffectivePlan(now time.Time, base plan.ID) (id plan.ID, changed bool) {
	if !s.Expired(now) {
		return s.PlanID, false
	}
	s.PlanID = base
	s.StartedAt = nil
	s.ExpiresAt = nil
	return base, true
}

// ChangePlan assigns next. Moving to base clears the term; any other plan
// starts a new term of d at now.
func (s *State) ChangePlan(next plan.ID, d Duration, now time.Time, base plan.ID) error {
	if next == base {
		s.PlanID = base
		s.StartedAt = nil
		s.ExpiresAt = nil
		return nil
	}

	days, err := d.Days()
	if err != nil {
		return err
	}
	started := now.UTC().Truncate(TermPrecision)
	expires := started.AddDate(0, 0, days)

	s.PlanID = next
	s.StartedAt = &started
	s.ExpiresAt = &expires
	return nil
}

// Renew extends a paid term of current by one period of d. The period runs
// from the later of the current expiry and now, so an early renewal keeps
// the days already paid for and a late one starts at now. A state on any other
// plan, such as one already downgraded by expiry, is moved back to current
// with a fresh term.
func (s *State) Renew(current plan.ID, d Duration, now time.Time, base plan.ID) error {
	if current == base {
		return fmt.Errorf("%w: %s", ErrNoTerm, current)
	}
	days, err := d.Days()
	if err != nil {
		return err
	}
	now = now.UTC().Truncate(TermPrecision)

	from := now
	if s.PlanID == current && s.StartedAt != nil && s.ExpiresAt != nil && !s.Expired(now) {
		from = *s.ExpiresAt
	} else {
		started := now
		s.StartedAt = &started
	}
	expires := from.AddDate(0, 0, days)

	s.PlanID = current
	s.ExpiresAt = &expires
	return nil
}

// Clone returns a copy that shares no pointers with s
func (s State) Clone() State {
	out := State{PlanID: s.PlanID}
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}
