package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
	"github.com/pratik-mahalle/tiergate/internal/domain/usage"
)

// Record is everything persisted for one user
type Record struct {
	ID           string             `json:"id"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"password_hash,omitempty"`
	Role         string             `json:"role"`
	Subscription subscription.State `json:"subscription"`
	Usage        usage.Ledger       `json:"usage"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// New returns a record on the base plan with an empty ledger for now's period
func New(email, passwordHash string, base plan.ID, now time.Time) *Record {
	now = now.UTC()
	return &Record{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         RoleUser,
		Subscription: subscription.NewState(base),
		Usage:        usage.NewLedger(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail lowercases and trims an address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdmin reports whether the user may change other users' plans
func (r *Record) IsAdmin() bool {
	return r.Role == RoleAdmin
}

// Clone returns a deep copy so callers can mutate without touching stored state
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Subscription = r.Subscription.Clone()
	out.Usage = r.Usage.Clone()
	return &out
}
