package user

import "context"

// Service manages accounts
type Service interface {
	// Register creates an account on the base plan
	Register(ctx context.Context, email, password string) (*Record, error)

	// Authenticate checks credentials and returns the account
	Authenticate(ctx context.Context, email, password string) (*Record, error)

	// Get returns the account for id
	Get(ctx context.Context, id string) (*Record, error)

	// SetRole grants or revokes admin rights
	SetRole(ctx context.Context, id, role string) error
}
