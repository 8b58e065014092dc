package user

import "context"

// Store persists user records. Implementations return copies: mutating a
// returned record has no effect until Put succeeds.
type Store interface {
	// Get returns the record for id or ErrNotFound
	Get(ctx context.Context, id string) (*Record, error)

	// GetByEmail returns the record with the given email or ErrNotFound
	GetByEmail(ctx context.Context, email string) (*Record, error)

	// Create inserts a new record; ErrAlreadyExists if the email is taken
	Create(ctx context.Context, r *Record) error

	// Put replaces the stored record. It is durable on return.
	Put(ctx context.Context, r *Record) error

	// List returns every user id
	List(ctx context.Context) ([]string, error)

	// Ping checks the backing storage is reachable
	Ping(ctx context.Context) error
}
