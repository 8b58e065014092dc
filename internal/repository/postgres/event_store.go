package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pratik-mahalle/tiergate/internal/pkg/errors"
	"github.com/pratik-mahalle/tiergate/internal/pkg/metrics"
)

// EventStore records processed Stripe webhook events in stripe_events
type EventStore struct {
	db     *sql.DB
	driver string
}

// NewEventStore creates a new event store
func NewEventStore(db *sql.DB, driver string) *EventStore {
	return &EventStore{db: db, driver: driver}
}

// Claim inserts id and reports whether this call created the row
func (s *EventStore) Claim(ctx context.Context, id, eventType string) (bool, error) {
	defer observeEvents("claim", time.Now())

	query := "INSERT INTO stripe_events (id, type, received_at) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING"
	if s.driver == DriverMySQL {
		query = "INSERT IGNORE INTO stripe_events (id, type, received_at) VALUES (?, ?, ?)"
	}
	result, err := s.db.ExecContext(ctx, Rebind(s.driver, query), id, eventType, time.Now().Unix())
	if err != nil {
		return false, errors.DatabaseError("Failed to claim webhook event", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("Failed to claim webhook event", err)
	}
	return n == 1, nil
}

// Release forgets a claim so the next delivery of id is processed again
func (s *EventStore) Release(ctx context.Context, id string) error {
	defer observeEvents("release", time.Now())

	if _, err := s.db.ExecContext(ctx, Rebind(s.driver, "DELETE FROM stripe_events WHERE id = ?"), id); err != nil {
		return errors.DatabaseError("Failed to release webhook event", err)
	}
	return nil
}

func observeEvents(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, "stripe_events", time.Since(start))
}
