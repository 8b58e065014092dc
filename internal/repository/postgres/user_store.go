package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
	"github.com/pratik-mahalle/tiergate/internal/domain/usage"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/errors"
	"github.com/pratik-mahalle/tiergate/internal/pkg/metrics"
)

// UserStore implements user.Store on a SQL database
type UserStore struct {
	db     *sql.DB
	driver string
}

// NewUserStore creates a new user store. driver selects the placeholder
// style and must match the driver db was opened with.
func NewUserStore(db *sql.DB, driver string) user.Store {
	return &UserStore{db: db, driver: driver}
}

const userColumns = `id, email, password_hash, role, plan_id, plan_started_at, plan_expires_at,
	messages_used, tokens_used, current_period, created_at, updated_at`

func (s *UserStore) q(query string) string {
	return Rebind(s.driver, query)
}

// Get retrieves a user by ID
func (s *UserStore) Get(ctx context.Context, id string) (*user.Record, error) {
	defer observe("get", time.Now())
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByEmail retrieves a user by email
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*user.Record, error) {
	defer observe("get_by_email", time.Now())
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", user.NormalizeEmail(email))
}

func (s *UserStore) getOne(ctx context.Context, query string, arg interface{}) (*user.Record, error) {
	rec, err := scanUser(s.db.QueryRowContext(ctx, s.q(query), arg))
	if err == sql.ErrNoRows {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}

	history, err := s.history(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Usage.History = history
	return rec, nil
}

// Create inserts a new user with its usage history
func (s *UserStore) Create(ctx context.Context, r *user.Record) error {
	defer observe("create", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, s.q(query), userArgs(r)...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", user.ErrAlreadyExists, r.Email)
		}
		return errors.DatabaseError("Failed to create user", err)
	}

	if err := s.writeHistory(ctx, tx, r); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit user", err)
	}
	return nil
}

// Put replaces the stored record in one transaction
func (s *UserStore) Put(ctx context.Context, r *user.Record) error {
	defer observe("put", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE users SET email = ?, password_hash = ?, role = ?, plan_id = ?,
			plan_started_at = ?, plan_expires_at = ?, messages_used = ?, tokens_used = ?,
			current_period = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, s.q(query),
		r.Email, r.PasswordHash, r.Role, string(r.Subscription.PlanID),
		millisOrNull(r.Subscription.StartedAt), millisOrNull(r.Subscription.ExpiresAt),
		r.Usage.MessagesUsed, r.Usage.TokensUsed, string(r.Usage.CurrentPeriod),
		r.UpdatedAt.Unix(), r.ID,
	)
	if err != nil {
		return errors.DatabaseError("Failed to update user", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM usage_history WHERE user_id = ?"), r.ID); err != nil {
		return errors.DatabaseError("Failed to clear usage history", err)
	}
	if err := s.writeHistory(ctx, tx, r); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit user", err)
	}
	return nil
}

// List returns all user IDs ordered by creation
func (s *UserStore) List(ctx context.Context) ([]string, error) {
	defer observe("list", time.Now())

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, errors.DatabaseError("Failed to list users", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.DatabaseError("Failed to scan user id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list users", err)
	}
	return ids, nil
}

// Ping checks the database connection
func (s *UserStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *UserStore) history(ctx context.Context, userID string) (map[usage.PeriodKey]usage.Totals, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT period, messages, tokens FROM usage_history WHERE user_id = ?"), userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to get usage history", err)
	}
	defer rows.Close()

	history := make(map[usage.PeriodKey]usage.Totals)
	for rows.Next() {
		var (
			period string
			totals usage.Totals
		)
		if err := rows.Scan(&period, &totals.Messages, &totals.Tokens); err != nil {
			return nil, errors.DatabaseError("Failed to scan usage history", err)
		}
		history[usage.PeriodKey(period)] = totals
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to get usage history", err)
	}
	return history, nil
}

func (s *UserStore) writeHistory(ctx context.Context, tx *sql.Tx, r *user.Record) error {
	if len(r.Usage.History) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		s.q("INSERT INTO usage_history (user_id, period, messages, tokens) VALUES (?, ?, ?, ?)"))
	if err != nil {
		return errors.DatabaseError("Failed to prepare usage history insert", err)
	}
	defer stmt.Close()

	for period, totals := range r.Usage.History {
		if _, err := stmt.ExecContext(ctx, r.ID, string(period), totals.Messages, totals.Tokens); err != nil {
			return errors.DatabaseError("Failed to write usage history", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*user.Record, error) {
	var (
		r                  user.Record
		planID, period     string
		started, expires   sql.NullInt64
		createdAt, updated int64
	)

	err := row.Scan(
		&r.ID, &r.Email, &r.PasswordHash, &r.Role, &planID, &started, &expires,
		&r.Usage.MessagesUsed, &r.Usage.TokensUsed, &period, &createdAt, &updated,
	)
	if err != nil {
		return nil, err
	}

	r.Subscription = subscription.State{
		PlanID:    plan.ID(planID),
		StartedAt: timeFromMillis(started),
		ExpiresAt: timeFromMillis(expires),
	}
	r.Usage.CurrentPeriod = usage.PeriodKey(period)
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	r.UpdatedAt = time.Unix(updated, 0).UTC()
	return &r, nil
}

func userArgs(r *user.Record) []interface{} {
	return []interface{}{
		r.ID, r.Email, r.PasswordHash, r.Role, string(r.Subscription.PlanID),
		millisOrNull(r.Subscription.StartedAt), millisOrNull(r.Subscription.ExpiresAt),
		r.Usage.MessagesUsed, r.Usage.TokensUsed, string(r.Usage.CurrentPeriod),
		r.CreatedAt.Unix(), r.UpdatedAt.Unix(),
	}
}

// Plan timestamps are stored as unix milliseconds, the precision
// subscription.State keeps
func millisOrNull(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timeFromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if stderrors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func observe(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, "users", time.Since(start))
}
