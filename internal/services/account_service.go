package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pratik-mahalle/tiergate/internal/auth"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/user"
	"github.com/pratik-mahalle/tiergate/internal/pkg/clock"
	"github.com/pratik-mahalle/tiergate/internal/pkg/keymutex"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
)

// AccountService implements user.Service
type AccountService struct {
	store   user.Store
	catalog *plan.Catalog
	clock   clock.Clock
	locks   *keymutex.KeyMutex
	logger  *logger.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	store user.Store,
	catalog *plan.Catalog,
	clk clock.Clock,
	locks *keymutex.KeyMutex,
	log *logger.Logger,
) user.Service {
	if clk == nil {
		clk = clock.System
	}
	if locks == nil {
		locks = keymutex.New()
	}
	return &AccountService{
		store:   store,
		catalog: catalog,
		clock:   clk,
		locks:   locks,
		logger:  log,
	}
}

// Register creates an account on the base plan
func (s *AccountService) Register(ctx context.Context, email, password string) (*user.Record, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	rec := user.New(email, hash, s.catalog.Base(), s.clock.Now())
	if err := s.store.Create(ctx, rec); err != nil {
		if !errors.Is(err, user.ErrAlreadyExists) {
			s.logger.ErrorWithErr(err, "Failed to create user")
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": rec.ID,
		"email":   rec.Email,
		"plan_id": rec.Subscription.PlanID,
	}).Info("User created")

	return rec, nil
}

// Authenticate checks email and password
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*user.Record, error) {
	rec, err := s.store.GetByEmail(ctx, user.NormalizeEmail(email))
	if errors.Is(err, user.ErrNotFound) {
		return nil, user.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(rec.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}
	return rec, nil
}

// Get retrieves an account by ID
func (s *AccountService) Get(ctx context.Context, id string) (*user.Record, error) {
	return s.store.Get(ctx, id)
}

// SetRole changes the role of an account
func (s *AccountService) SetRole(ctx context.Context, id, role string) error {
	if role != user.RoleUser && role != user.RoleAdmin {
		return fmt.Errorf("%w: %q", user.ErrInvalidRole, role)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.Role == role {
		return nil
	}

	rec.Role = role
	rec.UpdatedAt = s.clock.Now().UTC()
	if err := s.store.Put(ctx, rec); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update user role")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": id,
		"role":    role,
	}).Info("User role updated")

	return nil
}
