package identity

import (
	"context"
	"time"

	"github.com/wowzarush/backend/internal/logging"
)

// Service coordinates profile registration and lookups.
type Service struct {
	store    Store
	balances BalanceChecker
}

// NewService creates an identity service.
func NewService(store Store, balances BalanceChecker) *Service {
	return &Service{store: store, balances: balances}
}

// Register creates a profile for a new wallet at level 0.
// Registration time is recorded server-side; callers cannot backdate it.
func (s *Service) Register(ctx context.Context, address string) (*Profile, error) {
	p := &Profile{
		Address:           address,
		RegisteredAt:      time.Now().UTC(),
		VerificationLevel: LevelNone,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	logging.L(ctx).Info("profile registered", "address", address)
	return p, nil
}

// Get returns the profile for an address.
func (s *Service) Get(ctx context.Context, address string) (*Profile, error) {
	return s.store.Get(ctx, address)
}

// SetVerificationLevel updates a profile's verification level (admin only).
func (s *Service) SetVerificationLevel(ctx context.Context, address string, level int) (*Profile, error) {
	if level < LevelNone || level > LevelComplete {
		return nil, ErrInvalidLevel
	}

	p, err := s.store.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	p.VerificationLevel = level
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}

	logging.L(ctx).Info("verification level updated", "address", address, "level", level)
	return p, nil
}

// Balance returns the wallet's token balance as a decimal string.
func (s *Service) Balance(ctx context.Context, address string) (string, error) {
	return s.balances.Balance(ctx, address)
}
