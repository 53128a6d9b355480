// Package identity tracks per-wallet creator profiles: when the wallet first
// registered, how far through verification it has progressed, and (via the
// balance checker) how much token it holds. The spam guard reads all three.
package identity

import (
	"context"
	"errors"
	"time"
)

// Verification levels. Level 0 is an unverified wallet; each step up requires
// an additional proof (email, socials, KYC).
const (
	LevelNone     = 0
	LevelEmail    = 1
	LevelSocial   = 2
	LevelComplete = 3
)

// Errors
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already registered")
	ErrInvalidLevel    = errors.New("verification level must be between 0 and 3")
)

// Profile is the moderation-relevant identity of a wallet address.
type Profile struct {
	Address           string    `json:"address"`
	RegisteredAt      time.Time `json:"registeredAt"`
	VerificationLevel int       `json:"verificationLevel"`
}

// AccountAge returns how long the profile has existed as of now.
func (p *Profile) AccountAge(now time.Time) time.Duration {
	return now.Sub(p.RegisteredAt)
}

// Store persists profiles.
type Store interface {
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, address string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
}

// BalanceChecker reads a wallet's token balance as a decimal string.
type BalanceChecker interface {
	Balance(ctx context.Context, address string) (string, error)
}
