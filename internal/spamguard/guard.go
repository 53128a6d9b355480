package spamguard

import (
	"context"
	"sync"
	"time"

	"github.com/wowzarush/backend/internal/identity"
	"github.com/wowzarush/backend/internal/logging"
	"github.com/wowzarush/backend/internal/metrics"
)

// ProfileSource resolves actor profiles.
type ProfileSource interface {
	Get(ctx context.Context, address string) (*identity.Profile, error)
}

// Guard decides whether a wallet may perform a gated action.
type Guard struct {
	rulesMu sync.RWMutex
	rules   Rules

	profiles ProfileSource
	balances identity.BalanceChecker
	windows  *activityWindows

	now func() time.Time // injectable clock for tests
}

// NewGuard creates a guard with the given startup rules. Rules always start
// from a known configuration; runtime changes go through UpdateRules.
func NewGuard(rules Rules, profiles ProfileSource, balances identity.BalanceChecker) (*Guard, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Guard{
		rules:    rules,
		profiles: profiles,
		balances: balances,
		windows:  newActivityWindows(),
		now:      time.Now,
	}, nil
}

// Rules returns a copy of the current rules.
func (g *Guard) Rules() Rules {
	g.rulesMu.RLock()
	defer g.rulesMu.RUnlock()
	return g.rules
}

// UpdateRules merges a partial update into the current rules. The merged
// result is validated before it replaces the active configuration.
func (g *Guard) UpdateRules(patch RulesPatch) (Rules, error) {
	g.rulesMu.Lock()
	defer g.rulesMu.Unlock()

	merged := patch.apply(g.rules)
	if err := merged.Validate(); err != nil {
		return Rules{}, err
	}
	g.rules = merged
	return merged, nil
}

// CanPerformAction reports whether the actor may perform the action now.
// Callers get only the boolean; use Explain for the failing check.
func (g *Guard) CanPerformAction(ctx context.Context, actorAddress string, action Action) (bool, error) {
	allowed, _, err := g.Explain(ctx, actorAddress, action)
	return allowed, err
}

// Explain runs the guard checks in order and returns the first failing check.
// The denial code is for logging and admin surfaces only.
func (g *Guard) Explain(ctx context.Context, actorAddress string, action Action) (bool, Check, error) {
	if !action.Valid() {
		return false, CheckNone, ErrUnknownAction
	}

	rules := g.Rules()
	now := g.now()

	profile, err := g.profiles.Get(ctx, actorAddress)
	if err != nil {
		return false, CheckNone, err
	}

	// 1. Account age
	minAge := time.Duration(rules.MinimumAccountAgeDays) * 24 * time.Hour
	if profile.AccountAge(now) < minAge {
		g.deny(ctx, actorAddress, action, CheckAccountAge)
		return false, CheckAccountAge, nil
	}

	// 2. Verification level
	if profile.VerificationLevel < rules.MinimumVerificationLevel {
		g.deny(ctx, actorAddress, action, CheckVerification)
		return false, CheckVerification, nil
	}

	// 3. Wallet balance
	minBalance, err := parseAmount(rules.MinimumWalletBalance)
	if err != nil {
		return false, CheckNone, err
	}
	if minBalance.Sign() > 0 {
		balanceStr, err := g.balances.Balance(ctx, actorAddress)
		if err != nil {
			return false, CheckNone, err
		}
		balance, err := parseAmount(balanceStr)
		if err != nil {
			return false, CheckNone, err
		}
		if balance.Cmp(minBalance) < 0 {
			g.deny(ctx, actorAddress, action, CheckBalance)
			return false, CheckBalance, nil
		}
	}

	// 4. Rolling-window rate limit
	duration, limit, err := rules.limitFor(action)
	if err != nil {
		return false, CheckNone, err
	}
	if g.windows.countSince(actorAddress, action, now, duration) >= limit {
		g.deny(ctx, actorAddress, action, CheckRate)
		return false, CheckRate, nil
	}

	return true, CheckNone, nil
}

// RecordAction appends the action to the actor's rolling window. Call only
// after the action actually happened (e.g. the report was persisted).
func (g *Guard) RecordAction(actorAddress string, action Action) {
	g.windows.record(actorAddress, action, g.now())
}

func (g *Guard) deny(ctx context.Context, actor string, action Action, check Check) {
	metrics.SpamDenialsTotal.WithLabelValues(string(check)).Inc()
	logging.L(ctx).Info("spam guard denial",
		"actor", actor,
		"action", string(action),
		"check", string(check),
	)
}
