// Package spamguard gates create/comment/report actions behind per-wallet
// trust thresholds and rolling-window rate limits.
//
// Every gated action runs the same four checks in order: account age,
// verification level, wallet balance, then the action's rolling window.
// The first failing check denies the action. Public callers only learn
// that they were denied; the failing check is logged for admins.
package spamguard

import (
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Action is a gated platform action.
type Action string

const (
	ActionCreate  Action = "create"
	ActionComment Action = "comment"
	ActionReport  Action = "report"
)

// Valid reports whether the action is one the guard knows about.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionComment, ActionReport:
		return true
	}
	return false
}

// Check identifies which guard check denied an action. Internal only;
// never exposed to unauthenticated callers.
type Check string

const (
	CheckAccountAge   Check = "account_age"
	CheckVerification Check = "verification"
	CheckBalance      Check = "balance"
	CheckRate         Check = "rate"
	CheckNone         Check = ""
)

// Errors
var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidRules  = errors.New("invalid spam prevention rules")
)

// Rules is the process-wide spam prevention configuration.
type Rules struct {
	CampaignsPerDay          int    `json:"campaignsPerDay"`
	CommentsPerHour          int    `json:"commentsPerHour"`
	ReportsPerDay            int    `json:"reportsPerDay"`
	MinimumAccountAgeDays    int    `json:"minimumAccountAgeDays"`
	MinimumVerificationLevel int    `json:"minimumVerificationLevel"`
	MinimumWalletBalance     string `json:"minimumWalletBalance"` // decimal token amount
}

// DefaultRules returns the startup configuration.
func DefaultRules() Rules {
	return Rules{
		CampaignsPerDay:          3,
		CommentsPerHour:          20,
		ReportsPerDay:            10,
		MinimumAccountAgeDays:    2,
		MinimumVerificationLevel: 1,
		MinimumWalletBalance:     "0.01",
	}
}

// Validate checks rule bounds.
func (r Rules) Validate() error {
	if r.CampaignsPerDay < 0 || r.CommentsPerHour < 0 || r.ReportsPerDay < 0 {
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidRules)
	}
	if r.MinimumAccountAgeDays < 0 {
		return fmt.Errorf("%w: minimum account age must not be negative", ErrInvalidRules)
	}
	if r.MinimumVerificationLevel < 0 || r.MinimumVerificationLevel > 3 {
		return fmt.Errorf("%w: verification level must be between 0 and 3", ErrInvalidRules)
	}
	if _, err := parseAmount(r.MinimumWalletBalance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	return nil
}

// RulesPatch carries a partial rules update; nil fields are left unchanged.
type RulesPatch struct {
	CampaignsPerDay          *int    `json:"campaignsPerDay,omitempty"`
	CommentsPerHour          *int    `json:"commentsPerHour,omitempty"`
	ReportsPerDay            *int    `json:"reportsPerDay,omitempty"`
	MinimumAccountAgeDays    *int    `json:"minimumAccountAgeDays,omitempty"`
	MinimumVerificationLevel *int    `json:"minimumVerificationLevel,omitempty"`
	MinimumWalletBalance     *string `json:"minimumWalletBalance,omitempty"`
}

// apply merges the patch into a copy of r.
func (p RulesPatch) apply(r Rules) Rules {
	if p.CampaignsPerDay != nil {
		r.CampaignsPerDay = *p.CampaignsPerDay
	}
	if p.CommentsPerHour != nil {
		r.CommentsPerHour = *p.CommentsPerHour
	}
	if p.ReportsPerDay != nil {
		r.ReportsPerDay = *p.ReportsPerDay
	}
	if p.MinimumAccountAgeDays != nil {
		r.MinimumAccountAgeDays = *p.MinimumAccountAgeDays
	}
	if p.MinimumVerificationLevel != nil {
		r.MinimumVerificationLevel = *p.MinimumVerificationLevel
	}
	if p.MinimumWalletBalance != nil {
		r.MinimumWalletBalance = *p.MinimumWalletBalance
	}
	return r
}

// limitFor returns the window size and max count for an action under r.
func (r Rules) limitFor(action Action) (time.Duration, int, error) {
	switch action {
	case ActionCreate:
		return 24 * time.Hour, r.CampaignsPerDay, nil
	case ActionComment:
		return time.Hour, r.CommentsPerHour, nil
	case ActionReport:
		return 24 * time.Hour, r.ReportsPerDay, nil
	}
	return 0, 0, ErrUnknownAction
}

// parseAmount parses a non-negative decimal string into a rational.
func parseAmount(s string) (*big.Rat, error) {
	if s == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return r, nil
}
