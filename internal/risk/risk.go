// Package risk computes campaign risk scores for the moderation pipeline.
//
// Every campaign is evaluated against a fixed set of boolean factors spanning
// content (goal plausibility, milestone specificity), community signal
// (unresolved report volume), and creator identity (account age, verification).
// The score is the percentage of factors that fired, bucketed into four levels.
// Scores above the system-flag threshold mark the campaign as flagged unless
// an admin override says otherwise.
package risk

import (
	"context"
	"errors"
	"time"
)

// Level is the discrete risk bucket for a score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Level thresholds (inclusive upper bounds).
const (
	lowMax    = 25
	mediumMax = 50
	highMax   = 75
)

// SystemFlagThreshold is the score above which a campaign is auto-flagged.
const SystemFlagThreshold = 50

// FlaggedBy identifies who flagged a campaign.
type FlaggedBy string

const (
	FlaggedByNone   FlaggedBy = "none"
	FlaggedBySystem FlaggedBy = "system"
	FlaggedByUser   FlaggedBy = "user"
	FlaggedByAdmin  FlaggedBy = "admin"
)

// Errors
var (
	ErrOverrideNotFound = errors.New("flag override not found")
)

// Score is an immutable risk snapshot for a campaign. It is recomputed
// wholesale on demand and never partially updated.
type Score struct {
	CampaignID  string              `json:"campaignId"`
	Score       int                 `json:"score"` // 0-100
	Level       Level               `json:"level"`
	Factors     map[FactorName]bool `json:"factors"`
	FlaggedBy   FlaggedBy           `json:"flaggedBy"`
	LastUpdated time.Time           `json:"lastUpdated"`
}

// LevelFor buckets a 0-100 score into a risk level.
func LevelFor(score int) Level {
	switch {
	case score <= lowMax:
		return LevelLow
	case score <= mediumMax:
		return LevelMedium
	case score <= highMax:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// FlagOverride is an admin decision that supersedes the computed flag state.
// Absent override means the system decides.
type FlagOverride struct {
	CampaignID string    `json:"campaignId"`
	FlaggedBy  FlaggedBy `json:"flaggedBy"`
	Reason     string    `json:"reason"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FlagStore persists admin flag overrides.
type FlagStore interface {
	Set(ctx context.Context, override *FlagOverride) error
	Get(ctx context.Context, campaignID string) (*FlagOverride, error)
	Delete(ctx context.Context, campaignID string) error
}
