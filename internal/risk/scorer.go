package risk

import (
	"context"
	"errors"
	"time"

	"github.com/wowzarush/backend/internal/campaign"
	"github.com/wowzarush/backend/internal/identity"
	"github.com/wowzarush/backend/internal/logging"
	"github.com/wowzarush/backend/internal/metrics"
)

// CampaignSource resolves campaign metadata.
type CampaignSource interface {
	Get(ctx context.Context, id string) (*campaign.Campaign, error)
}

// ProfileSource resolves creator profiles.
type ProfileSource interface {
	Get(ctx context.Context, address string) (*identity.Profile, error)
}

// ReportCounter counts a campaign's unresolved reports.
type ReportCounter interface {
	CountUnresolved(ctx context.Context, campaignID string) (int, error)
}

// Scorer computes risk scores on demand. It persists nothing itself; the
// only state it reads back is the admin flag override.
type Scorer struct {
	campaigns CampaignSource
	profiles  ProfileSource
	reports   ReportCounter
	flags     FlagStore

	now func() time.Time
}

// NewScorer creates a risk scorer.
func NewScorer(campaigns CampaignSource, profiles ProfileSource, reports ReportCounter, flags FlagStore) *Scorer {
	return &Scorer{
		campaigns: campaigns,
		profiles:  profiles,
		reports:   reports,
		flags:     flags,
		now:       time.Now,
	}
}

// Score evaluates every factor for the campaign and returns a fresh snapshot.
//
// The trigger label ends up in the recomputation metric: "request" for
// on-demand reads, "report" when a new report forced the refresh.
func (s *Scorer) Score(ctx context.Context, campaignID string) (*Score, error) {
	return s.score(ctx, campaignID, "request")
}

// Recompute is Score with a trigger label for event-driven refreshes.
func (s *Scorer) Recompute(ctx context.Context, campaignID, trigger string) (*Score, error) {
	return s.score(ctx, campaignID, trigger)
}

func (s *Scorer) score(ctx context.Context, campaignID, trigger string) (*Score, error) {
	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Get(ctx, c.CreatorAddress)
	if err != nil {
		return nil, err
	}

	unresolved, err := s.reports.CountUnresolved(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	milestones := make([]Milestone, len(c.Milestones))
	for i, m := range c.Milestones {
		milestones[i] = Milestone{Title: m.Title, Description: m.Description}
	}

	factors := EvaluateFactors(FactorInput{
		Goal:                     c.Goal,
		CreatedAt:                c.CreatedAt,
		Deadline:                 c.Deadline,
		Milestones:               milestones,
		CreatorRegisteredAt:      profile.RegisteredAt,
		CreatorVerificationLevel: profile.VerificationLevel,
		UnresolvedReports:        unresolved,
		Now:                      s.now(),
	})

	score := ComputeScore(factors)

	flaggedBy := FlaggedByNone
	if score > SystemFlagThreshold {
		flaggedBy = FlaggedBySystem
	}

	// An admin override wins until cleared.
	override, err := s.flags.Get(ctx, campaignID)
	if err != nil && !errors.Is(err, ErrOverrideNotFound) {
		return nil, err
	}
	if override != nil {
		flaggedBy = override.FlaggedBy
	}

	metrics.RiskRecomputationsTotal.WithLabelValues(trigger).Inc()
	logging.L(ctx).Debug("risk score computed",
		"campaign_id", campaignID,
		"score", score,
		"flagged_by", string(flaggedBy),
		"trigger", trigger,
	)

	return &Score{
		CampaignID:  campaignID,
		Score:       score,
		Level:       LevelFor(score),
		Factors:     factors,
		FlaggedBy:   flaggedBy,
		LastUpdated: s.now().UTC(),
	}, nil
}
