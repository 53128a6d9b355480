package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/wowzarush/backend/internal/campaign"
	"github.com/wowzarush/backend/internal/logging"
	"github.com/wowzarush/backend/internal/metrics"
	"github.com/wowzarush/backend/internal/reports"
	"github.com/wowzarush/backend/internal/risk"
	"github.com/wowzarush/backend/internal/spamguard"
	"github.com/wowzarush/backend/internal/syncutil"
	"github.com/wowzarush/backend/internal/validation"
)

// Service is the moderation façade.
type Service struct {
	scorer    *risk.Scorer
	reports   *reports.Service
	campaigns *campaign.Service
	guard     *spamguard.Guard
	flags     risk.FlagStore
	emitter   Emitter

	// Per-campaign locks make report-write + recompute atomic from the
	// caller's point of view.
	locks syncutil.ContextShardedMutex
}

// NewService creates the moderation façade. emitter may be nil.
func NewService(scorer *risk.Scorer, reportSvc *reports.Service, campaignSvc *campaign.Service,
	guard *spamguard.Guard, flags risk.FlagStore, emitter Emitter) *Service {

	if emitter == nil {
		emitter = EmitterFunc(func(Event) {})
	}
	return &Service{
		scorer:    scorer,
		reports:   reportSvc,
		campaigns: campaignSvc,
		guard:     guard,
		flags:     flags,
		emitter:   emitter,
	}
}

func (s *Service) emit(eventType, campaignID string, payload any) {
	s.emitter.Emit(Event{
		Type:       eventType,
		CampaignID: campaignID,
		Payload:    payload,
		At:         time.Now().UTC(),
	})
}

// GetRiskScore computes a fresh risk snapshot for the campaign.
func (s *Service) GetRiskScore(ctx context.Context, campaignID string) (*risk.Score, error) {
	return s.scorer.Score(ctx, campaignID)
}

// SubmitReport records a report and refreshes the campaign's risk score.
// The two steps run under the campaign lock; the recompute is sequenced
// strictly after the durable report write.
func (s *Service) SubmitReport(ctx context.Context, req reports.SubmitRequest) (*reports.Report, *risk.Score, error) {
	unlock, err := s.locks.LockContext(ctx, req.CampaignID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	report, err := s.reports.Submit(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	score, err := s.scorer.Recompute(ctx, report.CampaignID, "report")
	if err != nil {
		// The report is durably written; surface the score failure but
		// keep the submission result.
		logging.L(ctx).Error("risk recompute after report failed",
			"campaign_id", report.CampaignID, "error", err)
		s.emit(EventReportSubmitted, report.CampaignID, report.Redact())
		return report, nil, nil
	}

	s.emit(EventReportSubmitted, report.CampaignID, report.Redact())
	s.emit(EventRiskUpdated, report.CampaignID, score)
	if score.FlaggedBy == risk.FlaggedBySystem {
		metrics.CampaignsFlaggedTotal.WithLabelValues("system").Inc()
		s.emit(EventCampaignFlagged, report.CampaignID, score)
	}
	return report, score, nil
}

// ResolveReport resolves a report and refreshes the campaign's risk score.
func (s *Service) ResolveReport(ctx context.Context, reportID, resolution string) (*reports.Report, error) {
	// Resolve through the store first to learn the campaign; the store
	// enforces the one-way transition regardless of interleaving.
	report, err := s.reports.Resolve(ctx, reportID, resolution)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locks.LockContext(ctx, report.CampaignID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	score, err := s.scorer.Recompute(ctx, report.CampaignID, "resolve")
	if err != nil {
		logging.L(ctx).Error("risk recompute after resolve failed",
			"campaign_id", report.CampaignID, "error", err)
	} else {
		s.emit(EventRiskUpdated, report.CampaignID, score)
	}
	s.emit(EventReportResolved, report.CampaignID, report.Redact())
	return report, nil
}

// FlagCampaign records an admin flag override. The override wins over the
// computed flag state until cleared.
func (s *Service) FlagCampaign(ctx context.Context, campaignID, adminID, reason string) (*risk.Score, error) {
	if _, err := s.campaigns.Get(ctx, campaignID); err != nil {
		return nil, err
	}

	unlock, err := s.locks.LockContext(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.flags.Set(ctx, &risk.FlagOverride{
		CampaignID: campaignID,
		FlaggedBy:  risk.FlaggedByAdmin,
		Reason:     validation.SanitizeString(reason, validation.MaxStringLength),
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	metrics.CampaignsFlaggedTotal.WithLabelValues("admin").Inc()
	logging.L(ctx).Info("campaign flagged by admin",
		"campaign_id", campaignID, "admin", adminID)

	score, err := s.scorer.Recompute(ctx, campaignID, "flag")
	if err != nil {
		return nil, err
	}
	s.emit(EventCampaignFlagged, campaignID, score)
	return score, nil
}

// UnflagCampaign clears the flag state to none. A reason is mandatory; the
// underlying score is untouched.
func (s *Service) UnflagCampaign(ctx context.Context, campaignID, adminID, reason string) (*risk.Score, error) {
	reason = validation.SanitizeString(reason, validation.MaxStringLength)
	if reason == "" {
		return nil, fmt.Errorf("%w: unflag reason is required", ErrValidation)
	}

	if _, err := s.campaigns.Get(ctx, campaignID); err != nil {
		return nil, err
	}

	unlock, err := s.locks.LockContext(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.flags.Set(ctx, &risk.FlagOverride{
		CampaignID: campaignID,
		FlaggedBy:  risk.FlaggedByNone,
		Reason:     reason,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	logging.L(ctx).Info("campaign unflagged by admin",
		"campaign_id", campaignID, "admin", adminID, "reason", reason)

	score, err := s.scorer.Recompute(ctx, campaignID, "unflag")
	if err != nil {
		return nil, err
	}
	s.emit(EventCampaignUnflagged, campaignID, score)
	return score, nil
}

// Rules returns the current spam prevention rules.
func (s *Service) Rules() spamguard.Rules {
	return s.guard.Rules()
}

// UpdateRules applies a partial rules update.
func (s *Service) UpdateRules(patch spamguard.RulesPatch) (spamguard.Rules, error) {
	return s.guard.UpdateRules(patch)
}

// Overview is the aggregate payload behind the admin dashboard.
type Overview struct {
	OpenReports      int                `json:"openReports"`
	FlaggedCampaigns []*risk.Score      `json:"flaggedCampaigns"`
	RiskDistribution map[risk.Level]int `json:"riskDistribution"`
	Rules            spamguard.Rules    `json:"rules"`
	GeneratedAt      time.Time          `json:"generatedAt"`
}

// overviewScanLimit caps how many campaigns the overview scores per request.
const overviewScanLimit = 200

// BuildOverview scores recent campaigns and aggregates the dashboard view.
func (s *Service) BuildOverview(ctx context.Context) (*Overview, error) {
	campaigns, err := s.campaigns.List(ctx, overviewScanLimit)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		RiskDistribution: make(map[risk.Level]int),
		Rules:            s.guard.Rules(),
		GeneratedAt:      time.Now().UTC(),
	}

	for _, c := range campaigns {
		score, err := s.scorer.Score(ctx, c.ID)
		if err != nil {
			logging.L(ctx).Warn("overview scoring failed",
				"campaign_id", c.ID, "error", err)
			continue
		}
		ov.RiskDistribution[score.Level]++
		if score.FlaggedBy != risk.FlaggedByNone {
			ov.FlaggedCampaigns = append(ov.FlaggedCampaigns, score)
		}
		unresolved, err := s.reports.CountUnresolved(ctx, c.ID)
		if err == nil {
			ov.OpenReports += unresolved
		}
	}
	return ov, nil
}
