package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/wowzarush/backend/internal/campaign"
	"github.com/wowzarush/backend/internal/idgen"
	"github.com/wowzarush/backend/internal/logging"
	"github.com/wowzarush/backend/internal/metrics"
	"github.com/wowzarush/backend/internal/pagination"
	"github.com/wowzarush/backend/internal/spamguard"
	"github.com/wowzarush/backend/internal/validation"
)

// Gate is the spam guard surface the report service needs.
type Gate interface {
	CanPerformAction(ctx context.Context, actorAddress string, action spamguard.Action) (bool, error)
	RecordAction(actorAddress string, action spamguard.Action)
}

// CampaignSource checks that the reported campaign exists.
type CampaignSource interface {
	Get(ctx context.Context, id string) (*campaign.Campaign, error)
}

// SubmitRequest is the payload for submitting a report.
type SubmitRequest struct {
	CampaignID      string   `json:"campaign_id"`
	ReporterID      string   `json:"reporter_id"`
	ReporterAddress string   `json:"reporter_address"`
	Reason          Reason   `json:"reason"`
	Details         string   `json:"details"`
	Evidence        []string `json:"evidence"`
}

// Page is one page of a report listing.
type Page struct {
	Reports    []*Report `json:"reports"`
	NextCursor string    `json:"nextCursor,omitempty"`
	HasMore    bool      `json:"hasMore"`
}

// Service coordinates report submission, listing, and resolution.
type Service struct {
	store     Store
	campaigns CampaignSource
	gate      Gate
}

// NewService creates a report service.
func NewService(store Store, campaigns CampaignSource, gate Gate) *Service {
	return &Service{store: store, campaigns: campaigns, gate: gate}
}

// Submit validates, spam-checks, and persists a new report.
// Denied or invalid submissions write nothing.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Report, error) {
	req.ReporterAddress = validation.SanitizeAddress(req.ReporterAddress)
	req.Details = validation.SanitizeString(req.Details, validation.MaxStringLength)

	if !req.Reason.Valid() {
		return nil, fmt.Errorf("%w: unknown reason %q", ErrValidation, req.Reason)
	}
	if errs := validation.Validate(
		validation.Required("campaign_id", req.CampaignID),
		validation.Required("reporter_address", req.ReporterAddress),
		validation.ValidAddress("reporter_address", req.ReporterAddress),
		validation.Required("details", req.Details),
		validation.ValidEvidence("evidence", req.Evidence),
	); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, errs.Error())
	}

	if _, err := s.campaigns.Get(ctx, req.CampaignID); err != nil {
		return nil, err
	}

	allowed, err := s.gate.CanPerformAction(ctx, req.ReporterAddress, spamguard.ActionReport)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrRateLimited
	}

	r := &Report{
		ID:              idgen.WithPrefix("rpt_"),
		CampaignID:      req.CampaignID,
		ReporterID:      req.ReporterID,
		ReporterAddress: req.ReporterAddress,
		Reason:          req.Reason,
		Details:         req.Details,
		Evidence:        req.Evidence,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}

	// The window records only durable writes; a failed insert above must
	// not consume the reporter's quota.
	s.gate.RecordAction(req.ReporterAddress, spamguard.ActionReport)
	metrics.ReportsSubmittedTotal.WithLabelValues(string(r.Reason)).Inc()

	logging.L(ctx).Info("report submitted",
		"report_id", r.ID,
		"campaign_id", r.CampaignID,
		"reason", string(r.Reason),
	)
	return r, nil
}

// List returns a page of the campaign's reports, most recent first.
// Non-admin callers see redacted reports.
func (s *Service) List(ctx context.Context, campaignID string, admin bool, cursorStr string, limit int) (*Page, error) {
	cursor, err := pagination.Decode(cursorStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	limit = pagination.ClampLimit(limit)

	items, err := s.store.ListByCampaign(ctx, campaignID, cursor, limit)
	if err != nil {
		return nil, err
	}

	items, next, hasMore := pagination.ComputePage(items, limit, func(r *Report) (time.Time, string) {
		return r.CreatedAt, r.ID
	})

	if !admin {
		for i, r := range items {
			items[i] = r.Redact()
		}
	}

	return &Page{Reports: items, NextCursor: next, HasMore: hasMore}, nil
}

// Get returns a single report. Non-admin callers see it redacted.
func (s *Service) Get(ctx context.Context, id string, admin bool) (*Report, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin {
		r = r.Redact()
	}
	return r, nil
}

// Resolve marks a report resolved with the given resolution text.
func (s *Service) Resolve(ctx context.Context, id, resolution string) (*Report, error) {
	resolution = validation.SanitizeString(resolution, validation.MaxStringLength)
	if resolution == "" {
		return nil, fmt.Errorf("%w: resolution is required", ErrValidation)
	}

	r, err := s.store.Resolve(ctx, id, resolution, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	metrics.ReportsResolvedTotal.Inc()
	logging.L(ctx).Info("report resolved",
		"report_id", r.ID,
		"campaign_id", r.CampaignID,
	)
	return r, nil
}

// CountUnresolved exposes the unresolved count for the risk scorer.
func (s *Service) CountUnresolved(ctx context.Context, campaignID string) (int, error) {
	return s.store.CountUnresolved(ctx, campaignID)
}
