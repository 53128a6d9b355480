// Package reports records community reports against campaigns and tracks
// their one-way pending to resolved lifecycle.
package reports

import (
	"context"
	"errors"
	"time"

	"github.com/wowzarush/backend/internal/pagination"
)

// Reason is the reporter's categorization of the problem.
type Reason string

const (
	ReasonScam          Reason = "scam"
	ReasonFraud         Reason = "fraud"
	ReasonInappropriate Reason = "inappropriate"
	ReasonCopyright     Reason = "copyright"
	ReasonDuplicate     Reason = "duplicate"
	ReasonOther         Reason = "other"
)

// Valid reports whether the reason is one of the known values.
func (r Reason) Valid() bool {
	switch r {
	case ReasonScam, ReasonFraud, ReasonInappropriate, ReasonCopyright, ReasonDuplicate, ReasonOther:
		return true
	}
	return false
}

// Errors
var (
	ErrReportNotFound  = errors.New("report not found")
	ErrValidation      = errors.New("invalid report")
	ErrAlreadyResolved = errors.New("report already resolved")
	ErrRateLimited     = errors.New("action not allowed by spam prevention rules")
)

// Report is a community report against a campaign. Resolution is one-way:
// once resolved the record never reopens and the resolution text is final.
type Report struct {
	ID              string    `json:"id"`
	CampaignID      string    `json:"campaignId"`
	ReporterID      string    `json:"reporterId,omitempty"`
	ReporterAddress string    `json:"reporterAddress,omitempty"`
	Reason          Reason    `json:"reason"`
	Details         string    `json:"details,omitempty"`
	Evidence        []string  `json:"evidence,omitempty"`
	Resolved        bool      `json:"resolved"`
	Resolution      string    `json:"resolution,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
}

// Redact strips reporter identity, and the report body while it is still
// unresolved, for non-admin listings.
func (r *Report) Redact() *Report {
	cp := *r
	cp.Evidence = append([]string(nil), r.Evidence...)
	cp.ReporterID = ""
	cp.ReporterAddress = ""
	if !cp.Resolved {
		cp.Details = ""
		cp.Evidence = nil
	}
	return &cp
}

// Store persists reports.
type Store interface {
	Create(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	// ListByCampaign returns up to limit+1 reports most-recent-first,
	// starting after the cursor position when one is given.
	ListByCampaign(ctx context.Context, campaignID string, cursor *pagination.Cursor, limit int) ([]*Report, error)
	// Resolve transitions pending → resolved. A second resolve fails with
	// ErrAlreadyResolved and leaves the stored resolution untouched.
	Resolve(ctx context.Context, id, resolution string, at time.Time) (*Report, error)
	CountUnresolved(ctx context.Context, campaignID string) (int, error)
}
