// Package moderation is the façade the dashboard and campaign UI consume.
// It sequences report writes with risk recomputes under a per-campaign lock,
// applies admin flag overrides, and broadcasts moderation events.
package moderation

import (
	"errors"
	"time"
)

// Errors
var (
	ErrValidation = errors.New("invalid moderation request")
)

// Event types broadcast to the realtime hub.
const (
	EventReportSubmitted   = "report_submitted"
	EventReportResolved    = "report_resolved"
	EventCampaignFlagged   = "campaign_flagged"
	EventCampaignUnflagged = "campaign_unflagged"
	EventRiskUpdated       = "risk_updated"
)

// Event is a moderation occurrence pushed to connected dashboards.
type Event struct {
	Type       string    `json:"type"`
	CampaignID string    `json:"campaignId"`
	Payload    any       `json:"payload,omitempty"`
	At         time.Time `json:"at"`
}

// Emitter broadcasts moderation events. The realtime hub implements this;
// a nil-safe no-op is used when realtime is disabled.
type Emitter interface {
	Emit(event Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(event Event)

func (f EmitterFunc) Emit(event Event) { f(event) }
