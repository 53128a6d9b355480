// Package campaign stores crowdfunding campaign metadata used by the
// moderation pipeline: funding goal, deadline, milestones, and creator.
package campaign

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignExists   = errors.New("campaign already exists")
	ErrValidation       = errors.New("invalid campaign")
	ErrRateLimited      = errors.New("action not allowed by spam prevention rules")
)

// Milestone is one step of a campaign's delivery plan.
type Milestone struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Campaign is a crowdfunding campaign as the moderation service sees it.
type Campaign struct {
	ID             string      `json:"id"`
	CreatorAddress string      `json:"creatorAddress"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Category       string      `json:"category"`
	Goal           string      `json:"goal"` // decimal token amount
	Deadline       time.Time   `json:"deadline"`
	Milestones     []Milestone `json:"milestones"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Store persists campaigns.
type Store interface {
	Create(ctx context.Context, c *Campaign) error
	Get(ctx context.Context, id string) (*Campaign, error)
	List(ctx context.Context, limit int) ([]*Campaign, error)
	ListByCreator(ctx context.Context, creatorAddress string, limit int) ([]*Campaign, error)
}
