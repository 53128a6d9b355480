package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/wowzarush/backend/internal/idgen"
	"github.com/wowzarush/backend/internal/logging"
	"github.com/wowzarush/backend/internal/spamguard"
	"github.com/wowzarush/backend/internal/validation"
)

// Gate is the spam guard surface the campaign service needs.
type Gate interface {
	CanPerformAction(ctx context.Context, actorAddress string, action spamguard.Action) (bool, error)
	RecordAction(actorAddress string, action spamguard.Action)
}

// RegisterRequest is the payload for registering a campaign.
type RegisterRequest struct {
	CreatorAddress string      `json:"creator_address"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Category       string      `json:"category"`
	Goal           string      `json:"goal"`
	Deadline       time.Time   `json:"deadline"`
	Milestones     []Milestone `json:"milestones"`
}

// Service coordinates campaign registration and lookups.
type Service struct {
	store Store
	gate  Gate
}

// NewService creates a campaign service.
func NewService(store Store, gate Gate) *Service {
	return &Service{store: store, gate: gate}
}

// Register records a new campaign after the creator clears the spam guard.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Campaign, error) {
	req.CreatorAddress = validation.SanitizeAddress(req.CreatorAddress)
	req.Title = validation.SanitizeString(req.Title, 200)
	req.Description = validation.SanitizeString(req.Description, validation.MaxStringLength)
	req.Category = validation.SanitizeString(req.Category, 64)

	if errs := validation.Validate(
		validation.Required("creator_address", req.CreatorAddress),
		validation.ValidAddress("creator_address", req.CreatorAddress),
		validation.Required("title", req.Title),
		validation.Required("goal", req.Goal),
		validation.ValidAmount("goal", req.Goal),
	); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, errs.Error())
	}
	if !req.Deadline.After(time.Now()) {
		return nil, fmt.Errorf("%w: deadline must be in the future", ErrValidation)
	}

	allowed, err := s.gate.CanPerformAction(ctx, req.CreatorAddress, spamguard.ActionCreate)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrRateLimited
	}

	c := &Campaign{
		ID:             idgen.WithPrefix("cmp_"),
		CreatorAddress: req.CreatorAddress,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Goal:           req.Goal,
		Deadline:       req.Deadline,
		Milestones:     req.Milestones,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}

	s.gate.RecordAction(req.CreatorAddress, spamguard.ActionCreate)

	logging.L(ctx).Info("campaign registered",
		"campaign_id", c.ID,
		"creator", c.CreatorAddress,
		"goal", c.Goal,
	)
	return c, nil
}

// Get returns a campaign by ID.
func (s *Service) Get(ctx context.Context, id string) (*Campaign, error) {
	return s.store.Get(ctx, id)
}

// List returns the most recently created campaigns.
func (s *Service) List(ctx context.Context, limit int) ([]*Campaign, error) {
	return s.store.List(ctx, limit)
}

// ListByCreator returns a creator's campaigns, most recent first.
func (s *Service) ListByCreator(ctx context.Context, creatorAddress string, limit int) ([]*Campaign, error) {
	return s.store.ListByCreator(ctx, creatorAddress, limit)
}
