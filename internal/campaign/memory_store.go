package campaign

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu        sync.RWMutex
	campaigns map[string]*Campaign
}

// NewMemoryStore creates an in-memory campaign store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		campaigns: make(map[string]*Campaign),
	}
}

func copyCampaign(c *Campaign) *Campaign {
	cp := *c
	cp.Milestones = append([]Milestone(nil), c.Milestones...)
	return &cp
}

func (s *MemoryStore) Create(ctx context.Context, c *Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[c.ID]; exists {
		return ErrCampaignExists
	}
	s.campaigns[c.ID] = copyCampaign(c)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	return copyCampaign(c), nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		result = append(result, copyCampaign(c))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) ListByCreator(ctx context.Context, creatorAddress string, limit int) ([]*Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Campaign
	for _, c := range s.campaigns {
		if strings.EqualFold(c.CreatorAddress, creatorAddress) {
			result = append(result, copyCampaign(c))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
