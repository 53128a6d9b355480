package risk

import (
	"context"
	"sync"
)

// MemoryFlagStore is an in-memory implementation of FlagStore.
type MemoryFlagStore struct {
	mu        sync.RWMutex
	overrides map[string]*FlagOverride
}

// NewMemoryFlagStore creates an in-memory flag override store.
func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{
		overrides: make(map[string]*FlagOverride),
	}
}

func (s *MemoryFlagStore) Set(ctx context.Context, override *FlagOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *override
	s.overrides[override.CampaignID] = &cp
	return nil
}

func (s *MemoryFlagStore) Get(ctx context.Context, campaignID string) (*FlagOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[campaignID]
	if !ok {
		return nil, ErrOverrideNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *MemoryFlagStore) Delete(ctx context.Context, campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, campaignID)
	return nil
}
