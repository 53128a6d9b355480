package identity

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile // by lowercase address
}

// NewMemoryStore creates an in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
	}
}

func (s *MemoryStore) Create(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(p.Address)
	if _, exists := s.profiles[key]; exists {
		return ErrProfileExists
	}
	cp := *p
	s.profiles[key] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, address string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[strings.ToLower(address)]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Update(ctx context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(p.Address)
	if _, ok := s.profiles[key]; !ok {
		return ErrProfileNotFound
	}
	cp := *p
	s.profiles[key] = &cp
	return nil
}

// MemoryBalances is an in-memory BalanceChecker for demo mode and tests.
// Addresses without an entry report a zero balance.
type MemoryBalances struct {
	mu       sync.RWMutex
	balances map[string]string
}

// NewMemoryBalances creates an empty in-memory balance checker.
func NewMemoryBalances() *MemoryBalances {
	return &MemoryBalances{
		balances: make(map[string]string),
	}
}

// Set records a balance for an address.
func (b *MemoryBalances) Set(address, balance string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[strings.ToLower(address)] = balance
}

func (b *MemoryBalances) Balance(ctx context.Context, address string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if bal, ok := b.balances[strings.ToLower(address)]; ok {
		return bal, nil
	}
	return "0", nil
}
