package reports

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wowzarush/backend/internal/pagination"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*Report
}

// NewMemoryStore creates an in-memory report store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]*Report),
	}
}

func copyReport(r *Report) *Report {
	cp := *r
	cp.Evidence = append([]string(nil), r.Evidence...)
	if r.ResolvedAt != nil {
		at := *r.ResolvedAt
		cp.ResolvedAt = &at
	}
	return &cp
}

func (s *MemoryStore) Create(ctx context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = copyReport(r)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	return copyReport(r), nil
}

func (s *MemoryStore) ListByCampaign(ctx context.Context, campaignID string, cursor *pagination.Cursor, limit int) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*Report
	for _, r := range s.reports {
		if r.CampaignID != campaignID {
			continue
		}
		if cursor != nil {
			// Strictly after the cursor position in (created_at, id) DESC order.
			if r.CreatedAt.After(cursor.CreatedAt) {
				continue
			}
			if r.CreatedAt.Equal(cursor.CreatedAt) && r.ID >= cursor.ID {
				continue
			}
		}
		all = append(all, copyReport(r))
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if limit > 0 && len(all) > limit+1 {
		all = all[:limit+1]
	}
	return all, nil
}

func (s *MemoryStore) Resolve(ctx context.Context, id, resolution string, at time.Time) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	if r.Resolved {
		return nil, ErrAlreadyResolved
	}

	r.Resolved = true
	r.Resolution = resolution
	r.ResolvedAt = &at
	return copyReport(r), nil
}

func (s *MemoryStore) CountUnresolved(ctx context.Context, campaignID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.reports {
		if r.CampaignID == campaignID && !r.Resolved {
			count++
		}
	}
	return count, nil
}
