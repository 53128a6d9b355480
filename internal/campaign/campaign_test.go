package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wowzarush/backend/internal/spamguard"
)

const testCreator = "0x3333333333333333333333333333333333333333"

// allowAllGate approves everything and counts recorded actions.
type allowAllGate struct {
	allow    bool
	err      error
	recorded int
}

func (g *allowAllGate) CanPerformAction(ctx context.Context, actor string, action spamguard.Action) (bool, error) {
	return g.allow, g.err
}

func (g *allowAllGate) RecordAction(actor string, action spamguard.Action) {
	g.recorded++
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		CreatorAddress: testCreator,
		Title:          "Community Solar Farm",
		Description:    "Rooftop panels for the neighborhood center.",
		Category:       "environment",
		Goal:           "5000",
		Deadline:       time.Now().Add(30 * 24 * time.Hour),
		Milestones: []Milestone{
			{Title: "Permits", Description: "Secure municipal approval"},
			{Title: "Installation", Description: "Mount and wire the panels"},
		},
	}
}

func TestRegisterCampaign(t *testing.T) {
	gate := &allowAllGate{allow: true}
	svc := NewService(NewMemoryStore(), gate)

	c, err := svc.Register(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if c.ID == "" {
		t.Error("expected generated ID")
	}
	if gate.recorded != 1 {
		t.Errorf("expected 1 recorded action, got %d", gate.recorded)
	}

	got, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != c.Title {
		t.Errorf("title mismatch: %s", got.Title)
	}
	if len(got.Milestones) != 2 {
		t.Errorf("expected 2 milestones, got %d", len(got.Milestones))
	}
}

func TestRegisterValidation(t *testing.T) {
	gate := &allowAllGate{allow: true}
	svc := NewService(NewMemoryStore(), gate)

	cases := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"missing creator", func(r *RegisterRequest) { r.CreatorAddress = "" }},
		{"bad creator", func(r *RegisterRequest) { r.CreatorAddress = "0x123" }},
		{"missing title", func(r *RegisterRequest) { r.Title = "   " }},
		{"missing goal", func(r *RegisterRequest) { r.Goal = "" }},
		{"zero goal", func(r *RegisterRequest) { r.Goal = "0" }},
		{"bad goal", func(r *RegisterRequest) { r.Goal = "lots" }},
		{"past deadline", func(r *RegisterRequest) { r.Deadline = time.Now().Add(-time.Hour) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)

			if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}

	if gate.recorded != 0 {
		t.Errorf("rejected requests must not record actions, got %d", gate.recorded)
	}
}

func TestRegisterDeniedByGuard(t *testing.T) {
	gate := &allowAllGate{allow: false}
	store := NewMemoryStore()
	svc := NewService(store, gate)

	if _, err := svc.Register(context.Background(), validRequest()); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}

	// Denied registration must not persist anything.
	all, _ := store.List(context.Background(), 10)
	if len(all) != 0 {
		t.Errorf("expected no stored campaigns, got %d", len(all))
	}
	if gate.recorded != 0 {
		t.Errorf("denied action must not be recorded, got %d", gate.recorded)
	}
}

func TestGetMissingCampaign(t *testing.T) {
	svc := NewService(NewMemoryStore(), &allowAllGate{allow: true})

	if _, err := svc.Get(context.Background(), "cmp_missing"); !errors.Is(err, ErrCampaignNotFound) {
		t.Errorf("expected ErrCampaignNotFound, got %v", err)
	}
}

func TestListByCreator(t *testing.T) {
	gate := &allowAllGate{allow: true}
	svc := NewService(NewMemoryStore(), gate)

	for i := 0; i < 3; i++ {
		if _, err := svc.Register(context.Background(), validRequest()); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	other := validRequest()
	other.CreatorAddress = "0x4444444444444444444444444444444444444444"
	if _, err := svc.Register(context.Background(), other); err != nil {
		t.Fatalf("register other: %v", err)
	}

	mine, err := svc.ListByCreator(context.Background(), testCreator, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 3 {
		t.Errorf("expected 3 campaigns for creator, got %d", len(mine))
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	c := &Campaign{
		ID:             "cmp_copy",
		CreatorAddress: testCreator,
		Title:          "original",
		Goal:           "100",
		Deadline:       time.Now().Add(time.Hour),
		Milestones:     []Milestone{{Title: "one"}},
		CreatedAt:      time.Now(),
	}
	if err := store.Create(context.Background(), c); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, _ := store.Get(context.Background(), "cmp_copy")
	got.Title = "mutated"
	got.Milestones[0].Title = "mutated"

	again, _ := store.Get(context.Background(), "cmp_copy")
	if again.Title != "original" || again.Milestones[0].Title != "one" {
		t.Error("store returned a shared reference")
	}
}
