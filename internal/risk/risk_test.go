package risk

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wowzarush/backend/internal/campaign"
	"github.com/wowzarush/backend/internal/identity"
)

func TestComputeScoreFormula(t *testing.T) {
	mk := func(trueCount, total int) map[FactorName]bool {
		factors := make(map[FactorName]bool, total)
		for i := 0; i < total; i++ {
			factors[FactorName(fmt.Sprintf("factor_%d", i))] = i < trueCount
		}
		return factors
	}

	cases := []struct {
		trueCount, total, want int
	}{
		{0, 5, 0},
		{1, 5, 20},
		{2, 5, 40},
		{3, 5, 60},
		{4, 5, 80},
		{5, 5, 100},
		{1, 3, 33},
		{2, 3, 67}, // round(66.67) = 67
		{1, 4, 25},
	}
	for _, tc := range cases {
		if got := ComputeScore(mk(tc.trueCount, tc.total)); got != tc.want {
			t.Errorf("ComputeScore(%d/%d) = %d, want %d", tc.trueCount, tc.total, got, tc.want)
		}
	}

	if got := ComputeScore(nil); got != 0 {
		t.Errorf("empty factor set should score 0, got %d", got)
	}
}

func TestLevelBoundaries(t *testing.T) {
	cases := map[int]Level{
		0:   LevelLow,
		25:  LevelLow,
		26:  LevelMedium,
		50:  LevelMedium,
		51:  LevelHigh,
		75:  LevelHigh,
		76:  LevelCritical,
		100: LevelCritical,
	}
	for score, want := range cases {
		if got := LevelFor(score); got != want {
			t.Errorf("LevelFor(%d) = %s, want %s", score, got, want)
		}
	}
}

// --- Scorer wiring ---

type fixedReportCount struct {
	count int
	err   error
}

func (f fixedReportCount) CountUnresolved(ctx context.Context, campaignID string) (int, error) {
	return f.count, f.err
}

type scorerFixture struct {
	campaigns *campaign.MemoryStore
	profiles  *identity.MemoryStore
	flags     *MemoryFlagStore
	scorer    *Scorer
	now       time.Time
}

func newScorerFixture(t *testing.T, unresolvedReports int) *scorerFixture {
	t.Helper()

	f := &scorerFixture{
		campaigns: campaign.NewMemoryStore(),
		profiles:  identity.NewMemoryStore(),
		flags:     NewMemoryFlagStore(),
		now:       time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	f.scorer = NewScorer(f.campaigns, f.profiles, fixedReportCount{count: unresolvedReports}, f.flags)
	f.scorer.now = func() time.Time { return f.now }
	return f
}

const (
	fixtureCreator  = "0x5555555555555555555555555555555555555555"
	fixtureCampaign = "cmp_fixture"
)

// seed stores a campaign/profile pair tuned to fire exactly the given factors.
func (f *scorerFixture) seed(t *testing.T, newCreator, unverified, hugeGoal, vague bool) {
	t.Helper()

	registered := f.now.Add(-90 * 24 * time.Hour)
	if newCreator {
		registered = f.now.Add(-1 * 24 * time.Hour)
	}
	level := 2
	if unverified {
		level = 0
	}
	err := f.profiles.Create(context.Background(), &identity.Profile{
		Address:           fixtureCreator,
		RegisteredAt:      registered,
		VerificationLevel: level,
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	goal := "5000"
	if hugeGoal {
		goal = "100000"
	}
	milestones := []campaign.Milestone{
		{Title: "Phase 1", Description: "Secure permits and order all materials"},
		{Title: "Phase 2", Description: "Install panels and connect to the grid"},
	}
	if vague {
		milestones = nil
	}
	err = f.campaigns.Create(context.Background(), &campaign.Campaign{
		ID:             fixtureCampaign,
		CreatorAddress: fixtureCreator,
		Title:          "Test Campaign",
		Goal:           goal,
		Deadline:       f.now.Add(60 * 24 * time.Hour),
		Milestones:     milestones,
		CreatedAt:      f.now.Add(-10 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
}

// Scenario: an established verified creator with a vague plan and a new
// account reads 2/5 factors, medium, not flagged.
func TestScoreTwoFactorsMedium(t *testing.T) {
	f := newScorerFixture(t, 0)
	f.seed(t, true, false, false, true) // new_creator + vague_milestones

	score, err := f.scorer.Score(context.Background(), fixtureCampaign)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Score != 40 {
		t.Errorf("expected score 40, got %d", score.Score)
	}
	if score.Level != LevelMedium {
		t.Errorf("expected medium, got %s", score.Level)
	}
	if score.FlaggedBy != FlaggedByNone {
		t.Errorf("expected no flag, got %s", score.FlaggedBy)
	}
}

// Scenario: four firing factors reads 80, critical, system-flagged.
func TestScoreFourFactorsCriticalSystemFlag(t *testing.T) {
	f := newScorerFixture(t, 5) // report_volume fires
	f.seed(t, true, true, true, false)

	score, err := f.scorer.Score(context.Background(), fixtureCampaign)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Score != 80 {
		t.Errorf("expected score 80, got %d", score.Score)
	}
	if score.Level != LevelCritical {
		t.Errorf("expected critical, got %s", score.Level)
	}
	if score.FlaggedBy != FlaggedBySystem {
		t.Errorf("expected system flag, got %s", score.FlaggedBy)
	}
	if !score.Factors[FactorReportVolume] {
		t.Error("report_volume should have fired")
	}
}

func TestScoreCampaignNotFound(t *testing.T) {
	f := newScorerFixture(t, 0)

	_, err := f.scorer.Score(context.Background(), "cmp_missing")
	if !errors.Is(err, campaign.ErrCampaignNotFound) {
		t.Errorf("expected ErrCampaignNotFound, got %v", err)
	}
}

func TestAdminOverrideWins(t *testing.T) {
	f := newScorerFixture(t, 5)
	f.seed(t, true, true, true, true) // everything fires: score 100

	// Admin cleared the flag despite the critical score.
	err := f.flags.Set(context.Background(), &FlagOverride{
		CampaignID: fixtureCampaign,
		FlaggedBy:  FlaggedByNone,
		Reason:     "manually reviewed, creator verified out of band",
		UpdatedAt:  f.now,
	})
	if err != nil {
		t.Fatalf("set override: %v", err)
	}

	score, err := f.scorer.Score(context.Background(), fixtureCampaign)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Score != 100 {
		t.Errorf("override must not change the score, got %d", score.Score)
	}
	if score.FlaggedBy != FlaggedByNone {
		t.Errorf("override should win, got %s", score.FlaggedBy)
	}

	// Clearing the override restores the system decision.
	if err := f.flags.Delete(context.Background(), fixtureCampaign); err != nil {
		t.Fatalf("delete override: %v", err)
	}
	score, _ = f.scorer.Score(context.Background(), fixtureCampaign)
	if score.FlaggedBy != FlaggedBySystem {
		t.Errorf("expected system flag after clearing override, got %s", score.FlaggedBy)
	}
}

func TestAdminFlagOverride(t *testing.T) {
	f := newScorerFixture(t, 0)
	f.seed(t, false, false, false, false) // nothing fires: score 0

	err := f.flags.Set(context.Background(), &FlagOverride{
		CampaignID: fixtureCampaign,
		FlaggedBy:  FlaggedByAdmin,
		Reason:     "off-platform fraud signals",
		UpdatedAt:  f.now,
	})
	if err != nil {
		t.Fatalf("set override: %v", err)
	}

	score, err := f.scorer.Score(context.Background(), fixtureCampaign)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Score != 0 {
		t.Errorf("expected score 0, got %d", score.Score)
	}
	if score.FlaggedBy != FlaggedByAdmin {
		t.Errorf("expected admin flag, got %s", score.FlaggedBy)
	}
}
