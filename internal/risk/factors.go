package risk

import (
	"math/big"
	"strings"
	"time"
)

// FactorName identifies a boolean risk indicator.
type FactorName string

const (
	// Content factors
	FactorUnrealisticGoal FactorName = "unrealistic_goal"
	FactorVagueMilestones FactorName = "vague_milestones"

	// Community factors
	FactorReportVolume FactorName = "report_volume"

	// Identity factors
	FactorNewCreator        FactorName = "new_creator"
	FactorUnverifiedCreator FactorName = "unverified_creator"
)

// AllFactors is the fixed evaluation set. Order is stable for display.
var AllFactors = []FactorName{
	FactorUnrealisticGoal,
	FactorVagueMilestones,
	FactorReportVolume,
	FactorNewCreator,
	FactorUnverifiedCreator,
}

// Factor thresholds.
const (
	// A goal this large is implausible regardless of timeline.
	unrealisticGoalCeiling = 50000
	// Goals above this with a short deadline window are implausible.
	shortWindowGoalCeiling = 10000
	shortWindowDays        = 14

	// Milestone plans need at least this many steps, each with a
	// description at least this long, to count as specific.
	minMilestones       = 2
	minMilestoneDetails = 20

	// Unresolved reports at or above this count fire the community factor.
	reportVolumeThreshold = 3

	// Creator accounts younger than this are considered new.
	newCreatorDays = 7

	// Creators below this verification level are unverified.
	verifiedLevel = 1
)

// Milestone is the delivery-plan step shape the factors inspect.
type Milestone struct {
	Title       string
	Description string
}

// FactorInput is the snapshot a single evaluation reads. Factors are pure
// functions of this struct; none depends on another factor's result.
type FactorInput struct {
	Goal       string // decimal token amount
	CreatedAt  time.Time
	Deadline   time.Time
	Milestones []Milestone

	CreatorRegisteredAt      time.Time
	CreatorVerificationLevel int

	UnresolvedReports int

	Now time.Time
}

// EvaluateFactors runs every factor against the input.
func EvaluateFactors(in FactorInput) map[FactorName]bool {
	return map[FactorName]bool{
		FactorUnrealisticGoal:   unrealisticGoal(in),
		FactorVagueMilestones:   vagueMilestones(in),
		FactorReportVolume:      reportVolume(in),
		FactorNewCreator:        newCreator(in),
		FactorUnverifiedCreator: unverifiedCreator(in),
	}
}

// ComputeScore returns round(100 * trueCount / totalCount).
func ComputeScore(factors map[FactorName]bool) int {
	if len(factors) == 0 {
		return 0
	}
	trueCount := 0
	for _, fired := range factors {
		if fired {
			trueCount++
		}
	}
	// Integer rounding: round half up.
	return (100*trueCount + len(factors)/2) / len(factors)
}

func unrealisticGoal(in FactorInput) bool {
	goal, ok := new(big.Rat).SetString(in.Goal)
	if !ok {
		return false
	}
	if goal.Cmp(big.NewRat(unrealisticGoalCeiling, 1)) >= 0 {
		return true
	}
	window := in.Deadline.Sub(in.CreatedAt)
	if window <= 0 {
		return true
	}
	if window < shortWindowDays*24*time.Hour &&
		goal.Cmp(big.NewRat(shortWindowGoalCeiling, 1)) >= 0 {
		return true
	}
	return false
}

func vagueMilestones(in FactorInput) bool {
	if len(in.Milestones) < minMilestones {
		return true
	}
	for _, m := range in.Milestones {
		if len(strings.TrimSpace(m.Description)) < minMilestoneDetails {
			return true
		}
	}
	return false
}

func reportVolume(in FactorInput) bool {
	return in.UnresolvedReports >= reportVolumeThreshold
}

func newCreator(in FactorInput) bool {
	return in.Now.Sub(in.CreatorRegisteredAt) < newCreatorDays*24*time.Hour
}

func unverifiedCreator(in FactorInput) bool {
	return in.CreatorVerificationLevel < verifiedLevel
}
