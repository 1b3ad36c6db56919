package strategy

import (
	"time"

	"github.com/ferrisk/coachd/internal/estimator"
	"github.com/ferrisk/coachd/internal/snapshot"
)

// #region strategy-id
// ID identifies one of the fixed intervention strategies.
type ID string

const (
	MicroNudge         ID = "micro_nudge"
	HabitFormation     ID = "habit_formation"
	MotivationBoost    ID = "motivation_boost"
	FocusEnhancement   ID = "focus_enhancement"
	StressManagement   ID = "stress_management"
	DeepWorkProtection ID = "deep_work_protection"
	Reflection         ID = "reflection"
)

// All lists every strategy id in catalog order.
var All = []ID{
	MicroNudge,
	HabitFormation,
	MotivationBoost,
	FocusEnhancement,
	StressManagement,
	DeepWorkProtection,
	Reflection,
}

// #endregion strategy-id

// #region profile
// Profile is one catalog entry: a tagged variant with static metadata plus
// its applicability predicate and context-fit scorer.
type Profile struct {
	ID        ID
	BasePrior float32

	// CognitiveDemand ranks how much effort the strategy asks of the user.
	// Lower demand wins score ties.
	CognitiveDemand int

	// Cadence is the recommended follow-up interval for this strategy.
	Cadence time.Duration

	// Slots lists the message slot ids this strategy can render, in
	// preference order.
	Slots []string

	Applicable func(s snapshot.Snapshot, est estimator.Estimates) bool
	Fit        func(s snapshot.Snapshot, est estimator.Estimates) float32
}

// #endregion profile

// #region selection
// Selection is a scored catalog pick.
type Selection struct {
	Strategy Profile
	Score    float32
}

// #endregion selection

// InitialWeight is the uniform starting effectiveness weight for every
// strategy before any feedback arrives.
const InitialWeight float32 = 0.5

// InitialWeights returns a fresh uniform weight map.
func InitialWeights() map[ID]float32 {
	w := make(map[ID]float32, len(All))
	for _, id := range All {
		w[id] = InitialWeight
	}
	return w
}
