package gate

import "time"

// #region defer-reason
// DeferReason enumerates why the gate (or a later stage) declined to
// intervene. A deferred decision is an expected outcome, not an error.
type DeferReason string

const (
	DeferFlowProtection DeferReason = "flow_protection"
	DeferCooldown       DeferReason = "cooldown"
	DeferFrequencyCap   DeferReason = "frequency_cap"
	DeferLowReceptivity DeferReason = "low_receptivity"
	DeferNoStrategy     DeferReason = "no_applicable_strategy"
)

// #endregion defer-reason

// #region gate-config
// Config holds the receptivity weights and hard limits for gate decisions.
// The four weights sum to 1.
type Config struct {
	LoadWeight      float32 // applied to (1 - cognitive_load)
	AttentionWeight float32
	StressWeight    float32 // applied to (1 - stress_level)
	TimeWeight      float32 // applied to the hour-of-day factor

	InterveneThreshold   float32       // receptivity below this defers
	Cooldown             time.Duration // minimum gap between interventions
	DailyCap             int
	HourlyCap            int
	FlowInterruptionCost float32 // interruption cost above this protects flow
	MaxCooldownFactor    float32 // cap on the per-user dismissal backoff

	HourFactors [24]float32
}

// DefaultConfig returns the documented gate defaults.
func DefaultConfig() Config {
	return Config{
		LoadWeight:           0.3,
		AttentionWeight:      0.3,
		StressWeight:         0.2,
		TimeWeight:           0.2,
		InterveneThreshold:   0.6,
		Cooldown:             30 * time.Minute,
		DailyCap:             5,
		HourlyCap:            2,
		FlowInterruptionCost: 0.7,
		MaxCooldownFactor:    4.0,
		HourFactors:          DefaultHourFactors(),
	}
}

// DefaultHourFactors returns the hour-of-day receptivity table: overnight and
// early morning low, mid-morning and mid-afternoon peak, lunch dip.
func DefaultHourFactors() [24]float32 {
	var h [24]float32
	for i := 0; i < 8; i++ {
		h[i] = 0.2
	}
	h[8] = 0.4
	for i := 9; i <= 11; i++ {
		h[i] = 1.0
	}
	h[12], h[13] = 0.4, 0.4
	for i := 14; i <= 16; i++ {
		h[i] = 1.0
	}
	h[17] = 0.5
	for i := 18; i < 24; i++ {
		h[i] = 0.3
	}
	return h
}

// #endregion gate-config

// #region window
// Window carries the per-user intervention history facts the gate needs.
// LastInterventionAt is the zero time when the user has never been nudged.
type Window struct {
	LastInterventionAt time.Time
	DayCount           int
	HourCount          int

	// CooldownFactor scales the configured cooldown for this user
	// (dismissal backoff). Values below 1 are treated as 1.
	CooldownFactor float32
}

// #endregion window

// #region decision
// Decision is the gate output. Receptivity is always populated, even when
// the decision defers before the threshold rule is reached.
type Decision struct {
	Proceed     bool
	Reason      DeferReason // empty when proceeding
	Receptivity float32
}

// #endregion decision
