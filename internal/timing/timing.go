// Package timing computes when a permitted intervention should actually be
// delivered. Pure functions of context and strategy; no external calls.
package timing

import (
	"time"

	"github.com/ferrisk/coachd/internal/estimator"
	"github.com/ferrisk/coachd/internal/snapshot"
	"github.com/ferrisk/coachd/internal/strategy"
)

// #region config
// Config holds the delivery timing knobs.
type Config struct {
	BaseDelay   time.Duration // nominal gap between decision and delivery
	ValidWindow time.Duration // how long delivery remains timely

	LowEnergyThreshold  float32 // below this, delivery is pushed out
	LowEnergyMultiplier float32
}

// DefaultConfig returns the documented timing defaults.
func DefaultConfig() Config {
	return Config{
		BaseDelay:           5 * time.Minute,
		ValidWindow:         30 * time.Minute,
		LowEnergyThreshold:  0.3,
		LowEnergyMultiplier: 2.0,
	}
}

// #endregion config

// #region plan
// Plan is the computed delivery schedule for one intervention.
type Plan struct {
	OptimalTime time.Time
	ValidWindow time.Duration

	// FollowUp is the recommended spacing before the same strategy is
	// worth repeating, from the strategy's cadence table.
	FollowUp time.Duration
}

// Optimizer computes delivery plans.
type Optimizer struct {
	config Config
}

// NewOptimizer creates an optimizer with the given configuration.
func NewOptimizer(config Config) *Optimizer {
	return &Optimizer{config: config}
}

// Plan computes the delivery time for a gated-through intervention.
// High cognitive load shortens the delay (the moment is urgent precisely
// because the gate let it through anyway); low energy stretches it.
func (o *Optimizer) Plan(s snapshot.Snapshot, est estimator.Estimates, strat strategy.Profile, now time.Time) Plan {
	scale := 1.5 - est.CognitiveLoad // load 1 → 0.5x, load 0 → 1.5x
	delay := time.Duration(float64(o.config.BaseDelay) * float64(scale))

	if s.EnergyLevel < o.config.LowEnergyThreshold {
		delay = time.Duration(float64(delay) * float64(o.config.LowEnergyMultiplier))
	}

	return Plan{
		OptimalTime: now.Add(delay),
		ValidWindow: o.config.ValidWindow,
		FollowUp:    strat.Cadence,
	}
}

// #endregion plan
