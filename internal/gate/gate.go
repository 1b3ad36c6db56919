package gate

import (
	"time"

	"github.com/ferrisk/coachd/internal/snapshot"
)

// #region gate
// Gate decides whether the current moment permits an intervention.
// Evaluation must run under the caller's per-user lock: the cooldown and
// cap checks are only correct when no concurrent decision for the same
// user can interleave.
type Gate struct {
	config Config
}

// NewGate creates a gate with the given configuration.
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Config returns the active gate configuration.
func (g *Gate) Config() Config {
	return g.config
}

// Evaluate applies the decision rules in order, first match wins:
//
//  1. flow protection   — never break an expensive flow streak
//  2. cooldown          — minimum spacing since the last intervention
//  3. frequency caps    — daily then hourly window counts
//  4. receptivity floor — composite score below the intervene threshold
//
// A snapshot passing all four proceeds, carrying its receptivity forward.
func (g *Gate) Evaluate(s snapshot.Snapshot, w Window, now time.Time) Decision {
	receptivity := g.Receptivity(s)

	if s.FocusState == snapshot.FocusFlow && s.InterruptionCost > g.config.FlowInterruptionCost {
		return Decision{Reason: DeferFlowProtection, Receptivity: receptivity}
	}

	if !w.LastInterventionAt.IsZero() {
		factor := w.CooldownFactor
		if factor < 1 {
			factor = 1
		}
		if factor > g.config.MaxCooldownFactor {
			factor = g.config.MaxCooldownFactor
		}
		cooldown := time.Duration(float64(g.config.Cooldown) * float64(factor))
		if now.Sub(w.LastInterventionAt) < cooldown {
			return Decision{Reason: DeferCooldown, Receptivity: receptivity}
		}
	}

	if w.DayCount >= g.config.DailyCap || w.HourCount >= g.config.HourlyCap {
		return Decision{Reason: DeferFrequencyCap, Receptivity: receptivity}
	}

	if receptivity < g.config.InterveneThreshold {
		return Decision{Reason: DeferLowReceptivity, Receptivity: receptivity}
	}

	return Decision{Proceed: true, Receptivity: receptivity}
}

// Receptivity computes the weighted composite of load headroom, attention,
// stress headroom, and the hour-of-day factor, clamped to [0,1].
func (g *Gate) Receptivity(s snapshot.Snapshot) float32 {
	hour := s.TimeOfDay.Hour()
	r := g.config.LoadWeight*(1-s.CognitiveLoad) +
		g.config.AttentionWeight*s.AttentionLevel +
		g.config.StressWeight*(1-s.StressLevel) +
		g.config.TimeWeight*g.config.HourFactors[hour]
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// #endregion gate
