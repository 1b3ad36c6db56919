package strategy

import (
	"time"

	"github.com/ferrisk/coachd/internal/estimator"
	"github.com/ferrisk/coachd/internal/snapshot"
)

// #region catalog

// Catalog is the fixed strategy set, keyed by id.
type Catalog map[ID]Profile

// DefaultCatalog returns the built-in strategies with their priors, demand
// ranks, cadences, and scoring functions.
func DefaultCatalog() Catalog {
	return Catalog{
		MicroNudge: {
			ID:              MicroNudge,
			BasePrior:       0.50,
			CognitiveDemand: 0,
			Cadence:         2 * time.Hour,
			Slots:           []string{"micro_break", "micro_stretch", "micro_hydrate"},
			Applicable: func(snapshot.Snapshot, estimator.Estimates) bool {
				return true // the universal fallback
			},
			Fit: func(_ snapshot.Snapshot, est estimator.Estimates) float32 {
				// Cheap asks fit best when the user has little headroom.
				return clamp(0.4 + 0.3*est.CognitiveLoad)
			},
		},
		HabitFormation: {
			ID:              HabitFormation,
			BasePrior:       0.55,
			CognitiveDemand: 2,
			Cadence:         24 * time.Hour,
			Slots:           []string{"habit_anchor", "habit_streak"},
			Applicable: func(s snapshot.Snapshot, _ estimator.Estimates) bool {
				return len(s.ActiveGoals) > 0
			},
			Fit: func(s snapshot.Snapshot, est estimator.Estimates) float32 {
				// Most useful while a goal still has distance to cover.
				return clamp(0.3 + 0.4*(1-s.GoalProgress) + 0.3*est.Motivation)
			},
		},
		MotivationBoost: {
			ID:              MotivationBoost,
			BasePrior:       0.60,
			CognitiveDemand: 1,
			Cadence:         4 * time.Hour,
			Slots:           []string{"motivation_progress", "motivation_reframe"},
			Applicable: func(_ snapshot.Snapshot, est estimator.Estimates) bool {
				return est.Motivation < 0.5
			},
			Fit: func(_ snapshot.Snapshot, est estimator.Estimates) float32 {
				return clamp(1 - est.Motivation)
			},
		},
		FocusEnhancement: {
			ID:              FocusEnhancement,
			BasePrior:       0.60,
			CognitiveDemand: 2,
			Cadence:         90 * time.Minute,
			Slots:           []string{"focus_block", "focus_single_task", "focus_tabs"},
			Applicable: func(s snapshot.Snapshot, est estimator.Estimates) bool {
				return s.FocusState == snapshot.FocusDistracted || est.Attention < 0.4
			},
			Fit: func(s snapshot.Snapshot, est estimator.Estimates) float32 {
				fit := 0.5 * (1 - est.Attention)
				if s.FocusState == snapshot.FocusDistracted {
					fit += 0.5
				} else {
					fit += 0.2
				}
				return clamp(fit)
			},
		},
		StressManagement: {
			ID:              StressManagement,
			BasePrior:       0.65,
			CognitiveDemand: 1,
			Cadence:         3 * time.Hour,
			Slots:           []string{"stress_breathing", "stress_break", "stress_triage"},
			Applicable: func(s snapshot.Snapshot, _ estimator.Estimates) bool {
				return s.StressLevel > 0.6
			},
			Fit: func(s snapshot.Snapshot, _ estimator.Estimates) float32 {
				return clamp(s.StressLevel)
			},
		},
		DeepWorkProtection: {
			ID:              DeepWorkProtection,
			BasePrior:       0.55,
			CognitiveDemand: 1,
			Cadence:         24 * time.Hour,
			Slots:           []string{"deepwork_guard", "deepwork_schedule"},
			Applicable: func(s snapshot.Snapshot, est estimator.Estimates) bool {
				settled := s.FocusState == snapshot.FocusFocused || s.FocusState == snapshot.FocusFlow
				return settled && est.Attention > 0.6
			},
			Fit: func(_ snapshot.Snapshot, est estimator.Estimates) float32 {
				return clamp(est.Attention)
			},
		},
		Reflection: {
			ID:              Reflection,
			BasePrior:       0.50,
			CognitiveDemand: 3,
			Cadence:         24 * time.Hour,
			Slots:           []string{"reflect_day", "reflect_goal"},
			Applicable: func(s snapshot.Snapshot, _ estimator.Estimates) bool {
				return s.TimeOfDay.Hour() >= 16 || s.FocusState == snapshot.FocusFatigued
			},
			Fit: func(s snapshot.Snapshot, _ estimator.Estimates) float32 {
				return clamp(0.4 + 0.3*(1-s.EnergyLevel))
			},
		},
	}
}

// Minimal returns the lowest-demand strategy, used as the graceful
// degradation fallback when a dependency is unavailable.
func (c Catalog) Minimal() Profile {
	best, ok := c[MicroNudge]
	if ok {
		return best
	}
	for _, id := range All {
		if p, ok := c[id]; ok {
			if best.ID == "" || p.CognitiveDemand < best.CognitiveDemand {
				best = p
			}
		}
	}
	return best
}

// #endregion catalog

// clamp bounds v to [0,1].
func clamp(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
