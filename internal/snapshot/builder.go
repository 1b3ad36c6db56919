package snapshot

import (
	"fmt"
	"time"
)

// MaxRecentActivities bounds the activity window kept on a snapshot.
// Older entries are dropped from the front (the sequence is most-recent-last).
const MaxRecentActivities = 20

// MaxFocusMinutes is the declared upper range for the focus streak signal.
const MaxFocusMinutes = 480

// #region validation-error
// ValidationError reports a supplied field with an invalid value.
// Missing fields never produce one; they take defaults instead.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

func rangeError(field string, value, min, max float32) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("value %.4f outside [%.1f, %.1f]", value, min, max),
	}
}

// #endregion validation-error

// #region builder
// Builder normalizes raw signals into canonical snapshots.
type Builder struct {
	defaults Defaults
}

// NewBuilder creates a builder with the given default table.
func NewBuilder(defaults Defaults) *Builder {
	return &Builder{defaults: defaults}
}

// Build produces a fully-populated Snapshot from raw signals.
// now is used when time_of_day is not supplied.
func (b *Builder) Build(raw Raw, now time.Time) (Snapshot, error) {
	s := Snapshot{
		CognitiveLoad:         b.defaults.CognitiveLoad,
		EnergyLevel:           b.defaults.EnergyLevel,
		AttentionLevel:        b.defaults.AttentionLevel,
		StressLevel:           b.defaults.StressLevel,
		FocusState:            b.defaults.FocusState,
		TimeOfDay:             now,
		TaskComplexity:        b.defaults.TaskComplexity,
		TimePressure:          b.defaults.TimePressure,
		InterruptionFrequency: b.defaults.InterruptionFrequency,
		MentalFatigue:         b.defaults.MentalFatigue,
		FocusMinutes:          b.defaults.FocusMinutes,
		InterruptionCost:      b.defaults.InterruptionCost,
		GoalProgress:          b.defaults.GoalProgress,
	}

	unit := []struct {
		name string
		src  *float32
		dst  *float32
	}{
		{"cognitive_load", raw.CognitiveLoad, &s.CognitiveLoad},
		{"energy_level", raw.EnergyLevel, &s.EnergyLevel},
		{"attention_level", raw.AttentionLevel, &s.AttentionLevel},
		{"stress_level", raw.StressLevel, &s.StressLevel},
		{"task_complexity", raw.TaskComplexity, &s.TaskComplexity},
		{"time_pressure", raw.TimePressure, &s.TimePressure},
		{"interruption_frequency", raw.InterruptionFrequency, &s.InterruptionFrequency},
		{"mental_fatigue", raw.MentalFatigue, &s.MentalFatigue},
		{"interruption_cost", raw.InterruptionCost, &s.InterruptionCost},
		{"goal_progress", raw.GoalProgress, &s.GoalProgress},
	}
	for _, f := range unit {
		if f.src == nil {
			continue
		}
		if *f.src < 0 || *f.src > 1 {
			return Snapshot{}, rangeError(f.name, *f.src, 0, 1)
		}
		*f.dst = *f.src
	}

	if raw.FocusMinutes != nil {
		if *raw.FocusMinutes < 0 || *raw.FocusMinutes > MaxFocusMinutes {
			return Snapshot{}, rangeError("focus_minutes", *raw.FocusMinutes, 0, MaxFocusMinutes)
		}
		s.FocusMinutes = *raw.FocusMinutes
	}

	if raw.FocusState != nil {
		fs := FocusState(*raw.FocusState)
		switch fs {
		case FocusFocused, FocusDistracted, FocusFatigued, FocusFlow, FocusOverwhelmed:
			s.FocusState = fs
		default:
			return Snapshot{}, &ValidationError{Field: "focus_state", Reason: fmt.Sprintf("unknown state %q", *raw.FocusState)}
		}
	}

	if raw.TimeOfDay != nil {
		s.TimeOfDay = *raw.TimeOfDay
	}

	if n := len(raw.RecentActivities); n > 0 {
		start := 0
		if n > MaxRecentActivities {
			start = n - MaxRecentActivities
		}
		s.RecentActivities = append([]string(nil), raw.RecentActivities[start:]...)
	}
	if len(raw.ActiveGoals) > 0 {
		s.ActiveGoals = append([]string(nil), raw.ActiveGoals...)
	}

	return s, nil
}

// #endregion builder
