package snapshot

import "time"

// #region focus-state
// FocusState classifies the user's current attentional mode.
type FocusState string

const (
	FocusFocused     FocusState = "focused"
	FocusDistracted  FocusState = "distracted"
	FocusFatigued    FocusState = "fatigued"
	FocusFlow        FocusState = "flow"
	FocusOverwhelmed FocusState = "overwhelmed"
)

// #endregion focus-state

// #region raw
// Raw is the loosely-structured per-request signal set as supplied by the
// caller. Nil pointers mean "not reported"; the builder substitutes defaults.
type Raw struct {
	CognitiveLoad         *float32   `json:"cognitive_load,omitempty"`
	EnergyLevel           *float32   `json:"energy_level,omitempty"`
	AttentionLevel        *float32   `json:"attention_level,omitempty"`
	StressLevel           *float32   `json:"stress_level,omitempty"`
	FocusState            *string    `json:"focus_state,omitempty"`
	TimeOfDay             *time.Time `json:"time_of_day,omitempty"`
	RecentActivities      []string   `json:"recent_activities,omitempty"`
	ActiveGoals           []string   `json:"active_goals,omitempty"`
	TaskComplexity        *float32   `json:"task_complexity,omitempty"`
	TimePressure          *float32   `json:"time_pressure,omitempty"`
	InterruptionFrequency *float32   `json:"interruption_frequency,omitempty"`
	MentalFatigue         *float32   `json:"mental_fatigue,omitempty"`
	FocusMinutes          *float32   `json:"focus_minutes,omitempty"`
	InterruptionCost      *float32   `json:"interruption_cost,omitempty"`
	GoalProgress          *float32   `json:"goal_progress,omitempty"`
}

// #endregion raw

// #region snapshot
// Snapshot is the canonical, fully-populated context record for one
// orchestration call. Built once per request and never mutated afterwards.
type Snapshot struct {
	CognitiveLoad  float32
	EnergyLevel    float32
	AttentionLevel float32
	StressLevel    float32
	FocusState     FocusState
	TimeOfDay      time.Time

	// Ordered most-recent-last, bounded to MaxRecentActivities.
	RecentActivities []string
	ActiveGoals      []string

	// Auxiliary signals consumed by the estimators.
	TaskComplexity        float32
	TimePressure          float32
	InterruptionFrequency float32
	MentalFatigue         float32
	FocusMinutes          float32 // length of the current focus streak
	InterruptionCost      float32 // estimated cost of breaking the streak
	GoalProgress          float32
}

// #endregion snapshot

// #region defaults
// Defaults holds the substitution values used for unreported fields.
// cognitive_load defaults to 0.5 per the documented default table.
type Defaults struct {
	CognitiveLoad         float32
	EnergyLevel           float32
	AttentionLevel        float32
	StressLevel           float32
	FocusState            FocusState
	TaskComplexity        float32
	TimePressure          float32
	InterruptionFrequency float32
	MentalFatigue         float32
	FocusMinutes          float32
	InterruptionCost      float32
	GoalProgress          float32
}

// DefaultDefaults returns the standard substitution table.
func DefaultDefaults() Defaults {
	return Defaults{
		CognitiveLoad:         0.5,
		EnergyLevel:           0.5,
		AttentionLevel:        0.5,
		StressLevel:           0.3,
		FocusState:            FocusFocused,
		TaskComplexity:        0.5,
		TimePressure:          0.3,
		InterruptionFrequency: 0.2,
		MentalFatigue:         0.3,
		FocusMinutes:          15,
		InterruptionCost:      0.3,
		GoalProgress:          0.5,
	}
}

// #endregion defaults
