// Package estimator holds the pure state estimators. Each estimator maps a
// context snapshot to a bounded [0,1] score; no side effects, deterministic
// for identical input.
package estimator

import "github.com/ferrisk/coachd/internal/snapshot"

// #region config
// Config holds the tunable weight tables for all three estimators.
type Config struct {
	// Cognitive load: weighted sum over the four load proxies.
	ComplexityWeight   float32
	PressureWeight     float32
	InterruptionWeight float32
	FatigueWeight      float32

	// Attention: base from the current focus streak, adjusted by stress
	// and energy.
	FullFocusMinutes float32 // streak length that counts as full base attention
	StressPenalty    float32
	EnergyBonus      float32
}

// DefaultConfig returns the documented default weight tables.
func DefaultConfig() Config {
	return Config{
		ComplexityWeight:   0.4,
		PressureWeight:     0.3,
		InterruptionWeight: 0.2,
		FatigueWeight:      0.1,
		FullFocusMinutes:   45,
		StressPenalty:      0.3,
		EnergyBonus:        0.2,
	}
}

// #endregion config

// #region estimates
// Estimates bundles the three estimator outputs for one snapshot.
type Estimates struct {
	CognitiveLoad float32
	Attention     float32
	Motivation    float32
}

// EstimateAll runs every estimator against the snapshot.
func EstimateAll(s snapshot.Snapshot, cfg Config) Estimates {
	return Estimates{
		CognitiveLoad: CognitiveLoad(s, cfg),
		Attention:     Attention(s, cfg),
		Motivation:    Motivation(s),
	}
}

// #endregion estimates

// #region cognitive-load
// CognitiveLoad estimates working-memory pressure as the weighted sum of the
// four load proxies. The caller-reported cognitive_load field feeds the
// readiness gate directly and plays no part here.
func CognitiveLoad(s snapshot.Snapshot, cfg Config) float32 {
	return clamp(cfg.ComplexityWeight*s.TaskComplexity +
		cfg.PressureWeight*s.TimePressure +
		cfg.InterruptionWeight*s.InterruptionFrequency +
		cfg.FatigueWeight*s.MentalFatigue)
}

// #endregion cognitive-load

// #region attention
// Attention estimates sustained attention capacity.
// base comes from the current focus streak; stress subtracts, energy adds.
func Attention(s snapshot.Snapshot, cfg Config) float32 {
	base := s.FocusMinutes / cfg.FullFocusMinutes
	if base > 1 {
		base = 1
	}
	return clamp(base - cfg.StressPenalty*s.StressLevel + cfg.EnergyBonus*s.EnergyLevel)
}

// #endregion attention

// #region motivation
// Motivation averages autonomy, competence, and relatedness sub-scores.
// Autonomy suffers under time pressure and interruptions, competence tracks
// recent goal progress, relatedness tracks activity variety.
func Motivation(s snapshot.Snapshot) float32 {
	autonomy := clamp(1 - 0.5*s.TimePressure - 0.5*s.InterruptionFrequency)
	competence := clamp(s.GoalProgress)
	relatedness := activityVariety(s.RecentActivities)
	return clamp((autonomy + competence + relatedness) / 3)
}

// activityVariety is the unique/total ratio over the recent activity window.
// An empty window scores neutral.
func activityVariety(activities []string) float32 {
	if len(activities) == 0 {
		return 0.5
	}
	unique := make(map[string]struct{}, len(activities))
	for _, a := range activities {
		unique[a] = struct{}{}
	}
	return float32(len(unique)) / float32(len(activities))
}

// #endregion motivation

// #region helpers
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

// #endregion helpers
