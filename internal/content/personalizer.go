package content

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ferrisk/coachd/internal/estimator"
	"github.com/ferrisk/coachd/internal/snapshot"
	"github.com/ferrisk/coachd/internal/strategy"
)

// #region personalizer
// Personalizer turns a selected strategy plus context into a concrete
// intervention payload. Message text is delegated to the provider; slot
// choice, parameters, action steps, and metrics are assembled here,
// deterministically.
type Personalizer struct {
	provider Provider
	fallback *StaticProvider
}

// NewPersonalizer creates a personalizer over the given provider.
func NewPersonalizer(provider Provider) *Personalizer {
	return &Personalizer{provider: provider, fallback: NewStaticProvider()}
}

// Personalize builds the intervention for a gated-through strategy.
// Provider failures are returned wrapped (ErrProviderUnavailable) so the
// orchestrator can degrade; every other part of the payload is local.
func (p *Personalizer) Personalize(
	ctx context.Context,
	strat strategy.Profile,
	s snapshot.Snapshot,
	est estimator.Estimates,
	traits map[string]float32,
) (Intervention, error) {
	slot := pickSlot(strat, s)
	params := buildParams(s, est, traits)
	steps := actionSteps(strat.ID, s, est, traits)

	msg, err := p.provider.Render(ctx, slot, params)
	if err != nil {
		return Intervention{}, fmt.Errorf("personalize %s: %w", strat.ID, err)
	}

	return Intervention{
		StrategyID:    strat.ID,
		MessageSlotID: slot,
		Message:       msg,
		Params:        params,
		ActionSteps:   steps,
		Metrics:       successMetrics(strat.ID),
	}, nil
}

// Minimal builds the degraded fallback intervention entirely locally: the
// lowest-demand strategy rendered from the static table, no external lookup.
func (p *Personalizer) Minimal(
	strat strategy.Profile,
	s snapshot.Snapshot,
	est estimator.Estimates,
) Intervention {
	slot := pickSlot(strat, s)
	params := buildParams(s, est, nil)
	msg, _ := p.fallback.Render(context.Background(), slot, params) // static render cannot fail

	return Intervention{
		StrategyID:    strat.ID,
		MessageSlotID: slot,
		Message:       msg,
		Params:        params,
		ActionSteps:   actionSteps(strat.ID, s, est, nil),
		Metrics:       successMetrics(strat.ID),
	}
}

// #endregion personalizer

// #region slot-selection

// pickSlot chooses among the strategy's slots by rotating on stable context
// features. Variety without randomness: identical context, identical slot.
func pickSlot(strat strategy.Profile, s snapshot.Snapshot) string {
	if len(strat.Slots) == 0 {
		return "generic"
	}
	idx := (s.TimeOfDay.Hour()*7 + len(s.RecentActivities)) % len(strat.Slots)
	return strat.Slots[idx]
}

// #endregion slot-selection

// #region params

// buildParams assembles the provider parameter map.
func buildParams(s snapshot.Snapshot, est estimator.Estimates, traits map[string]float32) map[string]string {
	task := "your current task"
	if len(s.ActiveGoals) > 0 {
		task = s.ActiveGoals[0]
	}
	return map[string]string{
		"task":     task,
		"duration": strconv.Itoa(blockMinutes(est, traits)),
	}
}

// blockMinutes scales the core focus-block length by attention capacity and
// the user's ambition trait: 15 minutes floor, ~35 ceiling.
func blockMinutes(est estimator.Estimates, traits map[string]float32) int {
	base := 15 + 20*est.Attention
	scale := 0.8 + 0.4*trait(traits, "ambition")
	return int(base * scale)
}

// trait reads a trait weight, defaulting to the neutral 0.5.
func trait(traits map[string]float32, name string) float32 {
	if traits == nil {
		return 0.5
	}
	v, ok := traits[name]
	if !ok {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion params

// #region action-steps

// actionSteps expands the strategy's fixed step template with interpolated
// durations and trait-biased difficulty.
func actionSteps(id strategy.ID, s snapshot.Snapshot, est estimator.Estimates, traits map[string]float32) []ActionStep {
	block := time.Duration(blockMinutes(est, traits)) * time.Minute
	// Structured users tolerate slightly harder asks.
	diff := func(base float32) float32 {
		d := base * (0.85 + 0.3*trait(traits, "structure"))
		if d > 1 {
			return 1
		}
		return d
	}

	switch id {
	case strategy.MicroNudge:
		return []ActionStep{
			{Description: "Step away from the screen for a moment", TimeEstimate: 2 * time.Minute, Difficulty: diff(0.1)},
			{Description: "Jot down the one thing to resume on", TimeEstimate: time.Minute, Difficulty: diff(0.1)},
		}
	case strategy.HabitFormation:
		return []ActionStep{
			{Description: "Pick a daily anchor for the habit", TimeEstimate: 3 * time.Minute, Difficulty: diff(0.3)},
			{Description: "Do a starter session right after the anchor", TimeEstimate: 10 * time.Minute, Difficulty: diff(0.4)},
			{Description: "Mark the streak", TimeEstimate: time.Minute, Difficulty: diff(0.1)},
		}
	case strategy.MotivationBoost:
		return []ActionStep{
			{Description: "Review what already moved forward today", TimeEstimate: 3 * time.Minute, Difficulty: diff(0.2)},
			{Description: "Pick the smallest next action and start it", TimeEstimate: 5 * time.Minute, Difficulty: diff(0.3)},
		}
	case strategy.FocusEnhancement:
		return []ActionStep{
			{Description: "Close everything unrelated to the task", TimeEstimate: 2 * time.Minute, Difficulty: diff(0.2)},
			{Description: "Run a single-task focus block", TimeEstimate: block, Difficulty: diff(0.5)},
			{Description: "Note what pulled at your attention", TimeEstimate: 2 * time.Minute, Difficulty: diff(0.2)},
		}
	case strategy.StressManagement:
		return []ActionStep{
			{Description: "Slow breathing, in four counts, out six", TimeEstimate: 3 * time.Minute, Difficulty: diff(0.1)},
			{Description: "Write down the single biggest stressor", TimeEstimate: 2 * time.Minute, Difficulty: diff(0.2)},
			{Description: "Triage just that one item", TimeEstimate: 10 * time.Minute, Difficulty: diff(0.4)},
		}
	case strategy.DeepWorkProtection:
		return []ActionStep{
			{Description: "Block the next stretch on your calendar", TimeEstimate: 2 * time.Minute, Difficulty: diff(0.2)},
			{Description: "Silence notifications until the block ends", TimeEstimate: time.Minute, Difficulty: diff(0.1)},
		}
	case strategy.Reflection:
		return []ActionStep{
			{Description: "Look back over what the day produced", TimeEstimate: 5 * time.Minute, Difficulty: diff(0.3)},
			{Description: "Write down one thing that went well", TimeEstimate: 2 * time.Minute, Difficulty: diff(0.2)},
			{Description: "Choose tomorrow's first task", TimeEstimate: 3 * time.Minute, Difficulty: diff(0.2)},
		}
	default:
		return []ActionStep{
			{Description: "Take a short reset", TimeEstimate: 2 * time.Minute, Difficulty: diff(0.1)},
		}
	}
}

// #endregion action-steps

// #region success-metrics

// successMetrics returns the measurable criteria for each strategy.
func successMetrics(id strategy.ID) []SuccessMetric {
	switch id {
	case strategy.MicroNudge:
		return []SuccessMetric{
			{Name: "break_taken", Description: "user stepped away within the valid window"},
		}
	case strategy.HabitFormation:
		return []SuccessMetric{
			{Name: "anchor_chosen", Description: "a daily anchor was recorded"},
			{Name: "streak_day_logged", Description: "the streak advanced by one day"},
		}
	case strategy.MotivationBoost:
		return []SuccessMetric{
			{Name: "next_action_started", Description: "the smallest next action was begun"},
		}
	case strategy.FocusEnhancement:
		return []SuccessMetric{
			{Name: "focus_block_completed", Description: "the focus block ran to its full length"},
			{Name: "context_switches_reduced", Description: "fewer app switches during the block"},
		}
	case strategy.StressManagement:
		return []SuccessMetric{
			{Name: "stress_reported_lower", Description: "self-reported stress dropped on the next snapshot"},
		}
	case strategy.DeepWorkProtection:
		return []SuccessMetric{
			{Name: "block_protected", Description: "the deep-work block survived uninterrupted"},
		}
	case strategy.Reflection:
		return []SuccessMetric{
			{Name: "reflection_logged", Description: "a reflection entry was written"},
		}
	default:
		return []SuccessMetric{
			{Name: "acknowledged", Description: "the intervention was acknowledged"},
		}
	}
}

// #endregion success-metrics
