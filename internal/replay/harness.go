// Package replay re-runs recorded decision timelines against a fresh
// in-memory pipeline, checking each step against its expected result.
// Deterministic by construction: fixture timestamps drive a fake clock.
package replay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ferrisk/coachd/internal/coach"
	"github.com/ferrisk/coachd/internal/feedback"
	"github.com/ferrisk/coachd/internal/profile"
)

// #region types

// StepResult captures the outcome of replaying one fixture step.
type StepResult struct {
	StepID string
	Kind   string

	// Decide steps.
	Action      string // "intervene" | "defer"
	Reason      string
	Strategy    string
	Receptivity float32

	// Outcome steps.
	OutcomeErr string

	// Match is false when an expectation was set and not met.
	Match    bool
	Mismatch string
}

// Summary aggregates a replay run.
type Summary struct {
	TotalSteps    int
	Interventions int
	Defers        int
	Outcomes      int
	Mismatches    int
}

// #endregion types

// #region harness

// Replay runs every fixture step through a fresh in-memory pipeline.
// Setup failures return an error; per-step divergence is reported in the
// results, not as an error.
func Replay(f *Fixture) ([]StepResult, error) {
	store, err := profile.NewStore(":memory:")
	if err != nil {
		return nil, fmt.Errorf("replay store: %w", err)
	}
	defer store.Close()

	if len(f.Steps) == 0 {
		return nil, nil
	}

	clock := coach.NewFakeClock(f.Steps[0].At)
	o, err := coach.New(coach.Options{Store: store, Clock: clock, Logger: zerolog.Nop()})
	if err != nil {
		return nil, fmt.Errorf("replay orchestrator: %w", err)
	}

	interventionByStep := map[string]string{} // decide step id → intervention id
	results := make([]StepResult, 0, len(f.Steps))

	for _, st := range f.Steps {
		clock.Set(st.At)
		r := StepResult{StepID: st.StepID, Kind: st.Kind, Match: true}

		switch st.Kind {
		case "decide":
			res, err := o.Decide(context.Background(), st.UserID, *st.Context)
			if err != nil {
				r.Action = "defer"
				r.Reason = "invalid_context"
			} else if res.Deferred {
				r.Action = "defer"
				r.Reason = string(res.Reason)
				r.Receptivity = res.Receptivity
			} else {
				r.Action = "intervene"
				r.Strategy = string(res.Intervention.StrategyID)
				r.Receptivity = res.Receptivity
				interventionByStep[st.StepID] = res.InterventionID
			}
			checkExpected(&r, st.Expected)

		case "outcome":
			ivID, ok := interventionByStep[st.RefStep]
			if !ok {
				r.Match = false
				r.Mismatch = fmt.Sprintf("ref_step %s produced no intervention", st.RefStep)
				break
			}
			err := o.RecordOutcome(ivID, feedback.Outcome{
				Engagement:   st.Outcome.Engagement,
				Completed:    st.Outcome.Completed,
				Satisfaction: st.Outcome.Satisfaction,
			})
			if err != nil {
				r.OutcomeErr = err.Error()
				r.Match = false
				r.Mismatch = "outcome rejected: " + err.Error()
			}
		}

		results = append(results, r)
	}

	return results, nil
}

// checkExpected compares a decide result against its expectation, if any.
func checkExpected(r *StepResult, exp *FixtureExpected) {
	if exp == nil {
		return
	}
	if exp.Action != "" && exp.Action != r.Action {
		r.Match = false
		r.Mismatch = fmt.Sprintf("action %s, expected %s", r.Action, exp.Action)
		return
	}
	if exp.Reason != "" && exp.Reason != r.Reason {
		r.Match = false
		r.Mismatch = fmt.Sprintf("reason %s, expected %s", r.Reason, exp.Reason)
		return
	}
	if exp.Strategy != "" && exp.Strategy != r.Strategy {
		r.Match = false
		r.Mismatch = fmt.Sprintf("strategy %s, expected %s", r.Strategy, exp.Strategy)
	}
}

// Summarize computes aggregate stats from step results.
func Summarize(results []StepResult) Summary {
	s := Summary{TotalSteps: len(results)}
	for _, r := range results {
		switch {
		case r.Kind == "outcome":
			s.Outcomes++
		case r.Action == "intervene":
			s.Interventions++
		default:
			s.Defers++
		}
		if !r.Match {
			s.Mismatches++
		}
	}
	return s
}

// #endregion harness
