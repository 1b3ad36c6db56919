package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ferrisk/coachd/internal/snapshot"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a recorded
// timeline of context submissions and outcome reports for one or more users.
type Fixture struct {
	Description string        `json:"description"`
	Steps       []FixtureStep `json:"steps"`
}

// FixtureStep is one timeline event. Kind selects which fields apply:
//
//	"decide"  — Context is submitted for UserID at time At
//	"outcome" — Outcome is reported for the intervention produced by RefStep
type FixtureStep struct {
	StepID string    `json:"step_id"`
	Kind   string    `json:"kind"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`

	Context *snapshot.Raw   `json:"context,omitempty"`
	RefStep string          `json:"ref_step,omitempty"`
	Outcome *FixtureOutcome `json:"outcome,omitempty"`

	Expected *FixtureExpected `json:"expected,omitempty"`
}

// FixtureOutcome mirrors feedback.Outcome with JSON tags.
type FixtureOutcome struct {
	Engagement   float32 `json:"engagement"`
	Completed    bool    `json:"completed"`
	Satisfaction float32 `json:"satisfaction"`
}

// FixtureExpected captures the expected decision for a "decide" step.
type FixtureExpected struct {
	Action   string `json:"action"` // "intervene" | "defer"
	Reason   string `json:"reason,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks structural requirements: monotone timestamps, known step
// kinds, and outcome references that point at an earlier decide step.
func (f *Fixture) Validate() error {
	seen := map[string]string{} // step id → kind
	var last time.Time
	for i, st := range f.Steps {
		if st.StepID == "" {
			return fmt.Errorf("step %d: missing step_id", i)
		}
		if _, dup := seen[st.StepID]; dup {
			return fmt.Errorf("step %s: duplicate step_id", st.StepID)
		}
		if st.At.Before(last) {
			return fmt.Errorf("step %s: timestamps must not go backwards", st.StepID)
		}
		last = st.At

		switch st.Kind {
		case "decide":
			if st.Context == nil {
				return fmt.Errorf("step %s: decide step needs a context", st.StepID)
			}
		case "outcome":
			if st.Outcome == nil {
				return fmt.Errorf("step %s: outcome step needs an outcome", st.StepID)
			}
			if kind, ok := seen[st.RefStep]; !ok || kind != "decide" {
				return fmt.Errorf("step %s: ref_step %q is not an earlier decide step", st.StepID, st.RefStep)
			}
		default:
			return fmt.Errorf("step %s: unknown kind %q", st.StepID, st.Kind)
		}
		seen[st.StepID] = st.Kind
	}
	return nil
}

// #endregion fixture-loader
