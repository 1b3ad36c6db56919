package replay

import (
	"testing"
	"time"

	"github.com/ferrisk/coachd/internal/snapshot"
)

func f32(v float32) *float32 { return &v }
func strp(v string) *string  { return &v }

func receptiveContext() *snapshot.Raw {
	return &snapshot.Raw{
		CognitiveLoad:  f32(0.2),
		AttentionLevel: f32(0.9),
		StressLevel:    f32(0.2),
	}
}

func TestReplayTimelineMatchesExpectations(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	f := &Fixture{
		Description: "intervene, cooldown defer, outcome, recover",
		Steps: []FixtureStep{
			{
				StepID: "s1", Kind: "decide", UserID: "alice", At: at,
				Context:  receptiveContext(),
				Expected: &FixtureExpected{Action: "intervene"},
			},
			{
				StepID: "s2", Kind: "decide", UserID: "alice", At: at.Add(5 * time.Minute),
				Context:  receptiveContext(),
				Expected: &FixtureExpected{Action: "defer", Reason: "cooldown"},
			},
			{
				StepID: "s3", Kind: "outcome", UserID: "alice", At: at.Add(20 * time.Minute),
				RefStep: "s1",
				Outcome: &FixtureOutcome{Engagement: 0.9, Completed: true, Satisfaction: 0.8},
			},
			{
				StepID: "s4", Kind: "decide", UserID: "alice", At: at.Add(45 * time.Minute),
				Context:  receptiveContext(),
				Expected: &FixtureExpected{Action: "intervene"},
			},
		},
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	results, err := Replay(f)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	for _, r := range results {
		if !r.Match {
			t.Fatalf("step %s diverged: %s", r.StepID, r.Mismatch)
		}
	}

	s := Summarize(results)
	if s.Interventions != 2 || s.Defers != 1 || s.Outcomes != 1 || s.Mismatches != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestReplayReportsStrategyMismatch(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ctx := receptiveContext()
	ctx.StressLevel = f32(0.8) // stress_management territory

	f := &Fixture{
		Steps: []FixtureStep{
			{
				StepID: "s1", Kind: "decide", UserID: "alice", At: at,
				Context:  ctx,
				Expected: &FixtureExpected{Action: "intervene", Strategy: "micro_nudge"},
			},
		},
	}

	results, err := Replay(f)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if results[0].Match {
		t.Fatalf("expected a strategy mismatch, got %+v", results[0])
	}
	if results[0].Strategy != "stress_management" {
		t.Fatalf("replayed strategy = %s, want stress_management", results[0].Strategy)
	}
}

func TestReplayFlowProtection(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ctx := receptiveContext()
	ctx.FocusState = strp("flow")
	ctx.InterruptionCost = f32(0.9)

	f := &Fixture{
		Steps: []FixtureStep{
			{
				StepID: "s1", Kind: "decide", UserID: "alice", At: at,
				Context:  ctx,
				Expected: &FixtureExpected{Action: "defer", Reason: "flow_protection"},
			},
		},
	}

	results, err := Replay(f)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !results[0].Match {
		t.Fatalf("step diverged: %s", results[0].Mismatch)
	}
}

func TestReplayEmptyFixture(t *testing.T) {
	results, err := Replay(&Fixture{})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
