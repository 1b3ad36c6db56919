package feedback

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ferrisk/coachd/internal/profile"
	"github.com/ferrisk/coachd/internal/strategy"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T) (*Tracker, *profile.Store) {
	t.Helper()
	store, err := profile.NewStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	tr := NewTracker(store, profile.NewLockMap(), DefaultConfig(),
		func() time.Time { return testNow }, zerolog.Nop())
	return tr, store
}

func seedIntervention(t *testing.T, store *profile.Store, id string, status profile.Status) {
	t.Helper()
	if _, err := store.LoadOrCreateProfile("alice", testNow); err != nil {
		t.Fatalf("profile: %v", err)
	}
	window := 30 * time.Minute
	err := store.AppendIntervention(profile.InterventionRecord{
		ID:          id,
		UserID:      "alice",
		StrategyID:  strategy.FocusEnhancement,
		Receptivity: 0.7,
		SlotID:      "focus_block",
		OptimalTime: testNow.Add(5 * time.Minute),
		ValidWindow: window,
		Status:      status,
		CreatedAt:   testNow,
		ExpiresAt:   testNow.Add(window * 4),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestRecordOutcomeExactEMA(t *testing.T) {
	tr, store := newTestTracker(t)
	seedIntervention(t, store, "iv-1", profile.StatusDelivered)

	// reward = 0.5*0.8 + 0.3*1 + 0.2*0.9 = 0.88
	// weight = 0.9*0.5 + 0.1*0.88 = 0.538
	err := tr.RecordOutcome("iv-1", Outcome{Engagement: 0.8, Completed: true, Satisfaction: 0.9})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	p, err := store.LoadProfile("alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := p.StrategyWeights[strategy.FocusEnhancement]
	if math.Abs(float64(got)-0.538) > 1e-5 {
		t.Fatalf("weight = %f, want 0.538", got)
	}

	rec, _ := store.GetIntervention("iv-1")
	if rec.Status != profile.StatusCompleted {
		t.Fatalf("status = %s, want completed", rec.Status)
	}
}

func TestRecordOutcomeIgnored(t *testing.T) {
	tr, store := newTestTracker(t)
	seedIntervention(t, store, "iv-1", profile.StatusDelivered)

	// reward = 0.5*0.1 = 0.05; weight = 0.9*0.5 + 0.1*0.05 = 0.455
	err := tr.RecordOutcome("iv-1", Outcome{Engagement: 0.1})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	p, _ := store.LoadProfile("alice")
	got := p.StrategyWeights[strategy.FocusEnhancement]
	if math.Abs(float64(got)-0.455) > 1e-5 {
		t.Fatalf("weight = %f, want 0.455", got)
	}

	rec, _ := store.GetIntervention("iv-1")
	if rec.Status != profile.StatusIgnored {
		t.Fatalf("status = %s, want ignored", rec.Status)
	}
}

func TestDuplicateFeedbackRejected(t *testing.T) {
	tr, store := newTestTracker(t)
	seedIntervention(t, store, "iv-1", profile.StatusDelivered)

	if err := tr.RecordOutcome("iv-1", Outcome{Engagement: 0.8, Completed: true}); err != nil {
		t.Fatalf("first record: %v", err)
	}
	err := tr.RecordOutcome("iv-1", Outcome{Engagement: 0.2})
	if !errors.Is(err, ErrDuplicateFeedback) {
		t.Fatalf("expected ErrDuplicateFeedback, got %v", err)
	}

	// The rejected outcome must not have touched the weights.
	p, _ := store.LoadProfile("alice")
	got := p.StrategyWeights[strategy.FocusEnhancement]
	if math.Abs(float64(got)-0.53) > 1e-5 { // 0.9*0.5 + 0.1*0.8
		t.Fatalf("weight changed by rejected feedback: %f", got)
	}
}

func TestUnknownIntervention(t *testing.T) {
	tr, _ := newTestTracker(t)
	err := tr.RecordOutcome("missing", Outcome{Engagement: 0.5})
	if !errors.Is(err, profile.ErrInterventionNotFound) {
		t.Fatalf("expected ErrInterventionNotFound, got %v", err)
	}
}

func TestExpiredInterventionTreatedAsAbsent(t *testing.T) {
	tr, store := newTestTracker(t)
	seedIntervention(t, store, "iv-exp", profile.StatusExpired)

	err := tr.RecordOutcome("iv-exp", Outcome{Engagement: 0.9, Completed: true})
	if !errors.Is(err, profile.ErrInterventionNotFound) {
		t.Fatalf("expected ErrInterventionNotFound, got %v", err)
	}
	if errors.Is(err, ErrDuplicateFeedback) {
		t.Fatalf("nothing was ever recorded, must not read as duplicate: %v", err)
	}

	p, _ := store.LoadProfile("alice")
	if got := p.StrategyWeights[strategy.FocusEnhancement]; got != strategy.InitialWeight {
		t.Fatalf("expired intervention must not touch weights, got %f", got)
	}
}

func TestOutcomeRangeValidation(t *testing.T) {
	tr, store := newTestTracker(t)
	seedIntervention(t, store, "iv-1", profile.StatusDelivered)

	for _, o := range []Outcome{
		{Engagement: -0.1},
		{Engagement: 1.1},
		{Engagement: 0.5, Satisfaction: 2},
	} {
		if err := tr.RecordOutcome("iv-1", o); !errors.Is(err, ErrOutcomeOutOfRange) {
			t.Fatalf("outcome %+v: expected ErrOutcomeOutOfRange, got %v", o, err)
		}
	}
}

func TestDismissalBackoffGrowsAndDecays(t *testing.T) {
	tr, store := newTestTracker(t)

	// Three low-engagement dismissals: 1.0 → 1.5 → 2.25 → 3.375.
	for i, id := range []string{"d1", "d2", "d3"} {
		seedIntervention(t, store, id, profile.StatusDelivered)
		if err := tr.RecordOutcome(id, Outcome{Engagement: 0.05}); err != nil {
			t.Fatalf("dismissal %d: %v", i, err)
		}
	}
	p, _ := store.LoadProfile("alice")
	if math.Abs(float64(p.CooldownFactor)-3.375) > 1e-5 {
		t.Fatalf("cooldown factor = %f, want 3.375", p.CooldownFactor)
	}

	// Many more dismissals saturate at the cap.
	for _, id := range []string{"d4", "d5", "d6"} {
		seedIntervention(t, store, id, profile.StatusDelivered)
		if err := tr.RecordOutcome(id, Outcome{Engagement: 0.0}); err != nil {
			t.Fatalf("dismissal: %v", err)
		}
	}
	p, _ = store.LoadProfile("alice")
	if p.CooldownFactor != 4.0 {
		t.Fatalf("cooldown factor = %f, want capped at 4.0", p.CooldownFactor)
	}

	// One completion walks the factor back.
	seedIntervention(t, store, "c1", profile.StatusDelivered)
	if err := tr.RecordOutcome("c1", Outcome{Engagement: 0.9, Completed: true}); err != nil {
		t.Fatalf("completion: %v", err)
	}
	p, _ = store.LoadProfile("alice")
	if p.CooldownFactor >= 4.0 {
		t.Fatalf("completion should decay the backoff, still %f", p.CooldownFactor)
	}
	if p.CooldownFactor < 1.0 {
		t.Fatalf("backoff fell below 1: %f", p.CooldownFactor)
	}
}

func TestEngagedIgnoreDoesNotGrowBackoff(t *testing.T) {
	tr, store := newTestTracker(t)
	seedIntervention(t, store, "iv-1", profile.StatusDelivered)

	// Engaged but not completed: no dismissal, no backoff growth.
	if err := tr.RecordOutcome("iv-1", Outcome{Engagement: 0.7}); err != nil {
		t.Fatalf("record: %v", err)
	}
	p, _ := store.LoadProfile("alice")
	if p.CooldownFactor != 1.0 {
		t.Fatalf("cooldown factor = %f, want unchanged 1.0", p.CooldownFactor)
	}
}
