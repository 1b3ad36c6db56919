package feedback

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ferrisk/coachd/internal/profile"
)

// ErrDuplicateFeedback is returned when an outcome was already recorded for
// an intervention; the first outcome wins, later ones are rejected. Expired
// interventions report profile.ErrInterventionNotFound instead.
var ErrDuplicateFeedback = errors.New("feedback already recorded")

// ErrOutcomeOutOfRange is returned when a score falls outside [0,1].
var ErrOutcomeOutOfRange = errors.New("outcome score out of range")

// #region outcome
// Outcome is the observed user response to one intervention.
type Outcome struct {
	// Engagement in [0,1]: did the user interact with the nudge at all.
	Engagement float32 `json:"engagement"`
	// Completed: the suggested action was carried through.
	Completed bool `json:"completed"`
	// Satisfaction in [0,1]: self-reported usefulness.
	Satisfaction float32 `json:"satisfaction"`
}

// Reward folds the outcome into the scalar the weight update consumes.
func (o Outcome) Reward(c Config) float32 {
	completed := float32(0)
	if o.Completed {
		completed = 1
	}
	return c.EngagementWeight*o.Engagement +
		c.CompletionWeight*completed +
		c.SatisfactionWeight*o.Satisfaction
}

// #endregion outcome

// #region config
// Config holds the learning-rate and backoff knobs. The reward weights sum
// to 1 so the reward stays in [0,1].
type Config struct {
	Alpha              float32 // EMA learning rate
	EngagementWeight   float32
	CompletionWeight   float32
	SatisfactionWeight float32

	// DismissalThreshold: an ignored outcome with engagement below this is
	// treated as a dismissal and grows the user's cooldown backoff.
	DismissalThreshold float32
	BackoffGrowth      float32 // multiplier applied on dismissal
	MaxBackoff         float32
}

// DefaultConfig returns the documented feedback defaults.
func DefaultConfig() Config {
	return Config{
		Alpha:              0.1,
		EngagementWeight:   0.5,
		CompletionWeight:   0.3,
		SatisfactionWeight: 0.2,
		DismissalThreshold: 0.2,
		BackoffGrowth:      1.5,
		MaxBackoff:         4.0,
	}
}

// #endregion config

// #region tracker
// Tracker applies outcome feedback to stored profiles. Weight updates run
// under the same per-user lock the decision path uses, so a concurrent
// decision never reads a half-applied update.
type Tracker struct {
	store  *profile.Store
	locks  *profile.LockMap
	config Config
	now    func() time.Time
	log    zerolog.Logger
}

// NewTracker creates a tracker over the shared store and lock table. now is
// the clock source; pass time.Now outside tests.
func NewTracker(store *profile.Store, locks *profile.LockMap, config Config, now func() time.Time, log zerolog.Logger) *Tracker {
	return &Tracker{store: store, locks: locks, config: config, now: now, log: log}
}

// RecordOutcome folds one outcome into the user's strategy weights and
// transitions the intervention's lifecycle state.
//
// The weight update is an exponential moving average:
//
//	new = (1-alpha)*old + alpha*reward
//
// so one bad outcome nudges rather than cliffs, and a strategy's weight
// stays within [0,1] whenever it starts there.
func (t *Tracker) RecordOutcome(interventionID string, outcome Outcome) error {
	if outcome.Engagement < 0 || outcome.Engagement > 1 {
		return fmt.Errorf("engagement %f: %w", outcome.Engagement, ErrOutcomeOutOfRange)
	}
	if outcome.Satisfaction < 0 || outcome.Satisfaction > 1 {
		return fmt.Errorf("satisfaction %f: %w", outcome.Satisfaction, ErrOutcomeOutOfRange)
	}

	rec, err := t.store.GetIntervention(interventionID)
	if err != nil {
		return err
	}

	return t.locks.WithLock(rec.UserID, func() error {
		// Re-read under the lock; a racing outcome may have landed first.
		rec, err := t.store.GetIntervention(interventionID)
		if err != nil {
			return err
		}
		// An expired intervention never absorbed feedback; for callers it
		// is gone, not double-reported.
		if rec.Status == profile.StatusExpired {
			return fmt.Errorf("intervention %s expired: %w", rec.ID, profile.ErrInterventionNotFound)
		}
		if rec.Status != profile.StatusPending && rec.Status != profile.StatusDelivered {
			return fmt.Errorf("intervention %s is %s: %w", rec.ID, rec.Status, ErrDuplicateFeedback)
		}

		p, err := t.store.LoadProfile(rec.UserID)
		if err != nil {
			return err
		}

		reward := outcome.Reward(t.config)
		old, ok := p.StrategyWeights[rec.StrategyID]
		if !ok {
			old = 0.5
		}
		updated := (1-t.config.Alpha)*old + t.config.Alpha*reward
		p.StrategyWeights[rec.StrategyID] = updated

		status := profile.StatusIgnored
		if outcome.Completed {
			status = profile.StatusCompleted
		}

		// Dismissal backoff: repeated low-engagement dismissals stretch the
		// user's cooldown; any completion walks it back toward 1.
		switch {
		case status == profile.StatusIgnored && outcome.Engagement < t.config.DismissalThreshold:
			p.CooldownFactor *= t.config.BackoffGrowth
			if p.CooldownFactor > t.config.MaxBackoff {
				p.CooldownFactor = t.config.MaxBackoff
			}
		case status == profile.StatusCompleted:
			p.CooldownFactor /= t.config.BackoffGrowth
			if p.CooldownFactor < 1 {
				p.CooldownFactor = 1
			}
		}

		p.UpdatedAt = t.now().UTC()
		if err := t.store.SaveProfile(p); err != nil {
			return err
		}
		if err := t.store.SetInterventionStatus(rec.ID, status); err != nil {
			return err
		}

		t.log.Info().
			Str("user_id", rec.UserID).
			Str("intervention_id", rec.ID).
			Str("strategy", string(rec.StrategyID)).
			Str("status", string(status)).
			Float32("reward", reward).
			Float32("weight", updated).
			Msg("outcome recorded")
		return nil
	})
}

// #endregion tracker
