// Package coach wires the decision pipeline: snapshot building, estimation,
// gating, strategy selection, personalization, timing, and persistence, all
// under a per-user lock.
package coach

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ferrisk/coachd/internal/audit"
	"github.com/ferrisk/coachd/internal/content"
	"github.com/ferrisk/coachd/internal/estimator"
	"github.com/ferrisk/coachd/internal/feedback"
	"github.com/ferrisk/coachd/internal/gate"
	"github.com/ferrisk/coachd/internal/profile"
	"github.com/ferrisk/coachd/internal/snapshot"
	"github.com/ferrisk/coachd/internal/strategy"
	"github.com/ferrisk/coachd/internal/timing"
)

// #region result
// Result is the outcome of one decision request. Exactly one of the two
// shapes applies: Deferred with a Reason, or an Intervention with its
// delivery plan.
type Result struct {
	Deferred    bool             `json:"deferred"`
	Reason      gate.DeferReason `json:"reason,omitempty"`
	Receptivity float32          `json:"receptivity"`

	InterventionID string                `json:"intervention_id,omitempty"`
	Intervention   *content.Intervention `json:"intervention,omitempty"`
	OptimalTime    time.Time             `json:"optimal_time,omitempty"`
	ValidWindow    time.Duration         `json:"valid_window,omitempty"`

	// Degraded marks a minimal fallback produced while a dependency was
	// unavailable.
	Degraded bool `json:"degraded,omitempty"`
}

// #endregion result

// #region orchestrator
// Orchestrator owns the decision pipeline. All per-user mutation funnels
// through the shared lock map, so gate evaluation, history append, and
// weight updates never interleave for one user.
type Orchestrator struct {
	builder      *snapshot.Builder
	estConfig    estimator.Config
	gate         *gate.Gate
	selector     *strategy.Selector
	personalizer *content.Personalizer
	optimizer    *timing.Optimizer
	store        *profile.Store
	locks        *profile.LockMap
	tracker      *feedback.Tracker
	trail        *audit.Log
	clock        Clock
	log          zerolog.Logger
}

// Options bundles the orchestrator's collaborators. Zero-value fields take
// documented defaults; Store is required.
type Options struct {
	Store    *profile.Store
	Locks    *profile.LockMap
	Provider content.Provider
	Clock    Clock
	Logger   zerolog.Logger

	GateConfig      gate.Config
	EstimatorConfig estimator.Config
	TimingConfig    timing.Config
	FeedbackConfig  feedback.Config
	Catalog         strategy.Catalog
}

// New assembles an orchestrator from options.
func New(opts Options) (*Orchestrator, error) {
	if opts.Locks == nil {
		opts.Locks = profile.NewLockMap()
	}
	if opts.Provider == nil {
		opts.Provider = content.NewStaticProvider()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.GateConfig == (gate.Config{}) {
		opts.GateConfig = gate.DefaultConfig()
	}
	if opts.EstimatorConfig == (estimator.Config{}) {
		opts.EstimatorConfig = estimator.DefaultConfig()
	}
	if opts.TimingConfig == (timing.Config{}) {
		opts.TimingConfig = timing.DefaultConfig()
	}
	if opts.FeedbackConfig == (feedback.Config{}) {
		opts.FeedbackConfig = feedback.DefaultConfig()
	}
	if opts.Catalog == nil {
		opts.Catalog = strategy.DefaultCatalog()
	}

	trail, err := audit.NewLog(opts.Store.DB())
	if err != nil {
		return nil, err
	}

	clock := opts.Clock
	return &Orchestrator{
		builder:      snapshot.NewBuilder(snapshot.DefaultDefaults()),
		estConfig:    opts.EstimatorConfig,
		gate:         gate.NewGate(opts.GateConfig),
		selector:     strategy.NewSelector(opts.Catalog),
		personalizer: content.NewPersonalizer(opts.Provider),
		optimizer:    timing.NewOptimizer(opts.TimingConfig),
		store:        opts.Store,
		locks:        opts.Locks,
		tracker:      feedback.NewTracker(opts.Store, opts.Locks, opts.FeedbackConfig, clock.Now, opts.Logger),
		trail:        trail,
		clock:        clock,
		log:          opts.Logger,
	}, nil
}

// #endregion orchestrator

// #region decide

// Decide runs the full pipeline for one context snapshot. Invalid raw input
// is the only error path; dependency failures degrade to a minimal
// intervention instead of failing the request.
func (o *Orchestrator) Decide(ctx context.Context, userID string, raw snapshot.Raw) (Result, error) {
	now := o.clock.Now()
	s, err := o.builder.Build(raw, now)
	if err != nil {
		return Result{}, err
	}

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		rawJSON = []byte("{}")
	}

	var res Result
	lockErr := o.locks.WithLock(userID, func() error {
		res = o.decideLocked(ctx, userID, s, string(rawJSON), now)
		return nil
	})
	if lockErr != nil {
		return Result{}, lockErr
	}
	return res, nil
}

func (o *Orchestrator) decideLocked(ctx context.Context, userID string, s snapshot.Snapshot, rawJSON string, now time.Time) Result {
	if _, err := o.store.ExpireStale(now); err != nil {
		o.log.Warn().Err(err).Msg("expire stale interventions")
	}

	p, err := o.store.LoadOrCreateProfile(userID, now)
	if err != nil {
		o.log.Error().Err(err).Str("user_id", userID).Msg("profile load failed, degrading")
		return o.degraded(userID, s, rawJSON, now)
	}

	w, err := o.store.Window(userID, now)
	if err != nil {
		o.log.Error().Err(err).Str("user_id", userID).Msg("history window failed, degrading")
		return o.degraded(userID, s, rawJSON, now)
	}
	w.CooldownFactor = p.CooldownFactor

	d := o.gate.Evaluate(s, w, now)
	if !d.Proceed {
		o.audit(audit.Entry{
			UserID: userID, DecidedAt: now,
			Reason: string(d.Reason), Receptivity: d.Receptivity,
			ContextJSON: rawJSON,
		})
		o.log.Debug().Str("user_id", userID).Str("reason", string(d.Reason)).
			Float32("receptivity", d.Receptivity).Msg("deferred")
		return Result{Deferred: true, Reason: d.Reason, Receptivity: d.Receptivity}
	}

	est := estimator.EstimateAll(s, o.estConfig)

	sel, ok := o.selector.Select(s, est, p.StrategyWeights)
	if !ok {
		o.audit(audit.Entry{
			UserID: userID, DecidedAt: now,
			Reason: string(gate.DeferNoStrategy), Receptivity: d.Receptivity,
			ContextJSON: rawJSON,
		})
		return Result{Deferred: true, Reason: gate.DeferNoStrategy, Receptivity: d.Receptivity}
	}

	strat := sel.Strategy
	degradedContent := false
	iv, err := o.personalizer.Personalize(ctx, strat, s, est, p.Traits)
	if err != nil {
		o.log.Warn().Err(err).Str("user_id", userID).Msg("content provider failed, degrading")
		strat = o.selector.Catalog().Minimal()
		iv = o.personalizer.Minimal(strat, s, est)
		degradedContent = true
	}

	plan := o.optimizer.Plan(s, est, strat, now)

	rec := profile.InterventionRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		StrategyID:  strat.ID,
		Receptivity: d.Receptivity,
		SlotID:      iv.MessageSlotID,
		OptimalTime: plan.OptimalTime,
		ValidWindow: plan.ValidWindow,
		Status:      profile.StatusPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(plan.ValidWindow * 4),
	}
	interventionID := rec.ID
	if err := o.store.AppendIntervention(rec); err != nil {
		o.log.Error().Err(err).Str("user_id", userID).Msg("history append failed")
		degradedContent = true
		// The record never landed; an id the outcome endpoint cannot look
		// up would only mislead.
		interventionID = ""
	}

	o.audit(audit.Entry{
		UserID: userID, DecidedAt: now, Proceed: true,
		Receptivity: d.Receptivity, StrategyID: string(strat.ID),
		InterventionID: interventionID, Degraded: degradedContent,
		ContextJSON: rawJSON,
	})
	o.log.Info().Str("user_id", userID).Str("strategy", string(strat.ID)).
		Str("intervention_id", interventionID).Float32("receptivity", d.Receptivity).
		Bool("degraded", degradedContent).Msg("intervention decided")

	return Result{
		Receptivity:    d.Receptivity,
		InterventionID: interventionID,
		Intervention:   &iv,
		OptimalTime:    plan.OptimalTime,
		ValidWindow:    plan.ValidWindow,
		Degraded:       degradedContent,
	}
}

// degraded produces the store-less fallback: the minimal strategy rendered
// locally, not persisted, not counted against caps.
func (o *Orchestrator) degraded(userID string, s snapshot.Snapshot, rawJSON string, now time.Time) Result {
	est := estimator.EstimateAll(s, o.estConfig)
	strat := o.selector.Catalog().Minimal()
	iv := o.personalizer.Minimal(strat, s, est)
	plan := o.optimizer.Plan(s, est, strat, now)

	o.audit(audit.Entry{
		UserID: userID, DecidedAt: now, Proceed: true,
		Receptivity: o.gate.Receptivity(s), StrategyID: string(strat.ID), Degraded: true,
		ContextJSON: rawJSON,
	})

	return Result{
		Receptivity:  o.gate.Receptivity(s),
		Intervention: &iv,
		OptimalTime:  plan.OptimalTime,
		ValidWindow:  plan.ValidWindow,
		Degraded:     true,
	}
}

// audit appends to the decision trail, best effort.
func (o *Orchestrator) audit(e audit.Entry) {
	if err := o.trail.Append(e); err != nil {
		o.log.Warn().Err(err).Msg("audit append failed")
	}
}

// #endregion decide

// #region lifecycle

// MarkDelivered transitions a pending intervention to delivered. Terminal
// states are left alone; delivering twice is a no-op.
func (o *Orchestrator) MarkDelivered(interventionID string) error {
	rec, err := o.store.GetIntervention(interventionID)
	if err != nil {
		return err
	}
	return o.locks.WithLock(rec.UserID, func() error {
		rec, err := o.store.GetIntervention(interventionID)
		if err != nil {
			return err
		}
		if rec.Status != profile.StatusPending {
			return nil
		}
		return o.store.SetInterventionStatus(interventionID, profile.StatusDelivered)
	})
}

// RecordOutcome folds user feedback into the profile's strategy weights.
func (o *Orchestrator) RecordOutcome(interventionID string, outcome feedback.Outcome) error {
	return o.tracker.RecordOutcome(interventionID, outcome)
}

// Profile returns the stored profile for a user.
func (o *Orchestrator) Profile(userID string) (profile.Profile, error) {
	return o.store.LoadProfile(userID)
}

// Trail returns the newest audit entries for a user.
func (o *Orchestrator) Trail(userID string, limit int) ([]audit.Entry, error) {
	return o.trail.Recent(userID, limit)
}

// PruneHistory evicts intervention records older than the retention window.
func (o *Orchestrator) PruneHistory(retention time.Duration) (int64, error) {
	return o.store.PruneHistory(o.clock.Now().Add(-retention))
}

// #endregion lifecycle
