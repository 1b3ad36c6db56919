package profile

import (
	"errors"
	"time"

	"github.com/ferrisk/coachd/internal/strategy"
)

// ErrProfileNotFound is returned when a user has no stored profile.
var ErrProfileNotFound = errors.New("profile not found")

// ErrInterventionNotFound is returned when an intervention id is unknown or
// was pruned from the history window.
var ErrInterventionNotFound = errors.New("intervention not found")

// #region profile
// Profile is the long-lived per-user record. The orchestrator owns it
// exclusively; only the effectiveness tracker may mutate StrategyWeights.
type Profile struct {
	UserID string

	// Traits is the data-driven personality table (trait → weight in [0,1]).
	Traits map[string]float32

	// StrategyWeights holds the feedback-adjusted effectiveness score per
	// strategy, initialized uniformly. Never negative.
	StrategyWeights map[strategy.ID]float32

	// CooldownFactor is the dismissal backoff multiplier, >= 1.
	CooldownFactor float32

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfile returns a fresh profile with uniform weights and neutral traits.
func NewProfile(userID string, now time.Time) Profile {
	return Profile{
		UserID:          userID,
		Traits:          map[string]float32{},
		StrategyWeights: strategy.InitialWeights(),
		CooldownFactor:  1.0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// #endregion profile

// #region intervention-status
// Status tracks an intervention through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"   // gate passed, content generated
	StatusDelivered Status = "delivered" // timing reached
	StatusCompleted Status = "completed"
	StatusIgnored   Status = "ignored"
	StatusExpired   Status = "expired" // no feedback within the expiry window
)

// #endregion intervention-status

// #region intervention-record
// InterventionRecord is the immutable record of one delivered (or pending)
// decision, kept in a bounded per-user history.
type InterventionRecord struct {
	ID          string
	UserID      string
	StrategyID  strategy.ID
	Receptivity float32
	SlotID      string
	OptimalTime time.Time
	ValidWindow time.Duration
	Status      Status
	CreatedAt   time.Time

	// ExpiresAt = CreatedAt + ValidWindow*4; past this with no feedback the
	// record transitions to expired.
	ExpiresAt time.Time
}

// #endregion intervention-record
