package content

import (
	"time"

	"github.com/ferrisk/coachd/internal/strategy"
)

// #region action-step
// ActionStep is one concrete step the user is asked to take.
type ActionStep struct {
	Description  string        `json:"description"`
	TimeEstimate time.Duration `json:"time_estimate"`
	Difficulty   float32       `json:"difficulty"` // [0,1]
}

// #endregion action-step

// #region success-metric
// SuccessMetric names a measurable criterion for the intervention.
type SuccessMetric struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// #endregion success-metric

// #region intervention
// Intervention is the concrete personalized payload produced for one
// gated-through decision. Message text comes from the content provider;
// everything else is assembled locally.
type Intervention struct {
	StrategyID    strategy.ID       `json:"strategy"`
	MessageSlotID string            `json:"message_slot_id"`
	Message       string            `json:"message"`
	Params        map[string]string `json:"params,omitempty"`
	ActionSteps   []ActionStep      `json:"action_steps"`
	Metrics       []SuccessMetric   `json:"success_metrics"`
}

// #endregion intervention
