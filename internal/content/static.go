package content

import (
	"context"
	"fmt"
	"strings"
)

// #region static-provider

// StaticProvider renders from a built-in template table. It backs tests and
// the degraded path where no external lookup is allowed.
type StaticProvider struct {
	templates map[string]string
}

// NewStaticProvider returns a provider over the built-in slot templates.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{templates: defaultTemplates()}
}

// Render interpolates {param} placeholders into the slot template.
// Unknown slots fall back to a generic nudge so the degraded path can never
// fail.
func (p *StaticProvider) Render(_ context.Context, slotID string, params map[string]string) (string, error) {
	tmpl, ok := p.templates[slotID]
	if !ok {
		tmpl = "Want to try a short, focused reset on {task}?"
	}
	out := tmpl
	for k, v := range params {
		out = strings.ReplaceAll(out, fmt.Sprintf("{%s}", k), v)
	}
	return out, nil
}

// defaultTemplates maps slot id → template text with {param} placeholders.
func defaultTemplates() map[string]string {
	return map[string]string{
		"micro_break":         "Quick reset: step away for {duration} minutes, then come back to {task}.",
		"micro_stretch":       "You've been heads-down a while. A {duration}-minute stretch could help.",
		"micro_hydrate":       "Small one: grab some water before your next pass at {task}.",
		"habit_anchor":        "Try anchoring {task} to something you already do daily.",
		"habit_streak":        "Keep the streak alive: a {duration}-minute session on {task} counts.",
		"motivation_progress": "You've already moved {task} forward. Want to pick the smallest next step?",
		"motivation_reframe":  "Stuck on {task}? Shrinking it to a {duration}-minute starter often unsticks it.",
		"focus_block":         "Want to try a {duration}-minute focus block on {task}?",
		"focus_single_task":   "Lots of switching lately. How about single-tasking {task} for {duration} minutes?",
		"focus_tabs":          "Closing the extra tabs could make the next {duration} minutes count double.",
		"stress_breathing":    "Things look intense. A {duration}-minute breathing break can take the edge off.",
		"stress_break":        "High stress detected. Stepping away from {task} briefly usually pays for itself.",
		"stress_triage":       "Want to write down the top stressor and triage just that one?",
		"deepwork_guard":      "Your focus looks strong. Want to protect the next {duration} minutes for {task}?",
		"deepwork_schedule":   "Good moment to block deep-work time for {task} before the day fills up.",
		"reflect_day":         "Winding down: a {duration}-minute look back at today can set up tomorrow.",
		"reflect_goal":        "How did {task} move today? One line is enough.",
	}
}

// #endregion static-provider
