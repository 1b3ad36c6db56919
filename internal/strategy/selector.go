package strategy

import (
	"github.com/ferrisk/coachd/internal/estimator"
	"github.com/ferrisk/coachd/internal/snapshot"
)

// #region selector

// Selector scores applicable strategies against a context and picks the best.
type Selector struct {
	catalog Catalog
}

// NewSelector creates a selector over the given catalog.
func NewSelector(catalog Catalog) *Selector {
	return &Selector{catalog: catalog}
}

// Catalog returns the selector's catalog.
func (sel *Selector) Catalog() Catalog {
	return sel.catalog
}

// Select filters the catalog to applicable strategies, scores each as
// base_prior * user_weight * context_fit, and returns the arg-max.
// Ties break to the lower cognitive demand, then to catalog order, so the
// result is deterministic. ok is false when no strategy applies.
func (sel *Selector) Select(s snapshot.Snapshot, est estimator.Estimates, weights map[ID]float32) (Selection, bool) {
	var best Selection
	found := false

	for _, id := range All {
		p, ok := sel.catalog[id]
		if !ok || !p.Applicable(s, est) {
			continue
		}

		weight := InitialWeight
		if w, ok := weights[id]; ok {
			weight = w
		}
		score := p.BasePrior * weight * p.Fit(s, est)

		if !found || score > best.Score ||
			(score == best.Score && p.CognitiveDemand < best.Strategy.CognitiveDemand) {
			best = Selection{Strategy: p, Score: score}
			found = true
		}
	}

	return best, found
}

// #endregion selector
