// Package api exposes the decision pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ferrisk/coachd/internal/audit"
	"github.com/ferrisk/coachd/internal/coach"
	"github.com/ferrisk/coachd/internal/feedback"
	"github.com/ferrisk/coachd/internal/profile"
	"github.com/ferrisk/coachd/internal/snapshot"
)

// Handler serves the coaching API.
type Handler struct {
	coach *coach.Orchestrator
	log   zerolog.Logger
}

// NewHandler creates a handler over the orchestrator.
func NewHandler(o *coach.Orchestrator, log zerolog.Logger) *Handler {
	return &Handler{coach: o, log: log}
}

// Routes builds the chi router with the standard middleware stack.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/users/{userID}/decide", h.decide)
		r.Get("/users/{userID}/profile", h.profile)
		r.Get("/users/{userID}/decisions", h.decisions)
		r.Post("/interventions/{interventionID}/delivered", h.delivered)
		r.Post("/interventions/{interventionID}/outcome", h.outcome)
	})
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// #region handlers

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var raw snapshot.Raw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.coach.Decide(r.Context(), userID, raw)
	if err != nil {
		var verr *snapshot.ValidationError
		if errors.As(err, &verr) {
			Error(w, http.StatusBadRequest, verr.Error())
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("decide failed")
		Error(w, http.StatusInternalServerError, "decision failed")
		return
	}

	JSON(w, http.StatusOK, res)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	p, err := h.coach.Profile(userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			Error(w, http.StatusNotFound, "profile not found")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("profile load failed")
		Error(w, http.StatusInternalServerError, "profile load failed")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":          p.UserID,
		"traits":           p.Traits,
		"strategy_weights": p.StrategyWeights,
		"cooldown_factor":  p.CooldownFactor,
		"created_at":       p.CreatedAt,
		"updated_at":       p.UpdatedAt,
	})
}

func (h *Handler) decisions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 200 {
			Error(w, http.StatusBadRequest, "limit must be an integer in [1,200]")
			return
		}
		limit = n
	}

	entries, err := h.coach.Trail(userID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("decision trail failed")
		Error(w, http.StatusInternalServerError, "decision trail failed")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{"decisions": entries})
}

func (h *Handler) delivered(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "interventionID")

	if err := h.coach.MarkDelivered(id); err != nil {
		if errors.Is(err, profile.ErrInterventionNotFound) {
			Error(w, http.StatusNotFound, "intervention not found")
			return
		}
		h.log.Error().Err(err).Str("intervention_id", id).Msg("mark delivered failed")
		Error(w, http.StatusInternalServerError, "mark delivered failed")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "delivered"})
}

func (h *Handler) outcome(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "interventionID")

	var o feedback.Outcome
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.coach.RecordOutcome(id, o); err != nil {
		switch {
		case errors.Is(err, profile.ErrInterventionNotFound):
			Error(w, http.StatusNotFound, "intervention not found")
		case errors.Is(err, feedback.ErrDuplicateFeedback):
			Error(w, http.StatusConflict, "feedback already recorded")
		case errors.Is(err, feedback.ErrOutcomeOutOfRange):
			Error(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error().Err(err).Str("intervention_id", id).Msg("record outcome failed")
			Error(w, http.StatusInternalServerError, "record outcome failed")
		}
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// #endregion handlers
