package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/assets"
	"github.com/fpang/ai-slide-generator/internal/deck"
	"github.com/fpang/ai-slide-generator/internal/feedback"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

// --- Feedback ---

// FeedbackResponse is the body of a successful POST /api/feedback.
type FeedbackResponse struct {
	Slides []deck.Slide `json:"slides"`
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedback.Request
	if err := decodeBody(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Template = resolveTemplate(req.Template)

	session := usage.NewSession(usage.NewSessionID())
	slides, err := h.reviser.Apply(r.Context(), req, session)
	switch {
	case errors.Is(err, feedback.ErrMissingFields):
		httpError(w, http.StatusBadRequest, "Missing required fields: slides and feedback")
		return
	case err != nil:
		log.Error().Err(err).Str("session_id", session.ID()).Msg("Feedback processing failed")
		httpError(w, http.StatusInternalServerError, "Failed to process feedback")
		return
	}

	h.saveUsage(r.Context(), session.Summary())
	w.Header().Set("X-Session-Id", session.ID())
	respondJSON(w, http.StatusOK, FeedbackResponse{Slides: slides})
}

// --- Templates ---

func (h *Handler) handleTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := assets.Templates()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load template catalogue")
		httpError(w, http.StatusInternalServerError, "Failed to load templates")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// --- Usage ---

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionId")
	if h.store == nil {
		httpError(w, http.StatusNotFound, "Session not found")
		return
	}
	summary, err := h.store.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("Failed to read usage summary")
		httpError(w, http.StatusInternalServerError, "Failed to read usage")
		return
	}
	if summary == nil {
		httpError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// --- Health ---

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"providers": h.providers,
	})
}
