package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/assets"
	"github.com/fpang/ai-slide-generator/internal/deck"
	"github.com/fpang/ai-slide-generator/internal/pipeline"
	"github.com/fpang/ai-slide-generator/internal/sse"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Topic         string          `json:"topic"`
	Template      *deck.Template  `json:"template,omitempty"`
	Theme         json.RawMessage `json:"theme,omitempty"`
	Language      string          `json:"language,omitempty"`
	ImageProvider string          `json:"imageProvider,omitempty"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		httpError(w, http.StatusBadRequest, "Topic is required")
		return
	}

	sw, err := sse.NewWriter(w)
	if err != nil {
		log.Error().Err(err).Msg("Response writer cannot stream")
		httpError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	session := usage.NewSession(usage.NewSessionID())
	events := h.pipeline.Run(r.Context(), pipeline.Request{
		Topic:         req.Topic,
		Template:      resolveTemplate(req.Template),
		Theme:         req.Theme,
		Language:      req.Language,
		ImageProvider: req.ImageProvider,
		Session:       session,
	})

	var report *pipeline.UsageReport
	tracked := func(yield func(pipeline.Event) bool) {
		for ev := range events {
			if ev.Kind == pipeline.Done {
				report = ev.Usage
			}
			if !yield(ev) {
				return
			}
		}
	}

	if err := sse.Stream(r.Context(), sw, tracked); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("session_id", session.ID()).Msg("Stream ended early")
	}

	if report != nil {
		h.saveUsage(r.Context(), report.Summary)
	}
}

// resolveTemplate fills a template named only by id from the catalogue.
func resolveTemplate(t *deck.Template) *deck.Template {
	if t == nil || t.ID == "" || t.PromptPrefix != "" {
		return t
	}
	if known, ok := assets.TemplateByID(t.ID); ok {
		return &known
	}
	return t
}

// saveUsage stores a finished session's summary. It runs after the
// response, so the request context may already be done.
func (h *Handler) saveUsage(ctx context.Context, s usage.Summary) {
	if h.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.store.Save(ctx, s); err != nil {
		log.Warn().Err(err).Str("session_id", s.ID).Msg("Failed to save usage summary")
	}
}
