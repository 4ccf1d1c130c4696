// Package api exposes the slide generator over HTTP: a streaming
// generation endpoint, the feedback endpoint, and supporting read-only
// routes. The same Handler serves the local web server and Lambda.
package api

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fpang/ai-slide-generator/internal/feedback"
	"github.com/fpang/ai-slide-generator/internal/pipeline"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

// Options wires a Handler.
type Options struct {
	Pipeline *pipeline.Pipeline
	Reviser  *feedback.Reviser
	// Store keeps usage summaries for /api/usage. Nil disables saving.
	Store usage.Store
	// AllowedOrigins for CORS. Empty allows localhost only.
	AllowedOrigins []string
	// OriginVerifySecret, when set, is required in x-origin-verify.
	OriginVerifySecret string
	// Providers is reported by /api/health.
	Providers map[string]string
}

// Handler serves the HTTP API.
type Handler struct {
	pipeline  *pipeline.Pipeline
	reviser   *feedback.Reviser
	store     usage.Store
	providers map[string]string
	mux       *http.ServeMux
	root      http.Handler
}

// NewHandler builds the routes and middleware chain.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		pipeline:  opts.Pipeline,
		reviser:   opts.Reviser,
		store:     opts.Store,
		providers: opts.Providers,
		mux:       http.NewServeMux(),
	}

	// The event stream is never compressed; gzip buffers would hold frames back.
	h.mux.HandleFunc("POST /api/generate", h.handleGenerate)
	h.mux.Handle("POST /api/feedback", gzhttp.GzipHandler(http.HandlerFunc(h.handleFeedback)))
	h.mux.Handle("GET /api/templates", gzhttp.GzipHandler(http.HandlerFunc(h.handleTemplates)))
	h.mux.Handle("GET /api/usage/{sessionId}", gzhttp.GzipHandler(http.HandlerFunc(h.handleUsage)))
	h.mux.HandleFunc("GET /api/health", h.handleHealth)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	h.root = withLogging(withCORS(opts.AllowedOrigins, withOriginVerify(opts.OriginVerifySecret, h.mux)))
	return h
}

// Handle registers an extra route, such as a static frontend.
func (h *Handler) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}
