package api

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-slide-generator/internal/metrics"
)

// statusRecorder wraps http.ResponseWriter to capture the status code. It
// forwards Flush so event streams keep working behind it.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// withLogging logs every API request with a request id, and emits EMF
// request metrics (RequestLatencyMs, RequestCount) by endpoint.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sr, r)

		if !strings.HasPrefix(r.URL.Path, "/api/") {
			return
		}
		elapsed := time.Since(start)
		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sr.statusCode).
			Dur("duration", elapsed).
			Msg("API request")

		metrics.New(metrics.Namespace).
			Dimension("Endpoint", normalizeEndpoint(r.URL.Path)).
			Metric("RequestLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
			Count("RequestCount").
			Property("method", r.Method).
			Property("statusCode", sr.statusCode).
			Flush()
	})
}

// normalizeEndpoint collapses session ids so metric dimensions stay small.
func normalizeEndpoint(path string) string {
	if strings.HasPrefix(path, "/api/usage/") {
		return "/api/usage/*"
	}
	return path
}

// withCORS allows the configured origins. An empty list allows localhost
// only.
func withCORS(origins []string, next http.Handler) http.Handler {
	allowed := func(origin string) bool {
		if len(origins) == 0 {
			return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
		}
		return slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withOriginVerify rejects requests lacking the shared x-origin-verify
// header that the CDN injects, so the API cannot be called directly. An
// empty secret disables the check.
func withOriginVerify(secret string, next http.Handler) http.Handler {
	if secret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" && r.Header.Get("x-origin-verify") != secret {
			log.Warn().Str("path", r.URL.Path).Msg("Blocked request: missing or invalid x-origin-verify header")
			httpError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
