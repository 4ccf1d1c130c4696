package textgen

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fpang/ai-slide-generator/internal/auth"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slides_ai_requests_total",
		Help: "Text generation calls by provider, model, operation and outcome.",
	}, []string{"provider", "model", "operation", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slides_ai_request_duration_seconds",
		Help:    "Latency of text generation calls.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"provider", "operation"})

	tokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slides_ai_tokens_total",
		Help: "Tokens consumed by text generation, split by direction.",
	}, []string{"provider", "model", "direction"})
)

func observe(g Generator, op string, d time.Duration, u Usage, status string) {
	requestsTotal.WithLabelValues(g.Provider(), g.Model(), op, status).Inc()
	requestDuration.WithLabelValues(g.Provider(), op).Observe(d.Seconds())
	if u.InputTokens > 0 {
		tokensTotal.WithLabelValues(g.Provider(), g.Model(), "input").Add(float64(u.InputTokens))
	}
	if u.OutputTokens > 0 {
		tokensTotal.WithLabelValues(g.Provider(), g.Model(), "output").Add(float64(u.OutputTokens))
	}
}

// statusFor maps a failed call to a metric label.
func statusFor(kind ErrorKind, err error) string {
	if kind == KindTimeout {
		return "timeout"
	}
	if v := auth.ClassifyError(err); v != nil {
		return v.Type.Label()
	}
	return string(kind)
}
