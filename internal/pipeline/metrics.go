package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slides_pipeline_runs_total",
		Help: "Pipeline runs by result (completed, failed, abandoned).",
	}, []string{"result"})

	slidesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slides_pipeline_slides_total",
		Help: "Slides produced by pipeline runs.",
	})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slides_pipeline_fallbacks_total",
		Help: "Local fallbacks substituted for failed AI calls, by operation.",
	}, []string{"operation"})
)
