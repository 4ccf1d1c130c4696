package imagegen

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	raceOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slides_image_race_total",
		Help: "Image generation races by provider and outcome.",
	}, []string{"provider", "reason"})

	imageBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slides_image_bytes",
		Help:    "Size of generated images after downscaling.",
		Buckets: prometheus.ExponentialBuckets(16<<10, 2, 8),
	}, []string{"provider"})
)
