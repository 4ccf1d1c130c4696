package usage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var costTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "slides_estimated_cost_usd_total",
	Help: "Estimated provider spend in USD, by kind (tokens or images).",
}, []string{"kind"})
