package feedback

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var revisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "slides_feedback_revisions_total",
	Help: "Feedback slide revisions by mode and result.",
}, []string{"mode", "result"})
