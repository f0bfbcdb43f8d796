package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "engine",
		Name:      "events_detected_total",
		Help:      "Events produced by the snapshot diff, by type.",
	}, []string{"event"})

	eventsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "engine",
		Name:      "events_suppressed_total",
		Help:      "Events dropped before dispatch, by reason (ignored, cooldown).",
	}, []string{"reason"})
)
