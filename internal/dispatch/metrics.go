package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "dispatch",
		Name:      "utterances_total",
		Help:      "Utterances handed to the speech channel, by event type.",
	}, []string{"event"})

	preemptions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "dispatch",
		Name:      "preemptions_total",
		Help:      "Utterances aborted mid-playback for a higher-priority event.",
	})

	queueEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "dispatch",
		Name:      "queue_evictions_total",
		Help:      "Queued items displaced by newer, higher-priority arrivals.",
	})

	queueDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "dispatch",
		Name:      "queue_drops_total",
		Help:      "Arrivals rejected because the queue was full of higher-priority items.",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Commentary served from the response cache.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Commentary that required a generation call.",
	})

	collaboratorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "dispatch",
		Name:      "collaborator_failures_total",
		Help:      "Failed generation or speech calls, by stage.",
	}, []string{"stage"})
)
