package gsi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "gsi",
		Name:      "snapshots_total",
		Help:      "Snapshot posts received on the webhook.",
	})

	parseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "gsi",
		Name:      "parse_errors_total",
		Help:      "Snapshot posts that could not be decoded.",
	})

	authRejects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "castmate",
		Subsystem: "gsi",
		Name:      "auth_rejects_total",
		Help:      "Snapshot posts dropped for a bad auth token.",
	})
)
