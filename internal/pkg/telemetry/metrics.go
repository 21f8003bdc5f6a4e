package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admetrics_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admetrics_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// FactEvents counts fact engine decisions.
	// kind: like, conversion. outcome: created, updated, day_split, rejected.
	FactEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admetrics_fact_events_total",
			Help: "Fact upsert decisions by event kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	ProbeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admetrics_probe_failures_total",
			Help: "Soft-failed environment probe lookups",
		},
		[]string{"source"},
	)

	HeartbeatRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admetrics_heartbeat_runs_total",
		Help: "Heartbeat job executions",
	})

	FeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "admetrics_feed_connections",
		Help: "Open live feed websocket connections",
	})
)

const (
	KindLike       = "like"
	KindConversion = "conversion"

	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeDaySplit = "day_split"
	OutcomeRejected = "rejected"
)
