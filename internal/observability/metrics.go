package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AcceptsWonTotal  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_backend", Name: "accepts_won_total", Help: "Ride request acceptances that won the race"})
	AcceptsLostTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_backend", Name: "accepts_lost_total", Help: "Ride request acceptances that lost to a concurrent accept or cancel"})
	PartialCommits   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_backend", Name: "partial_commits_total", Help: "Acceptances that failed after the request flipped to Accepted"})
	ReconcileRepairs = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_backend", Name: "reconcile_repairs_total", Help: "Orphaned acceptances repaired by the reconciler"})

	RideTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_backend", Name: "ride_transitions_total", Help: "Ride lifecycle transitions applied"},
		[]string{"to", "outcome"},
	)

	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_backend", Name: "messages_sent_total", Help: "Chat messages persisted"},
		[]string{"sender_type"},
	)

	NearbyQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ride_backend",
		Name:      "nearby_query_duration_seconds",
		Help:      "Latency of nearby driver searches",
		Buckets:   prometheus.DefBuckets,
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_backend", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_backend",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
