package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techsparks_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "techsparks_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MailSent counts outbound emails by template and result.
	MailSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techsparks_mail_sent_total",
		Help: "Outbound emails by template and result",
	}, []string{"template", "result"})

	// OTPIssued counts issued one-time codes by flow.
	OTPIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techsparks_otp_issued_total",
		Help: "One-time codes issued by flow",
	}, []string{"flow"})

	// AuthFailures counts rejected authentication attempts by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techsparks_auth_failures_total",
		Help: "Rejected authentication attempts by reason",
	}, []string{"reason"})

	// DomainEvents counts published domain events by type.
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techsparks_domain_events_total",
		Help: "Published domain events by type",
	}, []string{"event_type"})

	// LiveConnections is the gauge of open live comment streams.
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "techsparks_live_comment_connections",
		Help: "Number of open live comment WebSocket connections",
	})

	// CacheResults counts cache lookups by key family and outcome.
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techsparks_cache_results_total",
		Help: "Cache lookups by key family and outcome",
	}, []string{"family", "outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
