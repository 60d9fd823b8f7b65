package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated         prometheus.Counter
	SubmissionsAccepted  prometheus.Counter
	SubmissionsRefused   *prometheus.CounterVec
	ReviewsProcessed     *prometheus.CounterVec
	RealtimeSubscribers  prometheus.Gauge
	RequestDuration      *prometheus.HistogramVec
	AuditEventsPublished prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trueconnect_users_created_total",
			Help: "Total number of accounts created",
		}),
		SubmissionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trueconnect_submissions_accepted_total",
			Help: "ID document submissions that entered pending review",
		}),
		SubmissionsRefused: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trueconnect_submissions_refused_total",
			Help: "ID document submissions refused before any state change",
		}, []string{"reason"}),
		ReviewsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trueconnect_reviews_processed_total",
			Help: "Verification requests processed by administrators",
		}, []string{"outcome"}),
		RealtimeSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trueconnect_realtime_subscribers",
			Help: "Currently connected event-stream subscribers",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trueconnect_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "status"}),
		AuditEventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trueconnect_audit_events_published_total",
			Help: "Audit events drained from the outbox to the broker",
		}),
	}
}
