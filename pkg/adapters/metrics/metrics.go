package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by the redirect and analytics counters.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeExpired  = "expired"
	OutcomeError    = "error"
)

// Audit delivery results.
const (
	AuditSent    = "sent"
	AuditFailed  = "failed"
	AuditDropped = "dropped"
)

type Metrics struct {
	LinksCreated    prometheus.Counter
	Redirects       *prometheus.CounterVec
	AnalyticsReads  *prometheus.CounterVec
	SweptLinks      prometheus.Counter
	AuditEvents     *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass a fresh prometheus.NewRegistry()
// per test to avoid duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LinksCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "shortlink_created_total",
			Help: "Short links created, including overwrites of an existing code",
		}),
		Redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_redirects_total",
			Help: "Redirect attempts by outcome",
		}, []string{"outcome"}), // found, not_found, expired, error
		AnalyticsReads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_analytics_reads_total",
			Help: "Analytics reads by outcome",
		}, []string{"outcome"}),
		SweptLinks: factory.NewCounter(prometheus.CounterOpts{
			Name: "shortlink_swept_total",
			Help: "Expired links removed by the background sweep",
		}),
		AuditEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_audit_events_total",
			Help: "Remote audit log submissions by result",
		}, []string{"result"}), // sent, failed, dropped
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shortlink_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"route", "method", "status"}),
	}
}

// RegisterStoreSize exposes the number of records currently held.
func RegisterStoreSize(reg prometheus.Registerer, size func() int) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "shortlink_store_records",
		Help: "Records currently held in the mapping store, expired ones included",
	}, func() float64 { return float64(size()) })
}
