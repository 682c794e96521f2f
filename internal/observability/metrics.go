package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. Methods are safe on
// a nil receiver so components can run without metrics in tests.
type Metrics struct {
	// Registry owns these metrics and backs the /metrics endpoint.
	Registry *prometheus.Registry

	webhooks        *prometheus.CounterVec
	intents         *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	revenueEntries  *prometheus.CounterVec
	onboarding      *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
}

// NewMetrics creates a private registry so repeated construction in tests
// never hits duplicate-collector panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		webhooks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepay_webhooks_total",
				Help: "Gateway webhook deliveries by outcome.",
			},
			[]string{"outcome"},
		),
		intents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepay_payment_intents_total",
				Help: "Payment intents by result (created, duplicate, failed).",
			},
			[]string{"result"},
		),
		gatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepay_gateway_requests_total",
				Help: "Gateway API calls by operation and result.",
			},
			[]string{"operation", "result"},
		),
		gatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitepay_gateway_request_duration_seconds",
				Help:    "Gateway API call latency by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		revenueEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepay_revenue_entries_total",
				Help: "Platform revenue bookings by result.",
			},
			[]string{"result"},
		),
		onboarding: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepay_onboarding_sessions_total",
				Help: "Onboarding session lifecycle events.",
			},
			[]string{"event"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepay_cache_lookups_total",
				Help: "Cache lookups by cache and result.",
			},
			[]string{"cache", "result"},
		),
		jobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepay_job_runs_total",
				Help: "Background job runs by job and result.",
			},
			[]string{"job", "result"},
		),
	}
}

func (m *Metrics) IncrWebhook(outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrIntent(result string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(result).Inc()
}

// RecordGatewayCall records one gateway call and its latency.
func (m *Metrics) RecordGatewayCall(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.gatewayRequests.WithLabelValues(operation, result).Inc()
	m.gatewayDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) IncrRevenue(result string) {
	if m == nil {
		return
	}
	m.revenueEntries.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrOnboarding(event string) {
	if m == nil {
		return
	}
	m.onboarding.WithLabelValues(event).Inc()
}

func (m *Metrics) IncrCache(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) IncrJob(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}
