// Package metrics holds the Prometheus collectors shared by the API server and the worker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	RegistrationsTotal    *prometheus.CounterVec
	TicketsSoldTotal      prometheus.Counter
	ApprovalDecisions     *prometheus.CounterVec
	AuthzDenialsTotal     *prometheus.CounterVec
	TrialsExpiredTotal    prometheus.Counter
	NotificationsTotal    *prometheus.CounterVec
	CallerCacheLookups    *prometheus.CounterVec
	NotificationQueueSize prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics on registry. A nil registry gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aura_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aura_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aura_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		TicketsSoldTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "aura_tickets_sold_total",
				Help: "Tickets reserved by confirmed carts",
			},
		),
		ApprovalDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aura_approval_decisions_total",
				Help: "Approval decisions by subject and action",
			},
			[]string{"subject", "action"},
		),
		AuthzDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aura_authz_denials_total",
				Help: "Authorization denials by reason",
			},
			[]string{"reason"},
		),
		TrialsExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "aura_trials_expired_total",
				Help: "Organizations moved from trialing to past_due",
			},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aura_notifications_total",
				Help: "Notification deliveries by status",
			},
			[]string{"status"},
		),
		CallerCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aura_caller_cache_lookups_total",
				Help: "Caller cache lookups by result",
			},
			[]string{"result"},
		),
		NotificationQueueSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "aura_notification_queue_size",
				Help: "Pending notification jobs",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RegistrationsTotal,
		m.TicketsSoldTotal,
		m.ApprovalDecisions,
		m.AuthzDenialsTotal,
		m.TrialsExpiredTotal,
		m.NotificationsTotal,
		m.CallerCacheLookups,
		m.NotificationQueueSize,
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
