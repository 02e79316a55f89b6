package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	ItemMutations  *prometheus.CounterVec
	Scans          prometheus.Counter
	TagsScanned    *prometheus.CounterVec
	RemindersFired *prometheus.CounterVec
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "radar_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route"}),

		ItemMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_item_mutations_total",
			Help: "Item mutations by action",
		}, []string{"action"}),

		Scans: factory.NewCounter(prometheus.CounterOpts{
			Name: "radar_scans_total",
			Help: "Bulk RFID scans applied",
		}),

		TagsScanned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_tags_scanned_total",
			Help: "Scanned tags by result (detected or unknown)",
		}, []string{"result"}),

		RemindersFired: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_reminders_fired_total",
			Help: "Reminders fired by type",
		}, []string{"type"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
