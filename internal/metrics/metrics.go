package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's collectors. A nil *Metrics is valid and records
// nothing, so callers never need to check whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	liveSessions  prometheus.Gauge
	liveEvents    *prometheus.CounterVec
	framesSent    prometheus.Counter
	pointChanges  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pointdash_live_sessions",
			Help: "Number of open live graph sessions",
		}),
		liveEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pointdash_live_events_total",
			Help: "Client messages processed by live sessions",
		}, []string{"type"}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pointdash_live_frames_total",
			Help: "Frames sent to live clients",
		}),
		pointChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pointdash_point_changes_total",
			Help: "Point collection changes by kind",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pointdash_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pointdash_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.liveSessions,
		m.liveEvents,
		m.framesSent,
		m.pointChanges,
		m.httpRequests,
		m.httpDurations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.liveSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.liveSessions.Dec()
	}
}

func (m *Metrics) LiveEvent(msgType string) {
	if m != nil {
		m.liveEvents.WithLabelValues(msgType).Inc()
	}
}

func (m *Metrics) FrameSent() {
	if m != nil {
		m.framesSent.Inc()
	}
}

func (m *Metrics) PointChange(kind string) {
	if m != nil {
		m.pointChanges.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
