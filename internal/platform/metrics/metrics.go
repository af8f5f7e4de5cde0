// Package metrics exposes Prometheus metrics for the HTTP server, the
// spreadsheet client, the visit cache and the reminder job.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "registry"

// Metrics holds every collector of the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	HTTPActiveRequests prometheus.Gauge

	SheetsCalls    *prometheus.CounterVec
	SheetsDuration *prometheus.HistogramVec

	CacheLookups *prometheus.CounterVec
	VisitWrites  *prometheus.CounterVec

	UnservedToday prometheus.Gauge
	ReminderRuns  *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates the collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPActiveRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Requests currently being served.",
		}),
		SheetsCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_calls_total",
			Help:      "Spreadsheet API calls by operation and status code (0 for transport errors).",
		}, []string{"op", "status"}),
		SheetsDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sheets_call_duration_seconds",
			Help:      "Spreadsheet API call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visit_cache_lookups_total",
			Help:      "Visit list cache lookups by result (hit, miss).",
		}, []string{"result"}),
		VisitWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visit_writes_total",
			Help:      "Visit writes by operation (created, updated, deleted, served).",
		}, []string{"op"}),
		UnservedToday: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unserved_today",
			Help:      "Patients registered today without therapy, as of the last reminder run.",
		}),
		ReminderRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_runs_total",
			Help:      "Reminder job runs by outcome (ok, error).",
		}, []string{"outcome"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count, latency and in-flight requests. The
// route label is the registered path pattern, so /visits/:row stays one
// series.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.HTTPActiveRequests.Inc()
			defer m.HTTPActiveRequests.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// ObserveSheetsCall implements sheets.Observer.
func (m *Metrics) ObserveSheetsCall(op string, status int, d time.Duration) {
	m.SheetsCalls.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.SheetsDuration.WithLabelValues(op).Observe(d.Seconds())
}

// CacheHit counts a visit list served from cache.
func (m *Metrics) CacheHit() {
	m.CacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss counts a visit list loaded from the store.
func (m *Metrics) CacheMiss() {
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// VisitWritten counts a successful write.
func (m *Metrics) VisitWritten(op string) {
	m.VisitWrites.WithLabelValues(op).Inc()
}

// ReminderRun records the outcome of one reminder run.
func (m *Metrics) ReminderRun(unserved int, err error) {
	if err != nil {
		m.ReminderRuns.WithLabelValues("error").Inc()
		return
	}
	m.ReminderRuns.WithLabelValues("ok").Inc()
	m.UnservedToday.Set(float64(unserved))
}
