package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the application's Prometheus metrics: HTTP traffic plus
// the payroll export and sync queue counters.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	payrollExports  *prometheus.CounterVec
	syncJobs        *prometheus.CounterVec
	watchdogResets  prometheus.Counter
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "byggbas_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "byggbas_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	payrollExports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "byggbas_payroll_exports_total",
		Help: "Payroll export attempts by format and outcome.",
	}, []string{"format", "outcome"})
	syncJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "byggbas_sync_jobs_processed_total",
		Help: "Accounting sync jobs by provider and outcome.",
	}, []string{"provider", "outcome"})
	watchdogResets := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "byggbas_sync_watchdog_resets_total",
		Help: "Stuck sync jobs returned to pending by the watchdog sweep.",
	})
	registry.MustRegister(requests, duration, payrollExports, syncJobs, watchdogResets)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		payrollExports:  payrollExports,
		syncJobs:        syncJobs,
		watchdogResets:  watchdogResets,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// PayrollExport counts one export attempt.
func (m *Metrics) PayrollExport(format, outcome string) {
	if m == nil {
		return
	}
	m.payrollExports.WithLabelValues(format, outcome).Inc()
}

// SyncJobProcessed counts one dispatched sync job.
func (m *Metrics) SyncJobProcessed(provider, outcome string) {
	if m == nil {
		return
	}
	m.syncJobs.WithLabelValues(provider, outcome).Inc()
}

// WatchdogResets counts jobs the watchdog returned to pending.
func (m *Metrics) WatchdogResets(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.watchdogResets.Add(float64(count))
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
