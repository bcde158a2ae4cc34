package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the resource engine.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Engine metrics.
	WorkloadResultsTotal    *prometheus.CounterVec
	CostResolutionsTotal    *prometheus.CounterVec
	SkippedAssignmentsTotal prometheus.Counter
	ReportDuration          prometheus.Histogram

	// Monitor metrics.
	MonitoredUsers *prometheus.GaugeVec
	MonitorRuns    *prometheus.CounterVec
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "erasmus_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "erasmus_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		WorkloadResultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "erasmus_workload_results_total",
			Help: "Workload calculations by resulting status.",
		}, []string{"status"}),

		CostResolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "erasmus_cost_resolutions_total",
			Help: "Member cost resolutions by rate source.",
		}, []string{"source"}),

		SkippedAssignmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "erasmus_skipped_assignments_total",
			Help: "Assignments left out of a workload because their months could not be parsed.",
		}),

		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "erasmus_report_duration_seconds",
			Help:    "Duration of project report generation in seconds.",
			Buckets: prometheus.DefBuckets,
		}),

		MonitoredUsers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "erasmus_monitored_users",
			Help: "Users per workload status for the current month, as of the last monitor run.",
		}, []string{"status"}),

		MonitorRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "erasmus_monitor_runs_total",
			Help: "Workload monitor runs by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.WorkloadResultsTotal,
		m.CostResolutionsTotal,
		m.SkippedAssignmentsTotal,
		m.ReportDuration,
		m.MonitoredUsers,
		m.MonitorRuns,
	)

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveWorkload counts one workload result.
func (m *Metrics) ObserveWorkload(status string, skipped int) {
	m.WorkloadResultsTotal.WithLabelValues(status).Inc()
	if skipped > 0 {
		m.SkippedAssignmentsTotal.Add(float64(skipped))
	}
}

// ObserveCost counts one cost resolution.
func (m *Metrics) ObserveCost(source string) {
	m.CostResolutionsTotal.WithLabelValues(source).Inc()
}

// SetMonitoredUsers replaces the per-status gauge values.
func (m *Metrics) SetMonitoredUsers(counts map[string]int) {
	m.MonitoredUsers.Reset()
	for status, n := range counts {
		m.MonitoredUsers.WithLabelValues(status).Set(float64(n))
	}
}

// Middleware records HTTP metrics for each request. The chi route pattern
// is read after the handler ran, once routing has filled it in.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		pattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(wrapped.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
