// Package metrics exposes Prometheus instruments for comparison runs and
// the HTTP surfaces.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"gokw/domain/stats"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gokw"

// Metrics holds the instruments and the registry they are registered on.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	RowsTotal       *prometheus.CounterVec
	ComputeSeconds  *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates instruments on a fresh registry that also carries the Go and
// process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparison_runs_total",
			Help:      "Comparison runs by disposition and method",
		}, []string{"disposition", "method"}),
		RowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feature_rows_total",
			Help:      "Feature rows evaluated, by whether a test result was produced",
		}, []string{"tested"}),
		ComputeSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Rank test computation time per comparison",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"method"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry returns the registry backing the instruments
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRun records a finished comparison run
func (m *Metrics) ObserveRun(run *stats.Run, elapsed time.Duration) {
	if m == nil || run == nil {
		return
	}
	m.RunsTotal.WithLabelValues(run.Disposition.String(), string(run.Method)).Inc()
	if run.Result == nil {
		return
	}
	tested := run.Result.TestedCount()
	m.RowsTotal.WithLabelValues("true").Add(float64(tested))
	m.RowsTotal.WithLabelValues("false").Add(float64(run.Result.Len() - tested))
	m.ComputeSeconds.WithLabelValues(string(run.Method)).Observe(elapsed.Seconds())
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
