package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "workforce"

// Collector owns a private registry so several collectors can coexist in one process (tests).
// All methods are safe on a nil receiver.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	operations   *prometheus.CounterVec
	assignments  *prometheus.CounterVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		// Labels: route, method, status
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by route pattern, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		// Labels: op (employee.create, project.soft_delete, ...), result (ok, validation, not_found, conflict, error)
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "core",
				Name:      "operations_total",
				Help:      "Lifecycle and assignment operations by outcome",
			},
			[]string{"op", "result"},
		),
		// Labels: outcome (assigned, unassignable)
		assignments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "core",
				Name:      "assignment_candidates_total",
				Help:      "Batch assignment candidates by classification",
			},
			[]string{"outcome"},
		),
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Record(route, method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (c *Collector) Operation(op, result string) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(op, result).Inc()
}

func (c *Collector) Assignment(assigned, unassignable int) {
	if c == nil {
		return
	}
	c.assignments.WithLabelValues("assigned").Add(float64(assigned))
	c.assignments.WithLabelValues("unassignable").Add(float64(unassignable))
}
