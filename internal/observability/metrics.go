package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the API, lifecycle, and scheduler flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	batchesConfirmedTotal  *prometheus.CounterVec
	batchesExpiredTotal    prometheus.Counter
	ordersConfirmedTotal   prometheus.Counter
	billsGeneratedTotal    prometheus.Counter
	billFailuresTotal      prometheus.Counter
	schedulerJobRunsTotal  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "batching_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "batching_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		batchesConfirmedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "batching_engine",
				Name:      "batches_confirmed_total",
				Help:      "Total number of batches confirmed, grouped by trigger (manual or auto).",
			},
			[]string{"trigger"},
		),
		batchesExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "batching_engine",
				Name:      "batches_expired_total",
				Help:      "Total number of open batches expired by the stale sweep.",
			},
		),
		ordersConfirmedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "batching_engine",
				Name:      "orders_confirmed_total",
				Help:      "Total number of orders bulk-transitioned to confirmed.",
			},
		),
		billsGeneratedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "batching_engine",
				Name:      "bills_generated_total",
				Help:      "Total number of delivery bills generated successfully.",
			},
		),
		billFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "batching_engine",
				Name:      "bill_failures_total",
				Help:      "Total number of per-order bill generation failures.",
			},
		),
		schedulerJobRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "batching_engine",
				Name:      "scheduler_job_runs_total",
				Help:      "Total number of scheduler job runs grouped by job and outcome.",
			},
			[]string{"job", "outcome"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.batchesConfirmedTotal,
		m.batchesExpiredTotal,
		m.ordersConfirmedTotal,
		m.billsGeneratedTotal,
		m.billFailuresTotal,
		m.schedulerJobRunsTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncBatchConfirmed(manual bool) {
	if m == nil {
		return
	}
	trigger := "auto"
	if manual {
		trigger = "manual"
	}
	m.batchesConfirmedTotal.WithLabelValues(trigger).Inc()
}

func (m *Metrics) AddBatchesExpired(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.batchesExpiredTotal.Add(float64(count))
}

func (m *Metrics) AddOrdersConfirmed(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.ordersConfirmedTotal.Add(float64(count))
}

func (m *Metrics) IncBillGenerated() {
	if m == nil {
		return
	}
	m.billsGeneratedTotal.Inc()
}

func (m *Metrics) IncBillFailed() {
	if m == nil {
		return
	}
	m.billFailuresTotal.Inc()
}

func (m *Metrics) IncSchedulerJobRun(job string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.schedulerJobRunsTotal.WithLabelValues(job, outcome).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}
