package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "caption"

// PrometheusAdapter owns a private registry so tests can build as many as they like.
type PrometheusAdapter struct {
	registry      *prometheus.Registry
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	flows         *prometheus.CounterVec
	flowDuration  *prometheus.HistogramVec
	compensations *prometheus.CounterVec
	counterDrift  prometheus.Counter
	repairs       *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
}

func NewPrometheusAdapter() *PrometheusAdapter {
	p := &PrometheusAdapter{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		flows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_total",
			Help:      "Assign, swap and return flows by outcome.",
		}, []string{"flow", "outcome"}),
		flowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_duration_seconds",
			Help:      "Flow latency including lease waits.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensations_total",
			Help:      "Compensating writes by flow, step and result.",
		}, []string{"flow", "step", "result"}),
		counterDrift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_counter_drift_total",
			Help:      "Swaps that completed without incrementing the daily counter.",
		}),
		repairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_repairs_total",
			Help:      "Repairs made by the reconciliation sweep.",
		}, []string{"kind"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"name"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.httpRequests,
		p.httpDuration,
		p.flows,
		p.flowDuration,
		p.compensations,
		p.counterDrift,
		p.repairs,
		p.breakerState,
	)
	return p
}

var _ ports.MetricsPort = (*PrometheusAdapter)(nil)

// RecordMetrics is deferred by handlers with the request start time.
func (p *PrometheusAdapter) RecordMetrics(c *gin.Context, start time.Time) {
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())
	p.httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
	p.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
}

func (p *PrometheusAdapter) RecordFlow(flow, outcome string, duration time.Duration) {
	p.flows.WithLabelValues(flow, outcome).Inc()
	p.flowDuration.WithLabelValues(flow).Observe(duration.Seconds())
}

func (p *PrometheusAdapter) RecordCompensation(flow, step string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	p.compensations.WithLabelValues(flow, step, result).Inc()
}

func (p *PrometheusAdapter) RecordCounterDrift() {
	p.counterDrift.Inc()
}

func (p *PrometheusAdapter) RecordRepairs(kind string, n int) {
	if n <= 0 {
		return
	}
	p.repairs.WithLabelValues(kind).Add(float64(n))
}

func (p *PrometheusAdapter) SetBreakerState(name, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	p.breakerState.WithLabelValues(name).Set(v)
}

func (p *PrometheusAdapter) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
