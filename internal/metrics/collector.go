// Package metrics exposes the quote server's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector owns a private registry so that several servers (and tests) can
// live in one process.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimitedTotal    prometheus.Counter

	quotesTotal      *prometheus.CounterVec
	quoteVolume      prometheus.Histogram
	emptyMeshesTotal prometheus.Counter
	previewsTotal    *prometheus.CounterVec
	rateReloadsTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers all metrics under namespace, plus the Go runtime
// and process collectors.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	c := &Collector{
		registry: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	c.rateLimitedTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the per-client rate limiter",
	})

	c.quotesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quotes computed, by material, quality and whether the minimum job price applied",
		},
		[]string{"material", "quality", "min_job"},
	)

	c.quoteVolume = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "quote_volume_mm3",
		Help:      "Estimated model volume per quote in cubic millimeters",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
	})

	c.emptyMeshesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "empty_meshes_total",
		Help:      "Uploads from which no triangle could be read",
	})

	c.previewsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "previews_total",
			Help:      "Preview render attempts by result",
		},
		[]string{"result"},
	)

	c.rateReloadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_table_reloads_total",
			Help:      "Rate table reload attempts by result",
		},
		[]string{"result"},
	)

	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(c.logger),
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimited counts a rejected request.
func (c *Collector) RecordRateLimited() {
	c.rateLimitedTotal.Inc()
}

// RecordQuote records a computed quote.
func (c *Collector) RecordQuote(material, quality string, minJobApplied bool, volume float64) {
	c.quotesTotal.WithLabelValues(material, quality, strconv.FormatBool(minJobApplied)).Inc()
	c.quoteVolume.Observe(volume)
}

// RecordEmptyMesh counts an upload that yielded no triangles.
func (c *Collector) RecordEmptyMesh() {
	c.emptyMeshesTotal.Inc()
}

// RecordPreview counts a preview attempt.
func (c *Collector) RecordPreview(ok bool) {
	c.previewsTotal.WithLabelValues(result(ok)).Inc()
}

// RecordRateReload counts a rate table reload attempt.
func (c *Collector) RecordRateReload(ok bool) {
	c.rateReloadsTotal.WithLabelValues(result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
