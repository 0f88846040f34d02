package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedRoute = "unmatched"

// skipMetrics lists probe and scrape paths that would drown out API traffic.
var skipMetrics = map[string]bool{
	"/metrics": true,
	"/health":  true,
	"/healthz": true,
}

// PrometheusMiddleware records per-route HTTP metrics.
type PrometheusMiddleware struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewPrometheusMiddleware creates the collectors and registers them on reg.
func NewPrometheusMiddleware(reg prometheus.Registerer) (*PrometheusMiddleware, error) {
	m := &PrometheusMiddleware{
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		// Dominated by profile picture uploads; buckets run from 1KiB to 16MiB.
		requestSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "Size of HTTP request bodies.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}, []string{"method", "path"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requestCount, m.requestDuration, m.requestSize, m.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler returns the fiber middleware handler.
func (m *PrometheusMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipMetrics[c.Path()] {
			return c.Next()
		}

		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		path := routeLabel(c, status)
		m.requestCount.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		if n := c.Request().Header.ContentLength(); n > 0 {
			m.requestSize.WithLabelValues(c.Method(), path).Observe(float64(n))
		}
		return err
	}
}

// routeLabel is the matched route pattern (e.g. /api/spaces/:spaceId). Requests that
// matched nothing share one label so scanners cannot inflate cardinality.
func routeLabel(c *fiber.Ctx, status int) string {
	path := c.Route().Path
	if status == fiber.StatusNotFound && (path == "" || path == "/") && c.Path() != "/" {
		return unmatchedRoute
	}
	if path == "" {
		return unmatchedRoute
	}
	return path
}
