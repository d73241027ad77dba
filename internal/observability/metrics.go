package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	protocolRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simplenet",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total protocol requests by status code.",
		},
		[]string{"status"},
	)
	protocolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "simplenet",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "Protocol request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "simplenet",
			Subsystem: "server",
			Name:      "active_connections",
			Help:      "Currently open protocol connections.",
		},
	)
	refusedConnections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "simplenet",
			Subsystem: "server",
			Name:      "refused_connections_total",
			Help:      "Connections refused at the ceiling.",
		},
	)
	ratelimitRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "simplenet",
			Subsystem: "server",
			Name:      "ratelimit_rejections_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)
	pagesServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simplenet",
			Subsystem: "server",
			Name:      "pages_served_total",
			Help:      "Pages served by domain.",
		},
		[]string{"domain"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simplenet",
			Subsystem: "ops",
			Name:      "requests_total",
			Help:      "Total ops HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "simplenet",
			Subsystem: "ops",
			Name:      "request_duration_seconds",
			Help:      "Ops HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			protocolRequests,
			protocolDuration,
			activeConnections,
			refusedConnections,
			ratelimitRejections,
			pagesServed,
			httpRequests,
			httpDuration,
		)
	})
}

func RecordRequest(status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	protocolRequests.WithLabelValues(statusLabel).Inc()
	protocolDuration.WithLabelValues(statusLabel).Observe(duration.Seconds())
}

func ConnOpened() {
	RegisterMetrics()
	activeConnections.Inc()
}

func ConnClosed() {
	RegisterMetrics()
	activeConnections.Dec()
}

func RecordConnRefused() {
	RegisterMetrics()
	refusedConnections.Inc()
}

func RecordRateLimitRejection() {
	RegisterMetrics()
	ratelimitRejections.Inc()
}

func RecordPageServed(domain string) {
	RegisterMetrics()
	pagesServed.WithLabelValues(domain).Inc()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
