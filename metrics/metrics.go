package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nick8",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nick8",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nick8",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	foodLogs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nick8",
			Subsystem: "progress",
			Name:      "food_logs_total",
			Help:      "Total number of food entries stored.",
		},
	)

	streakUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nick8",
			Subsystem: "progress",
			Name:      "streak_updates_total",
			Help:      "Streak advance attempts by outcome.",
		},
		[]string{"result"},
	)

	badgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nick8",
			Subsystem: "progress",
			Name:      "badges_awarded_total",
			Help:      "Badges granted by name.",
		},
		[]string{"badge"},
	)

	bookkeepingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nick8",
			Subsystem: "progress",
			Name:      "bookkeeping_failures_total",
			Help:      "Secondary bookkeeping steps that failed after a food entry was stored.",
		},
		[]string{"step"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		foodLogs,
		streakUpdates,
		badgesAwarded,
		bookkeepingFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordFoodLogged() {
	foodLogs.Inc()
}

// RecordStreakUpdate counts a streak advance by result: advanced, unchanged or failed.
func RecordStreakUpdate(result string) {
	streakUpdates.WithLabelValues(result).Inc()
}

func RecordBadgeAwarded(badge string) {
	badgesAwarded.WithLabelValues(badge).Inc()
}

func RecordBookkeepingFailure(step string) {
	bookkeepingFailures.WithLabelValues(step).Inc()
}
