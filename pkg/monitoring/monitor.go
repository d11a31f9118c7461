package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	ContentCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnhub_content_created_total",
			Help: "Content items created, by type",
		},
		[]string{"type"},
	)

	AnswersGraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnhub_answers_graded_total",
			Help: "Answers written, by question type and correctness",
		},
		[]string{"question_type", "correct"},
	)

	OrderConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnhub_order_conflicts_total",
			Help: "Duplicate order assignments that were retried",
		},
		[]string{"scope"},
	)

	BrokenReferences = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "learnhub_broken_content_references",
			Help: "Content rows whose typed item was missing at the last audit",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ContentCreated)
	prometheus.MustRegister(AnswersGraded)
	prometheus.MustRegister(OrderConflicts)
	prometheus.MustRegister(BrokenReferences)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
