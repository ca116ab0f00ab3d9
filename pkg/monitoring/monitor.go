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

	ChallengeCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_completions_total",
			Help: "Daily challenges completed, by kind",
		},
		[]string{"kind"},
	)

	ChallengeEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_evaluations_total",
			Help: "Challenge evaluation cycles, by outcome",
		},
		[]string{"outcome"},
	)

	ChallengeEvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "challenge_evaluation_duration_seconds",
			Help:    "Duration of a challenge evaluation cycle",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	CatalogGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_catalog_generations_total",
			Help: "Daily catalog ensure calls, by result",
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ChallengeCompletions)
	prometheus.MustRegister(ChallengeEvaluations)
	prometheus.MustRegister(ChallengeEvaluationDuration)
	prometheus.MustRegister(CatalogGenerations)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
