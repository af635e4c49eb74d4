package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	Exchanges        *prometheus.CounterVec
	QuizSubmissions  prometheus.Counter
	PointsAwarded    prometheus.Counter
	NotificationSubs prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		Exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "points_exchanges_total",
				Help: "Exchange operations by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		QuizSubmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Scored quiz submissions",
		}),
		PointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_points_awarded_total",
			Help: "Points credited by quiz submissions",
		}),
		NotificationSubs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_stream_connections",
			Help: "Open notification websocket connections",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestCounter,
		m.RequestDuration,
		m.Exchanges,
		m.QuizSubmissions,
		m.PointsAwarded,
		m.NotificationSubs,
	)
	return m
}

// ObserveExchange counts an exchange action ("initiate", "resolve", "dismiss") by outcome.
func (m *Metrics) ObserveExchange(action, outcome string) {
	m.Exchanges.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveSubmission(score int) {
	m.QuizSubmissions.Inc()
	m.PointsAwarded.Add(float64(score))
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
