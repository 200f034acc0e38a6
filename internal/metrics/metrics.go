// Package metrics holds the Prometheus collectors for the HTTP API and the
// learning service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry and every collector registered on it.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	AssessmentsCompleted prometheus.Counter
	AssessmentScore      prometheus.Histogram
	ProgressUpdates      *prometheus.CounterVec
	RemedialItems        prometheus.Counter
	EventFailures        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
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
				Buckets: []float64{0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		AssessmentsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mixcoach_assessments_completed_total",
			Help: "Initial assessments scored",
		}),
		AssessmentScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mixcoach_assessment_overall_score",
			Help:    "Overall assessment score percentage",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		ProgressUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mixcoach_progress_updates_total",
				Help: "Content completions recorded, by category and resulting item status",
			},
			[]string{"category", "status"},
		),
		RemedialItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mixcoach_remedial_items_total",
			Help: "Remedial lessons inserted into learning plans",
		}),
		EventFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mixcoach_event_publish_failures_total",
				Help: "Domain events that could not be published",
			},
			[]string{"type"},
		),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestCounter,
		m.RequestDuration,
		m.AssessmentsCompleted,
		m.AssessmentScore,
		m.ProgressUpdates,
		m.RemedialItems,
		m.EventFailures,
	)
	return m
}

func (m *Metrics) ObserveAssessment(overallScore float64) {
	if m == nil {
		return
	}
	m.AssessmentsCompleted.Inc()
	m.AssessmentScore.Observe(overallScore)
}

func (m *Metrics) ObserveProgress(category, status string, remedial int) {
	if m == nil {
		return
	}
	m.ProgressUpdates.WithLabelValues(category, status).Inc()
	m.RemedialItems.Add(float64(remedial))
}

func (m *Metrics) EventFailed(eventType string) {
	if m == nil {
		return
	}
	m.EventFailures.WithLabelValues(eventType).Inc()
}

// Middleware records request counts and latency keyed by route pattern.
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
		m.RequestDuration.WithLabelValues(c.Request.Method, endpoint).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
