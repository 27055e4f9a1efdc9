package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics collects HTTP server measurements plus the answer
// pipeline's own counters on one registry.
type PipelineMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	sensitivityTotal      *prometheus.CounterVec
	cacheLookupsTotal     *prometheus.CounterVec
	routePrimaryTotal     *prometheus.CounterVec
	backendAttemptsTotal  *prometheus.CounterVec
	retrievalSourceTotal  *prometheus.CounterVec
	retrievalDuration     *prometheus.HistogramVec
	answersTotal          *prometheus.CounterVec
	answerDurationSeconds *prometheus.HistogramVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asklegal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "asklegal",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "asklegal",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	sensitivityTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asklegal",
			Subsystem: "pipeline",
			Name:      "sensitivity_total",
			Help:      "Questions classified per sensitivity level.",
		},
		[]string{"service", "level"},
	)
	cacheLookupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asklegal",
			Subsystem: "pipeline",
			Name:      "cache_lookups_total",
			Help:      "Answer cache lookups by outcome.",
		},
		[]string{"service", "outcome"},
	)
	routePrimaryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asklegal",
			Subsystem: "pipeline",
			Name:      "route_primary_total",
			Help:      "Routing decisions by first-choice backend.",
		},
		[]string{"service", "backend"},
	)
	backendAttemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asklegal",
			Subsystem: "pipeline",
			Name:      "backend_attempts_total",
			Help:      "Generation attempts per backend and outcome.",
		},
		[]string{"service", "backend", "outcome"},
	)
	retrievalSourceTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asklegal",
			Subsystem: "retrieval",
			Name:      "source_total",
			Help:      "Retrieval source completions by outcome.",
		},
		[]string{"service", "source", "outcome"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "asklegal",
			Subsystem: "retrieval",
			Name:      "source_duration_seconds",
			Help:      "Per-source retrieval duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asklegal",
			Subsystem: "pipeline",
			Name:      "answers_total",
			Help:      "Answers produced per source tag.",
		},
		[]string{"service", "source"},
	)
	answerDurationSeconds := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "asklegal",
			Subsystem: "pipeline",
			Name:      "answer_duration_seconds",
			Help:      "End-to-end answer latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		sensitivityTotal,
		cacheLookupsTotal,
		routePrimaryTotal,
		backendAttemptsTotal,
		retrievalSourceTotal,
		retrievalDuration,
		answersTotal,
		answerDurationSeconds,
	)

	return &PipelineMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		sensitivityTotal:      sensitivityTotal,
		cacheLookupsTotal:     cacheLookupsTotal,
		routePrimaryTotal:     routePrimaryTotal,
		backendAttemptsTotal:  backendAttemptsTotal,
		retrievalSourceTotal:  retrievalSourceTotal,
		retrievalDuration:     retrievalDuration,
		answersTotal:          answersTotal,
		answerDurationSeconds: answerDurationSeconds,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
