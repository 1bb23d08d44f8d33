package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	applicationsTotal *prometheus.CounterVec
	overridesTotal    *prometheus.CounterVec
	providerDuration  *prometheus.HistogramVec
	providerFailures  *prometheus.CounterVec
	pendingReview     prometheus.Gauge
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lis",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lis",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lis",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	applicationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lis",
			Subsystem: "intake",
			Name:      "applications_total",
			Help:      "Total processed applications by automated decision.",
		},
		[]string{"service", "decision"},
	)
	overridesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lis",
			Subsystem: "intake",
			Name:      "overrides_total",
			Help:      "Total manual overrides by prior and new decision.",
		},
		[]string{"service", "from", "to"},
	)
	providerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lis",
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Decision provider call duration in seconds by outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "outcome"},
	)
	providerFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lis",
			Subsystem: "provider",
			Name:      "failures_total",
			Help:      "Total failed decision provider calls by kind.",
		},
		[]string{"service", "kind"},
	)
	pendingReview := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lis",
			Subsystem: "intake",
			Name:      "pending_review",
			Help:      "Applications currently awaiting human review.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		applicationsTotal,
		overridesTotal,
		providerDuration,
		providerFailures,
		pendingReview,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		applicationsTotal: applicationsTotal,
		overridesTotal:    overridesTotal,
		providerDuration:  providerDuration,
		providerFailures:  providerFailures,
		pendingReview:     pendingReview,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
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

func normalizePath(path string) string {
	switch {
	case strings.HasSuffix(path, "/override"):
		return "/v1/applications/{application_id}/override"
	case strings.HasPrefix(path, "/v1/applications/"):
		return "/v1/applications/{application_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordApplicationProcessed(service, decision string) {
	if decision == "" {
		decision = "unknown"
	}
	m.applicationsTotal.WithLabelValues(service, decision).Inc()
}

func (m *HTTPServerMetrics) RecordOverride(service, from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}
	m.overridesTotal.WithLabelValues(service, from, to).Inc()
}

func (m *HTTPServerMetrics) RecordProviderCall(service string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.providerDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordProviderFailure(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.providerFailures.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) SetPendingReview(count int) {
	m.pendingReview.Set(float64(count))
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

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
