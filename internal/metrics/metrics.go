// Package metrics exposes Prometheus collectors for the interview engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "careersim"

// Metrics holds every collector registered by the service.
type Metrics struct {
	registry *prometheus.Registry

	InterviewsStarted prometheus.Counter
	AnswersRecorded   prometheus.Counter
	Conflicts         prometheus.Counter
	Feedback          *prometheus.CounterVec
	Analyses          *prometheus.CounterVec
	GeneratorRequests *prometheus.CounterVec
	GeneratorLatency  *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		InterviewsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interviews_started_total",
			Help:      "Interviews started.",
		}),
		AnswersRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_recorded_total",
			Help:      "Answers appended to interview history.",
		}),
		Conflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_conflicts_total",
			Help:      "Interview updates rejected by the optimistic cursor check.",
		}),
		Feedback: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Feedback results by source.",
		}, []string{"source"}),
		Analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Interview analyses by source.",
		}, []string{"source"}),
		GeneratorRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_requests_total",
			Help:      "External generator calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeneratorLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_request_duration_seconds",
			Help:      "External generator call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"provider"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFeedback counts one feedback result.
func (m *Metrics) ObserveFeedback(source domain.Source) {
	m.Feedback.WithLabelValues(string(source)).Inc()
}

// ObserveAnalysis counts one analysis result.
func (m *Metrics) ObserveAnalysis(source domain.Source) {
	m.Analyses.WithLabelValues(string(source)).Inc()
}

// ObserveGenerator records one external generator call.
func (m *Metrics) ObserveGenerator(provider, outcome string, elapsed time.Duration) {
	m.GeneratorRequests.WithLabelValues(provider, outcome).Inc()
	m.GeneratorLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// InterviewStarted counts a started interview.
func (m *Metrics) InterviewStarted() { m.InterviewsStarted.Inc() }

// AnswerRecorded counts a persisted answer.
func (m *Metrics) AnswerRecorded() { m.AnswersRecorded.Inc() }

// ConflictDetected counts a rejected concurrent update.
func (m *Metrics) ConflictDetected() { m.Conflicts.Inc() }

// Middleware records request counts and latency labelled by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
