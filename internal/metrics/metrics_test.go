package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/careersim/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.ObserveFeedback(domain.SourceHeuristic)
	m.ObserveFeedback(domain.SourceHeuristic)
	m.ObserveFeedback(domain.SourceExternal)
	m.ObserveAnalysis(domain.SourceExternal)
	m.ObserveGenerator("openai", "success", 150*time.Millisecond)
	m.InterviewStarted()
	m.AnswerRecorded()
	m.AnswerRecorded()
	m.ConflictDetected()

	assert.InDelta(t, 2, testutil.ToFloat64(m.Feedback.WithLabelValues("heuristic")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Feedback.WithLabelValues("external")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Analyses.WithLabelValues("external")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeneratorRequests.WithLabelValues("openai", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.InterviewsStarted), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.AnswersRecorded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Conflicts), 0)
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/missing", func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	})
	r.Handle("/metrics", m.Handler())

	for _, path := range []string{"/api/ping", "/api/ping", "/api/missing"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/ping", "GET", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/missing", "GET", "404")), 0)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "careersim_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
