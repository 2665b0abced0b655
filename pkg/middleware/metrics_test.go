package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// histogramCount reads the sample count of one labelled histogram series.
func histogramCount(t *testing.T, labels ...string) uint64 {
	t.Helper()
	m, ok := httpRequestDuration.WithLabelValues(labels...).(prometheus.Metric)
	require.True(t, ok)
	d := &dto.Metric{}
	require.NoError(t, m.Write(d))
	return d.GetHistogram().GetSampleCount()
}

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-test"))
	r.Post("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-test", "POST", "/api/items/{id}", "201"))
	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/items/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-test", "POST", "/api/items/{id}", "201"))

	assert.Equal(t, 2.0, after-before)
	assert.Zero(t, testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("metrics-test")))
}

func TestPrometheusMetrics_ObservesDuration(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("duration-test"))
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {})

	before := histogramCount(t, "duration-test", "GET", "/health/live")
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, before+1, histogramCount(t, "duration-test", "GET", "/health/live"))
}
