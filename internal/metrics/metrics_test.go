package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagnostic-lead-service/internal/domain"
)

func TestRecorderCounters(t *testing.T) {
	m := NewWithRegistry("diag", prometheus.NewRegistry())

	m.SessionBegun("daf-pme")
	m.SessionBegun("daf-pme")
	m.SessionCompleted("daf-pme", "avance")
	m.LeadSync("create", domain.SyncFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsBegun.WithLabelValues("daf-pme")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsCompleted.WithLabelValues("daf-pme", "avance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadSyncs.WithLabelValues("create", "failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LeadSyncs.WithLabelValues("create", "ok")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := NewWithRegistry("diag", prometheus.NewRegistry())

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/v1/quizzes/{quizId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/quizzes/rse", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `diag_http_request_duration_seconds_count{method="GET",route="/v1/quizzes/{quizId}"} 1`)
}
