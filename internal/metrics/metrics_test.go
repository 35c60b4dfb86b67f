package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	m := NewMetrics()
	m.LLMRequests.WithLabelValues("hint", "ok").Inc()
	m.LLMRequests.WithLabelValues("hint", "ok").Inc()
	m.RateLimited.Inc()
	m.RegisterGauge("interview_sessions_active", "Sessions held in memory.", func() float64 { return 4 })

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMRequests.WithLabelValues("hint", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tapolio_interview_sessions_active 4")
	assert.Contains(t, rec.Body.String(), `tapolio_llm_requests_total{outcome="ok",purpose="hint"} 2`)
}

func TestIndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
