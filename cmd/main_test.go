package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tapolio/tapolio-server/config"
	assistantctrl "github.com/tapolio/tapolio-server/internal/controller/assistant"
	interviewctrl "github.com/tapolio/tapolio-server/internal/controller/interview"
	paymentctrl "github.com/tapolio/tapolio-server/internal/controller/payment"
	"github.com/tapolio/tapolio-server/internal/metrics"
	"github.com/tapolio/tapolio-server/internal/service"
	"github.com/tapolio/tapolio-server/internal/store"
)

type echoLLM struct{}

func (echoLLM) Complete(_ context.Context, req service.CompletionRequest) (string, error) {
	if req.Purpose == service.PurposeDetect {
		return service.NotAQuestion, nil
	}
	return "ok", nil
}

func testConfig(env string) *config.Config {
	return &config.Config{
		Env:       env,
		Server:    config.Server{Port: "0", AllowedOrigins: []string{"http://localhost:5174"}, PublicBaseURL: "http://localhost:5174"},
		RateLimit: config.RateLimit{Window: time.Minute, MaxRequests: 15},
		Session:   config.Session{TTL: 30 * time.Minute, Grace: 5 * time.Second, MaxPerClient: 3, SweepInterval: time.Minute},
	}
}

func newTestEngine(t *testing.T, env string) *gin.Engine {
	t.Helper()
	cfg := testConfig(env)
	m := metrics.NewMetrics()
	r := NewGinEngine(cfg, m, NewMemoryLimiter(cfg))
	gin.SetMode(gin.TestMode)

	sessions := NewSessionStore(cfg)
	RegisterGauges(m, sessions, NewMemoryLimiter(cfg))
	RegisterRoutes(r, cfg,
		assistantctrl.NewAssistantController(service.NewAssistantService(echoLLM{}, store.NewConversationStore())),
		interviewctrl.NewInterviewController(service.NewInterviewService(sessions, echoLLM{}, nil, nil, m)),
		paymentctrl.NewPaymentController(service.NewPaymentService(nil, nil, nil, m, service.PaymentConfig{BaseURL: cfg.Server.PublicBaseURL})),
	)
	return r
}

func call(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.9:4444"
	r.ServeHTTP(rec, req)
	return rec
}

func TestUnknownRoute(t *testing.T) {
	rec := call(newTestEngine(t, config.EnvDevelopment), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRateLimitAcrossRoutes(t *testing.T) {
	r := newTestEngine(t, config.EnvDevelopment)

	for i := 0; i < 15; i++ {
		rec := call(r, http.MethodPost, "/suggest", `{"transcript":"hello"}`)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
	rec := call(r, http.MethodPost, "/interview/start", `{"technology":"React"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests, please try again later"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/metrics", "").Code)
}

func TestBodyLimitOnJSONRoutes(t *testing.T) {
	r := newTestEngine(t, config.EnvDevelopment)
	big := `{"transcript":"` + strings.Repeat("a", 11<<10) + `"}`

	rec := call(r, http.MethodPost, "/suggest", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// the webhook keeps its raw body and, without a secret, just acknowledges
	rec = call(r, http.MethodPost, paymentctrl.WebhookPath, big)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
}

func TestResetOnlyOutsideProduction(t *testing.T) {
	assert.Equal(t, http.StatusOK, call(newTestEngine(t, config.EnvDevelopment), http.MethodPost, "/reset", "").Code)
	assert.Equal(t, http.StatusNotFound, call(newTestEngine(t, config.EnvProduction), http.MethodPost, "/reset", "").Code)
}

func TestMetricsExposeActiveSessions(t *testing.T) {
	r := newTestEngine(t, config.EnvDevelopment)
	require.Equal(t, http.StatusOK, call(r, http.MethodPost, "/interview/start", `{"technology":"React"}`).Code)

	rec := call(r, http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), "tapolio_interview_sessions_active 1")
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := newTestEngine(t, config.EnvDevelopment)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/suggest", nil)
	req.Header.Set("Origin", "http://localhost:5174")
	req.Header.Set("Access-Control-Request-Method", "POST")
	r.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5174", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestForwardedClientFromTrustedProxy(t *testing.T) {
	cfg := testConfig(config.EnvProduction)
	cfg.Server.TrustedProxies = []string{"10.0.0.0/8"}
	m := metrics.NewMetrics()
	r := NewGinEngine(cfg, m, NewMemoryLimiter(cfg))
	r.GET("/ip", func(c *gin.Context) { c.String(http.StatusOK, c.ClientIP()) })

	viaProxy := func(forwardedFor, peer string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ip", nil)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		req.RemoteAddr = peer
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, "198.51.100.1", viaProxy("198.51.100.1", "10.0.0.2:5000").Body.String())
	assert.Equal(t, "203.0.113.9", viaProxy("198.51.100.1", "203.0.113.9:5000").Body.String(),
		"untrusted peers cannot pick their identity")

	// each forwarded client gets its own window; .1 already used one slot above
	for i := 0; i < 14; i++ {
		require.Equal(t, http.StatusOK, viaProxy("198.51.100.1", "10.0.0.2:5000").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, viaProxy("198.51.100.1", "10.0.0.2:5000").Code)
	assert.Equal(t, http.StatusOK, viaProxy("198.51.100.2", "10.0.0.2:5000").Code)
}

func TestMetricsListener(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, call(newTestEngine(t, config.EnvProduction), http.MethodGet, "/metrics", "").Code,
		"production keeps metrics off the public router")

	cfg := testConfig(config.EnvProduction)
	assert.Nil(t, NewMetricsServer(cfg, metrics.NewMetrics()))

	cfg.Server.MetricsPort = "9091"
	m := metrics.NewMetrics()
	m.CheckoutSessions.Inc()
	server := NewMetricsServer(cfg, m)
	require.NotNil(t, server)
	assert.Equal(t, ":9091", server.Addr)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tapolio_checkout_sessions_created_total 1")
}
