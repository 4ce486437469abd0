package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/straye-as/blind-quote/internal/config"
	"github.com/straye-as/blind-quote/internal/http/middleware"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// Security headers
// ============================================================================

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            3600,
		HSTSIncludeSubdomains: true,
		HSTSPreload:           true,
		ContentSecurityPolicy: "default-src 'self'",
		FrameOptions:          "DENY",
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
	}

	rec := serve(middleware.SecurityHeaders(cfg)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "max-age=3600; includeSubDomains; preload", rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_Disabled(t *testing.T) {
	rec := serve(middleware.SecurityHeaders(&config.SecurityConfig{})(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

// ============================================================================
// CORS
// ============================================================================

func TestCORS(t *testing.T) {
	base := config.CORSConfig{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}

	tests := []struct {
		name        string
		origins     []string
		environment string
		origin      string
		wantAllowed bool
	}{
		{"explicit origin allowed", []string{"https://quotes.example.com"}, "production", "https://quotes.example.com", true},
		{"explicit origin rejects others", []string{"https://quotes.example.com"}, "production", "https://evil.example.com", false},
		{"development allows any origin", nil, "development", "http://localhost:5173", true},
		{"production without origins denies", nil, "production", "http://localhost:5173", false},
		{"wildcard", []string{"*"}, "production", "https://anywhere.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.AllowedOrigins = tt.origins
			h := middleware.CORS(&cfg, tt.environment, zap.NewNop())(okHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
			req.Header.Set("Origin", tt.origin)
			rec := serve(h, req)

			if tt.wantAllowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

// ============================================================================
// Logging & recovery
// ============================================================================

func TestLogging_RequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	var fromCtx *zap.Logger
	h := middleware.Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = middleware.LoggerFrom(r.Context(), nil)
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	rec := serve(h, req)

	assert.Equal(t, "req-123", rec.Header().Get(middleware.RequestIDHeader))
	assert.NotNil(t, fromCtx)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(http.StatusCreated), fields["status_code"])
	assert.Equal(t, "req-123", fields["request_id"])

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestLoggerFrom_Fallback(t *testing.T) {
	fallback := zap.NewNop()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Same(t, fallback, middleware.LoggerFrom(req.Context(), fallback))
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"type":"internal_error","title":"Internal Server Error","status":500}`, rec.Body.String())
}

// ============================================================================
// Rate limiting
// ============================================================================

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		WhitelistPaths:    []string{"/health", "/static/*"},
	}, zap.NewNop())
	h := rl.Limit(okHandler)

	request := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		return serve(h, req)
	}

	assert.Equal(t, http.StatusOK, request("/api/v1/state", "192.0.2.1").Code)
	assert.Equal(t, http.StatusOK, request("/api/v1/state", "192.0.2.1").Code)

	limited := request("/api/v1/state", "192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), `"rate_limited"`)

	assert.Equal(t, http.StatusOK, request("/api/v1/state", "192.0.2.2").Code, "other clients keep their budget")
	assert.Equal(t, http.StatusOK, request("/health", "192.0.2.1").Code)
	assert.Equal(t, http.StatusOK, request("/static/app.js", "192.0.2.1").Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{RequestsPerMinute: 1}, zap.NewNop())
	h := rl.Limit(okHandler)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestRateLimiter_FileBudget(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     10,
		FileRequestsPerMinute: 1,
		FilePaths:             []string{"/api/v1/export/", "/api/v1/load"},
	}, zap.NewNop())
	h := rl.Limit(okHandler)

	request := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "198.51.100.7:41000"
		return serve(h, req).Code
	}

	assert.Equal(t, http.StatusOK, request("/api/v1/export/json"))
	assert.Equal(t, http.StatusTooManyRequests, request("/api/v1/export/csv"))
	assert.Equal(t, http.StatusTooManyRequests, request("/api/v1/load"))
	assert.Equal(t, http.StatusOK, request("/api/v1/state"))
}
