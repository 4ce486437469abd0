package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/straye-as/blind-quote/internal/config"
	"github.com/straye-as/blind-quote/internal/database"
	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/http/handler"
	"github.com/straye-as/blind-quote/internal/http/middleware"
	"github.com/straye-as/blind-quote/internal/http/router"
	"github.com/straye-as/blind-quote/internal/metrics"
	"github.com/straye-as/blind-quote/internal/pricing"
	"github.com/straye-as/blind-quote/internal/reducer"
	"github.com/straye-as/blind-quote/internal/service"
	"github.com/straye-as/blind-quote/internal/storage"
	"github.com/straye-as/blind-quote/internal/store"
	"github.com/straye-as/blind-quote/internal/strategy"
)

const priceData = `{
  "matrices": {
    "B1": {"name": "Blockout", "widths": [1000, 2000], "drops": [1000, 2000], "prices": [[100, 200], [150, 250]]}
  },
  "accessories": {"motorStandard": {"price": 250}},
  "fabricTypeSequence": ["B1"],
  "businessRules": {"logic": {"hdWinderThresholdArea": 4000000}}
}`

type testServer struct {
	handler http.Handler
	session *service.Session
}

type options struct {
	withSaves bool
	db        *gorm.DB
}

func newTestServer(t *testing.T, opts options) *testServer {
	t.Helper()
	logger := zap.NewNop()

	prices, err := pricing.Parse([]byte(priceData), pricing.DefaultF2UnitPrices(), logger)
	require.NoError(t, err)

	collectors := metrics.New()
	factory := strategy.NewFactory(prices, logger)
	root := reducer.NewRoot(factory, prices, logger)
	st := store.New(root.InitialState(), root, logger, store.WithObserver(collectors.ObserveDispatch))

	calc := service.NewCalculationService(prices, factory, logger)
	migration := service.NewMigrationService(factory, logger)
	files := service.NewFileService(migration, logger)
	wf := service.NewWorkflowService(st, calc, files, factory, logger)
	session := service.NewSession(st, wf)

	var saves *service.AutoSaveService
	if opts.withSaves {
		docs, err := storage.NewLocalStorage(t.TempDir())
		require.NoError(t, err)
		saves, err = service.NewAutoSaveService(session, files, migration, docs, nil, service.AutoSaveOptions{
			Target: service.TargetStorage,
			Key:    "autosave.json",
		}, collectors, logger)
		require.NoError(t, err)
	}

	cfg := &config.Config{
		App:       config.AppConfig{Environment: "development"},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Security:  config.SecurityConfig{ContentTypeNosniff: true},
	}
	rt := router.NewRouter(
		cfg,
		logger,
		opts.db,
		collectors.Handler(),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		handler.NewQuoteHandler(session, collectors, logger),
		handler.NewFileHandler(session, files, saves, 1, logger),
	)
	return &testServer{handler: rt.Setup(), session: session}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// fillFirstRow types a 1000 x 1000 B1 blind into row 0
func (s *testServer) fillFirstRow(t *testing.T) {
	t.Helper()
	for _, action := range []string{
		`{"type":"quote/updateItemValue","payload":{"rowIndex":0,"column":"width","value":1000}}`,
		`{"type":"quote/updateItemValue","payload":{"rowIndex":0,"column":"height","value":1000}}`,
		`{"type":"quote/cycleItemType","payload":{"rowIndex":0}}`,
	} {
		rec := s.do(t, http.MethodPost, "/api/v1/actions", action)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

// ============================================================================
// Health & metrics
// ============================================================================

func TestHealth(t *testing.T) {
	s := newTestServer(t, options{})

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","checks":{}}`, rec.Body.String())
}

func TestHealthReady_Database(t *testing.T) {
	db, err := database.NewDatabase(&config.DatabaseConfig{
		Driver:       database.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "quotes.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	s := newTestServer(t, options{db: db})

	rec := s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":{"status":"healthy"}`)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec = s.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, options{})
	s.fillFirstRow(t)

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `blind_quote_dispatches_total{changed="true",namespace="quote"} 3`)
}

// ============================================================================
// State & actions
// ============================================================================

func TestDispatch(t *testing.T) {
	s := newTestServer(t, options{})

	rec := s.do(t, http.MethodPost, "/api/v1/actions",
		`{"type":"quote/updateItemValue","payload":{"rowIndex":0,"column":"width","value":1200}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.DispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Changed)
	items := resp.State.QuoteData.CurrentItems()
	require.Len(t, items, 2)
	assert.Equal(t, 1200, *items[0].Width)

	rec = s.do(t, http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state domain.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Len(t, state.QuoteData.CurrentItems(), 2)

	rec = s.do(t, http.MethodPost, "/api/v1/actions", `{"type":"ui/setActiveTab","payload":{"tabId":"k1-tab"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Changed)
}

func TestDispatch_Rejects(t *testing.T) {
	s := newTestServer(t, options{})

	tests := []struct {
		name string
		body string
	}{
		{"unknown action type", `{"type":"quote/explode"}`},
		{"unknown payload field", `{"type":"ui/setActiveTab","payload":{"tab":"k2"}}`},
		{"unknown envelope field", `{"type":"ui/reset","extra":1}`},
		{"missing type", `{"payload":{}}`},
		{"malformed", `{"type":`},
		{"computed F2 field", `{"type":"ui/setF2Value","payload":{"key":"netProfit","value":999999}}`},
		{"F2 summary", `{"type":"ui/applyF2Summary","payload":{"summary":{"gst":1}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/actions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCalculate(t *testing.T) {
	s := newTestServer(t, options{})
	s.fillFirstRow(t)

	rec := s.do(t, http.MethodPost, "/api/v1/calculate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.CalculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.TotalSum)
	assert.Equal(t, 100.0, *resp.TotalSum)
}

func TestCalculate_ReportsError(t *testing.T) {
	s := newTestServer(t, options{})
	s.do(t, http.MethodPost, "/api/v1/actions",
		`{"type":"quote/updateItemValue","payload":{"rowIndex":0,"column":"width","value":5000}}`)
	s.do(t, http.MethodPost, "/api/v1/actions",
		`{"type":"quote/updateItemValue","payload":{"rowIndex":0,"column":"height","value":1000}}`)
	s.do(t, http.MethodPost, "/api/v1/actions", `{"type":"quote/cycleItemType","payload":{"rowIndex":0}}`)

	rec := s.do(t, http.MethodPost, "/api/v1/calculate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.CalculateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, 0, resp.Error.RowIndex)

	metricsRec := s.do(t, http.MethodGet, "/metrics", nil)
	assert.Contains(t, metricsRec.Body.String(), "blind_quote_calculation_errors_total 1")
}

// ============================================================================
// F1 / F2
// ============================================================================

func TestF1AndF2(t *testing.T) {
	s := newTestServer(t, options{})
	s.fillFirstRow(t)

	rec := s.do(t, http.MethodPost, "/api/v1/tabs/f1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/f1/remotes", map[string]int{"qty1": 1, "qty16": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Total must equal 0")

	rec = s.do(t, http.MethodPost, "/api/v1/f1/discount", map[string]float64{"percentage": 150})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "percentage")

	rec = s.do(t, http.MethodPost, "/api/v1/tabs/f2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary domain.F2Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 100.0, summary.TotalSumForRbTime)
}

// ============================================================================
// Files
// ============================================================================

func TestExport(t *testing.T) {
	s := newTestServer(t, options{})
	s.fillFirstRow(t)

	tests := []struct {
		format      string
		contentType string
	}{
		{"json", "application/json"},
		{"csv", "text/csv"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/v1/export/"+tt.format, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), tt.contentType))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=")
			assert.NotZero(t, rec.Body.Len())
		})
	}

	rec := s.do(t, http.MethodGet, "/api/v1/export/pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoad_RequiresConfirmation(t *testing.T) {
	s := newTestServer(t, options{})
	s.fillFirstRow(t)

	exported := s.do(t, http.MethodGet, "/api/v1/export/json", nil).Body.String()

	rec := s.do(t, http.MethodPost, "/api/v1/load", map[string]interface{}{
		"fileName": "quote.json",
		"content":  exported,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/load", map[string]interface{}{
		"fileName": "quote.json",
		"content":  exported,
		"confirm":  true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.LoadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.True(t, s.session.Snapshot().UI.IsSumOutdated)
}

func TestLoad_InvalidFile(t *testing.T) {
	s := newTestServer(t, options{})

	rec := s.do(t, http.MethodPost, "/api/v1/load", map[string]interface{}{
		"fileName": "quote.json",
		"content":  `{"hello":"world"}`,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/load", map[string]interface{}{"content": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveAndOpen(t *testing.T) {
	s := newTestServer(t, options{withSaves: true})

	rec := s.do(t, http.MethodPost, "/api/v1/save", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty quote is not saved")

	s.fillFirstRow(t)
	rec = s.do(t, http.MethodPost, "/api/v1/save", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var saved handler.SaveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, strings.HasPrefix(saved.Key, "quotes/"))

	rec = s.do(t, http.MethodGet, "/api/v1/saved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), saved.Key)

	rec = s.do(t, http.MethodPost, "/api/v1/saved/open", map[string]interface{}{"key": saved.Key, "confirm": true})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/saved/open", map[string]interface{}{"key": "quotes/missing.json", "confirm": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSave_WithoutStorage(t *testing.T) {
	s := newTestServer(t, options{})

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/save", nil).Code)
	rec := s.do(t, http.MethodGet, "/api/v1/saved", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
