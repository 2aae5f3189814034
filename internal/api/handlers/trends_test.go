package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendsight/trendsight-go/internal/cache"
	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/connectors/trends"
	"github.com/trendsight/trendsight-go/internal/database"
	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/services"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:             8080,
			SupportedRegions: []string{"MX", "CR", "ES"},
		},
		Cache:   config.CacheConfig{TTL: 24 * time.Hour, StaleTTL: 48 * time.Hour, SchemaVersion: "v4"},
		Trends:  config.TrendsConfig{MaxRetries: 3, RetryDelay: time.Millisecond, RequestDelay: time.Millisecond, Timeout: time.Second, MockMode: true},
		YouTube: config.YouTubeConfig{MaxResults: 25},
		Fusion:  config.FusionConfig{WeightPrimary: 0.7, WeightSecondary: 0.3},
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// newTrendsRouter wires a mock-mode pipeline behind the trends endpoint.
func newTrendsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	logger := quietLogger()

	mr := miniredis.RunT(t)
	store := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	trendCache := cache.NewTrendCache(store, cfg.Cache.TTL, cfg.Cache.StaleTTL, cfg.Cache.SchemaVersion, logger)

	orchestrator := trends.NewOrchestrator(trends.NewMockProvider(), cfg.Trends, logger)
	engine := services.NewTrendEngine(orchestrator, services.NewScoringService(logger), trendCache, nil, logger)

	router := gin.New()
	handler := NewTrendsHandler(engine, nil, cfg, logger)
	router.POST("/api/v1/trends/query", handler.Query)
	router.GET("/api/v1/trends/recent", handler.Recent)
	return router
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTrendsQuerySuccess(t *testing.T) {
	router := newTrendsRouter(t)

	w := postJSON(router, "/api/v1/trends/query", TrendQueryRequest{
		Keyword: "cargador", Region: "MX", WindowDays: 7, BaselineDays: 30,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result models.TrendResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.Equal(t, "cargador", result.Keyword)
	assert.Equal(t, "MX", result.Region)
	assert.Equal(t, []string{"mock"}, result.SourcesUsed)
	assert.GreaterOrEqual(t, result.TrendScore, 0.0)
	assert.LessOrEqual(t, result.TrendScore, 100.0)
	assert.Len(t, result.Series, 31)
	assert.Len(t, result.Explain, 4)
	assert.NotEmpty(t, result.RequestID)
	assert.False(t, result.Cache.Hit)
}

func TestTrendsQuerySecondCallHitsCache(t *testing.T) {
	router := newTrendsRouter(t)
	body := TrendQueryRequest{Keyword: "funda", Region: "CR"}

	first := postJSON(router, "/api/v1/trends/query", body)
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(router, "/api/v1/trends/query", body)
	require.Equal(t, http.StatusOK, second.Code)

	var result models.TrendResult
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &result))
	assert.True(t, result.Cache.Hit)
	assert.False(t, result.Cache.Stale)
}

func TestTrendsQueryValidation(t *testing.T) {
	router := newTrendsRouter(t)

	tests := []struct {
		name string
		body TrendQueryRequest
		want string
	}{
		{"missing keyword", TrendQueryRequest{Region: "MX"}, "keyword is required"},
		{"blank keyword", TrendQueryRequest{Keyword: "   "}, "keyword is required"},
		{"unsupported region", TrendQueryRequest{Keyword: "cargador", Region: "US"}, "region must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/api/v1/trends/query", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestTrendsQueryBadJSON(t *testing.T) {
	router := newTrendsRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trends/query", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNormalizeTrendRequestDefaults(t *testing.T) {
	req := TrendQueryRequest{Keyword: " Cargador ", Region: "mx"}
	require.NoError(t, normalizeTrendRequest(&req, []string{"MX", "CR", "ES"}))

	assert.Equal(t, "Cargador", req.Keyword)
	assert.Equal(t, "MX", req.Region)
	assert.Equal(t, defaultWindowDays, req.WindowDays)
	assert.Equal(t, defaultBaselineDays, req.BaselineDays)
}

func TestNormalizeTrendRequestBounds(t *testing.T) {
	req := TrendQueryRequest{Keyword: "kw", Region: "ES", WindowDays: 500, BaselineDays: 1000}
	require.NoError(t, normalizeTrendRequest(&req, []string{"MX", "CR", "ES"}))
	assert.Equal(t, maxWindowDays, req.WindowDays)
	assert.Equal(t, maxBaselineDays, req.BaselineDays)

	// Baseline can never undercut the window.
	req = TrendQueryRequest{Keyword: "kw", Region: "ES", WindowDays: 60, BaselineDays: 10}
	require.NoError(t, normalizeTrendRequest(&req, []string{"MX", "CR", "ES"}))
	assert.Equal(t, 60, req.BaselineDays)
}

func TestNormalizeTrendRequestDefaultRegion(t *testing.T) {
	req := TrendQueryRequest{Keyword: "kw"}
	require.NoError(t, normalizeTrendRequest(&req, []string{"MX", "CR", "ES"}))
	assert.Equal(t, "MX", req.Region)
}

func TestTrendsRecentDisabledWithoutQueryLog(t *testing.T) {
	router := newTrendsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trends/recent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "query log is disabled")
}
