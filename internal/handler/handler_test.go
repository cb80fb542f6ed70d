package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/metrics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/search"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/tools"
)

// MockExecutor is a mock implementation of ToolExecutor
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Tools() []*tools.Tool {
	args := m.Called()
	return args.Get(0).([]*tools.Tool)
}

func (m *MockExecutor) Execute(ctx context.Context, name string, rawArgs json.RawMessage) (any, error) {
	args := m.Called(ctx, name, rawArgs)
	return args.Get(0), args.Error(1)
}

// MockHealthChecker is a mock implementation of search.HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) Health(ctx context.Context) (*search.ClusterHealth, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.ClusterHealth), args.Error(1)
}

func newTestRouter(t *testing.T, auth gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dispatcher, err := tools.NewDispatcher(search.FixtureEngine{}, nil, nil, nil, zap.NewNop(), tools.Options{
		Now: func() time.Time { return time.Date(2024, 6, 28, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(registry))

	r := gin.New()
	RegisterRoutes(r,
		NewToolHandler(dispatcher, zap.NewNop()),
		NewHealthHandler(nil, true, "test", zap.NewNop()),
		registry,
		auth,
	)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestListTools(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/tools", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(5), body["count"])
	list := body["tools"].([]any)
	first := list[0].(map[string]any)
	assert.Equal(t, tools.ToolAggregateHealthMetrics, first["name"])
	assert.Equal(t, "object", first["inputSchema"].(map[string]any)["type"])
}

func TestCallTool(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/tools/aggregate_health_metrics",
		`{"metric_type":"steps","time_period":"last_week","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "aggregate_health_metrics", body["mcp_tool"])
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, 14122.0, body["summary"].(map[string]any)["total"])
}

func TestQuery(t *testing.T) {
	r := newTestRouter(t, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/query", `{"query":"heart rate last week","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "search_health_data", body["mcp_tool"])
	assert.Equal(t, "heart_rate", body["metric"])
	assert.Equal(t, "fallback", body["data_source"])
}

func TestQuery_InternalErrorsAreMasked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	executor := new(MockExecutor)
	executor.On("Execute", mock.Anything, tools.ToolSearchHealthData, mock.Anything).
		Return(nil, errors.New("connection reset by peer 10.0.0.7:9200"))

	r := gin.New()
	h := NewToolHandler(executor, zap.NewNop())
	r.POST("/api/v1/query", h.Query)

	w := doJSON(r, http.MethodPost, "/api/v1/query", `{"query":"steps today"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.7")
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w)["code"])
	executor.AssertExpectations(t)
}

func TestExamples(t *testing.T) {
	r := newTestRouter(t, func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) })

	w := doJSON(r, http.MethodGet, "/api/v1/query/examples", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["examples"])

	w = doJSON(r, http.MethodGet, "/api/v1/tools", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)
	doJSON(r, http.MethodPost, "/api/v1/query", `{"query":"sleep last week","user_id":"u1"}`)

	w := doJSON(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "health_query_tool_executions_total")
}

func TestGetHealth(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(m *MockHealthChecker)
		nilChecker bool
		fallback   bool
		wantStatus int
		wantState  string
	}{
		{
			name:       "no cluster configured",
			nilChecker: true,
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name: "cluster green",
			setup: func(m *MockHealthChecker) {
				m.On("Health", mock.Anything).Return(&search.ClusterHealth{ClusterName: "c", Status: "green", Nodes: 3}, nil)
			},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name: "cluster red",
			setup: func(m *MockHealthChecker) {
				m.On("Health", mock.Anything).Return(&search.ClusterHealth{Status: "red"}, nil)
			},
			wantStatus: http.StatusOK,
			wantState:  "degraded",
		},
		{
			name: "unreachable with fallback",
			setup: func(m *MockHealthChecker) {
				m.On("Health", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))
			},
			fallback:   true,
			wantStatus: http.StatusOK,
			wantState:  "degraded",
		},
		{
			name: "unreachable without fallback",
			setup: func(m *MockHealthChecker) {
				m.On("Health", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			var checker search.HealthChecker
			if !tt.nilChecker {
				m := new(MockHealthChecker)
				tt.setup(m)
				checker = m
			}

			r := gin.New()
			r.GET("/health", NewHealthHandler(checker, tt.fallback, "test", zap.NewNop()).GetHealth)

			w := doJSON(r, http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantState, decode(t, w)["status"])
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}
