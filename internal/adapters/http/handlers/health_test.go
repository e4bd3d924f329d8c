package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/verse-service/internal/platform/metrics"
	"github.com/jsamuelsen/verse-service/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                { return s.name }
func (s stubChecker) Check(context.Context) error { return s.err }

func healthEngine(t *testing.T, checkers ...ports.HealthChecker) *gin.Engine {
	t.Helper()

	registry := ports.NewHealthRegistry()
	for _, c := range checkers {
		require.NoError(t, registry.Register(c))
	}

	collector := metrics.NewCollector("test")
	collector.Recompute()

	engine := gin.New()
	NewHealthHandler(registry, NewBuildInfo("1.2.3", "abc123", "2024-05-01T12:00:00Z"), collector.Handler()).RegisterRoutes(engine)

	return engine
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	return w
}

func TestNewBuildInfo(t *testing.T) {
	bi := NewBuildInfo("1.0.0", "abc123", "2024-01-15T10:00:00Z")

	assert.Equal(t, "1.0.0", bi.Version)
	assert.Equal(t, runtime.Version(), bi.GoVersion)
}

func TestHealth_Liveness(t *testing.T) {
	w := get(healthEngine(t, stubChecker{name: "store", err: errors.New("down")}), "/-/live")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealth_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []ports.HealthChecker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all healthy",
			checkers:   []ports.HealthChecker{stubChecker{name: "content"}, stubChecker{name: "sqlite"}},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
		{
			name:       "store down",
			checkers:   []ports.HealthChecker{stubChecker{name: "content"}, stubChecker{name: "sqlite", err: errors.New("database is locked")}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
		},
		{
			name:       "no checkers",
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(healthEngine(t, tt.checkers...), "/-/ready")

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp readinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checkers))
		})
	}
}

func TestHealth_BuildAndMetrics(t *testing.T) {
	engine := healthEngine(t)

	w := get(engine, "/-/build")
	require.Equal(t, http.StatusOK, w.Code)

	var bi BuildInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bi))
	assert.Equal(t, "abc123", bi.Commit)

	w = get(engine, "/-/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_view_recomputes_total 1")
}

func TestHealth_NoMetricsRoute(t *testing.T) {
	engine := gin.New()
	NewHealthHandler(nil, BuildInfo{}, nil).RegisterRoutes(engine)

	assert.Equal(t, http.StatusNotFound, get(engine, "/-/metrics").Code)
	assert.Equal(t, http.StatusOK, get(engine, "/-/ready").Code)
}
