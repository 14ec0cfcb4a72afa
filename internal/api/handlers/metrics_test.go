package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.50s"},
		{2*time.Minute + 3*time.Second, "2m3.00s"},
		{time.Hour + 30*time.Second, "1h0m30.00s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatUptime(tt.in))
		})
	}
}

func TestGetMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMetricsHandler("v1.2.3", EngineInfo{MaxIterations: 2, Planner: "rules", Store: "memory"})

	router := gin.New()
	router.GET("/api/metrics", h.GetMetrics)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "v1.2.3", resp.Version)
	assert.Equal(t, 2, resp.Engine.MaxIterations)
	assert.Equal(t, "rules", resp.Engine.Planner)
	assert.Positive(t, resp.System.NumGoroutine)
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", NewHealthHandler("llm", "postgres").HealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","planner":"llm","store":"postgres"}`, w.Body.String())
}
