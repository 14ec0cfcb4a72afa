package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Conceptual-Machines/magda-composer/internal/composer"
	"github.com/Conceptual-Machines/magda-composer/internal/config"
	"github.com/Conceptual-Machines/magda-composer/internal/store"
)

func TestSetupRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		cfg      *config.Config
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"health", &config.Config{}, http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", &config.Config{}, http.MethodGet, "/api/metrics", "", http.StatusOK},
		{"unknown composition", &config.Config{}, http.MethodGet, "/api/v1/compositions/nope", "", http.StatusNotFound},
		{"jwt required", &config.Config{AuthMode: "jwt", JWTSecret: "s"}, http.MethodGet, "/api/v1/compositions/nope", "", http.StatusUnauthorized},
		{"gateway header", &config.Config{AuthMode: "gateway"}, http.MethodPost, "/api/v1/compositions", `{"genre":"rock","duration":{"bars":8}}`, http.StatusUnauthorized},
		{"create", &config.Config{}, http.MethodPost, "/api/v1/compositions", `{"genre":"rock","tempo":120,"duration":{"bars":8},"max_iterations":0}`, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := SetupRouter(tt.cfg, composer.New(), store.NewMemoryStore(0), nil, "test")

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}
