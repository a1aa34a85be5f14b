package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"shortscript-api/internal/config"
	"shortscript-api/internal/interfaces/http/handler"
)

func TestRouter_PublicAndProtectedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Observability.Metrics.Enabled = true

	r := New(cfg, Handlers{
		Health: handler.NewHealthHandler("test", nil, nil),
		Script: handler.NewScriptHandler(nil),
		User:   handler.NewUserHandler(nil, nil),
	}, nil)

	cases := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/v1/durations", http.StatusOK},
		{http.MethodGet, "/v1/scripts", http.StatusUnauthorized},
		{http.MethodPost, "/v1/scripts/generate", http.StatusUnauthorized},
		{http.MethodGet, "/v1/users/me/context", http.StatusUnauthorized},
		{http.MethodGet, "/v1/unknown", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.Engine().ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.status, w.Code, "%s %s", tc.method, tc.path)
	}

	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
