package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/openrwa/rwa-ledger/internal/api/middleware"
)

func newLimitedRouter(config middleware.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.NewRateLimiter(config).Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func get(router *gin.Engine, authorization string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_EnforcesBurst(t *testing.T) {
	router := newLimitedRouter(middleware.RateLimitConfig{RequestsPerSecond: 1, Burst: 2})

	assert.Equal(t, http.StatusOK, get(router, "APIKey client-a"))
	assert.Equal(t, http.StatusOK, get(router, "APIKey client-a"))
	assert.Equal(t, http.StatusTooManyRequests, get(router, "APIKey client-a"))
}

func TestRateLimiter_IsolatesClients(t *testing.T) {
	router := newLimitedRouter(middleware.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})

	assert.Equal(t, http.StatusOK, get(router, "APIKey client-a"))
	assert.Equal(t, http.StatusTooManyRequests, get(router, "APIKey client-a"))

	// A different key gets its own bucket
	assert.Equal(t, http.StatusOK, get(router, "APIKey client-b"))
}

func TestRateLimiter_DefaultsApply(t *testing.T) {
	router := newLimitedRouter(middleware.RateLimitConfig{})

	// Defaults allow a healthy burst
	for range 10 {
		assert.Equal(t, http.StatusOK, get(router, ""))
	}
}
