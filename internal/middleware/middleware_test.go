package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return router
}

func get(router *gin.Engine, header map[string]string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestInternalAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusOK},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong key", "s3cret", "guess", http.StatusUnauthorized},
		{"valid key", "s3cret", "s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(InternalAuthMiddleware(tt.key))
			assert.Equal(t, tt.want, get(router, map[string]string{APIKeyHeader: tt.header}))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := newRouter(RateLimitMiddleware(ctx, RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2}))
	assert.Equal(t, http.StatusOK, get(router, nil))
	assert.Equal(t, http.StatusOK, get(router, nil))
	assert.Equal(t, http.StatusTooManyRequests, get(router, nil))
}

func TestServiceRateLimitMiddleware(t *testing.T) {
	router := newRouter(ServiceRateLimitMiddleware(0.001, 1))
	assert.Equal(t, http.StatusOK, get(router, nil))
	assert.Equal(t, http.StatusTooManyRequests, get(router, nil))
}

func TestCleanupOldLimiters(t *testing.T) {
	rl := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	rl.GetLimiter("10.0.0.1")
	rl.GetLimiter("10.0.0.2").Allow()
	assert.Equal(t, 2, rl.Len())

	rl.CleanupOldLimiters()
	assert.Equal(t, 1, rl.Len(), "idle client with a full bucket is dropped")
}
