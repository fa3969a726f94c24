package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit())
	router.GET("/api/v1/orders", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimitExhaustionReturns429(t *testing.T) {
	router := newLimitedRouter()

	// Distinct client address so this test's limiter state stays isolated.
	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// The full burst passes, the request after it is rejected.
	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, do().Code)
	}

	w := do()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.JSONEq(t, `{"error":"rate limit exceeded, try again later"}`, w.Body.String())
}

func TestRateLimitIsPerClient(t *testing.T) {
	router := newLimitedRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.RemoteAddr = "203.0.113.8:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
