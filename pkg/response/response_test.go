package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/hyperdrive-otc/api/internal/store"
)

func record(write func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	write(c)
	return w
}

func TestHelpersUseErrorEnvelope(t *testing.T) {
	w := record(func(c *gin.Context) { Conflict(c, "match simulation failed") })
	require.Equal(t, http.StatusConflict, w.Code)
	require.JSONEq(t, `{"error":"match simulation failed"}`, w.Body.String())

	w = record(func(c *gin.Context) { TooManyRequests(c, "rate limit exceeded, try again later") })
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	w = record(func(c *gin.Context) { InternalError(c) })
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

func TestHandleMapsErrorTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrConflict, http.StatusConflict},
		{store.ErrUnauthorized, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := record(func(c *gin.Context) { Handle(c, nil, tc.err) })
		require.Equal(t, tc.code, w.Code)
	}

	// Success on GET is a 200 with the raw value.
	w := record(func(c *gin.Context) { Handle(c, gin.H{"ok": true}, nil) })
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"ok":true}`, w.Body.String())
}
