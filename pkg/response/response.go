package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hyperdrive-otc/api/internal/orderkey"
	"github.com/hyperdrive-otc/api/internal/store"
)

// ErrorBody is the uniform error envelope. Success bodies are the
// operation's return value serialized directly; amounts inside are decimal
// strings, never floats.
type ErrorBody struct {
	Error string `json:"error"`
}

// Handle maps a service result to the HTTP response: the value on success,
// or a status derived from the error taxonomy. Upstream failures are
// reported as a generic 500 without leaking internals.
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		NotFound(c, "record not found")
	case errors.Is(err, store.ErrConflict):
		Conflict(c, "record already exists")
	case errors.Is(err, store.ErrUnauthorized):
		Unauthorized(c, "signature does not verify")
	case errors.Is(err, orderkey.ErrMalformedKey):
		BadRequest(c, err.Error())
	default:
		InternalError(c)
	}
}

// Success sends the operation's return value. POST replies 201, everything
// else 200.
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}
	c.JSON(status, data)
}

// BadRequest sends a 400 with a descriptive validation message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: message})
}

// Unauthorized sends a 401.
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, ErrorBody{Error: message})
}

// NotFound sends a 404.
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: message})
}

// Conflict sends a 409.
func Conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, ErrorBody{Error: message})
}

// TooManyRequests sends a 429.
func TooManyRequests(c *gin.Context, message string) {
	c.JSON(http.StatusTooManyRequests, ErrorBody{Error: message})
}

// MethodNotAllowed sends a 405.
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ErrorBody{Error: "method not allowed"})
}

// InternalError sends a 500. The underlying cause stays in the logs.
func InternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: "internal error"})
}
