package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hurou927/pg-schema-explorer/internal/catalog"
)

// APIResponse is the envelope of every response body.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

var errNotFound = errors.New("not found")

func success(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusCode, resp)
}

// failFor picks the status code from the error kind.
func failFor(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, errNotFound):
		fail(c, http.StatusNotFound, err, message)
	case errors.Is(err, catalog.ErrUnsupported):
		fail(c, http.StatusNotImplemented, err, message)
	case errors.Is(err, catalog.ErrUnresolvedTable), errors.Is(err, catalog.ErrUnresolvedColumn):
		fail(c, http.StatusUnprocessableEntity, err, message)
	default:
		fail(c, http.StatusInternalServerError, err, message)
	}
}
