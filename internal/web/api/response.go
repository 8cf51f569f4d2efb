package api

import (
	"errors"
	"net/http"

	"sempgateway/internal/registry"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every management API answer.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Status: status, Message: message, Data: data})
}

func ok(c *gin.Context, data any) {
	respond(c, http.StatusOK, "OK", data)
}

// respondError maps registry errors to status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrDeviceNotFound):
		respond(c, http.StatusNotFound, "Device not found", nil)
	case errors.Is(err, registry.ErrDeviceExists):
		respond(c, http.StatusMethodNotAllowed, "Device already exists. Use update request.", nil)
	case errors.Is(err, registry.ErrNoRecommendation):
		respond(c, http.StatusNotFound, "No recommendation for device found", nil)
	case errors.Is(err, registry.ErrInvalidDevice),
		errors.Is(err, registry.ErrInvalidTimeframe),
		errors.Is(err, registry.ErrInvalidHook):
		respond(c, http.StatusBadRequest, err.Error(), nil)
	default:
		_ = c.Error(err)
		respond(c, http.StatusInternalServerError, "Internal error", nil)
	}
}
