package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
	"github.com/garyjia/gas-voucher/internal/domain/workflow"
)

// statusFor maps a service error to an HTTP status and a client-safe message
func statusFor(err error) (int, string) {
	var vErr *entity.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Error()
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, entity.ErrConflict):
		return http.StatusConflict, "already exists"
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict, "voucher cannot change to the requested status"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// respondError writes the error envelope and logs server-side failures
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", "error", err, "path", c.Request.URL.Path)
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}
