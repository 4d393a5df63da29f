package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/gas-voucher/internal/application/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	voucherService service.VoucherService
	paymentService service.PaymentService
	exportService  service.ExportService
	health         HealthFunc
	logger         Logger
	now            func() time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	voucherService service.VoucherService,
	paymentService service.PaymentService,
	exportService service.ExportService,
	health HealthFunc,
	logger Logger,
) *Handlers {
	return &Handlers{
		voucherService: voucherService,
		paymentService: paymentService,
		exportService:  exportService,
		health:         health,
		logger:         logger,
		now:            time.Now,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	if h.health == nil {
		ok(c, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	details, err := h.health(ctx)
	resp.Components = details
	if err != nil {
		h.logger.Error("Health check failed", "error", err)
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: resp, Error: err.Error()})
		return
	}
	ok(c, resp)
}
