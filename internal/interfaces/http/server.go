// Package http provides the HTTP adapter for the voucher and payment services.
// Handlers translate requests to application service calls and map domain
// errors to status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/gas-voucher/internal/application/service"
	"github.com/garyjia/gas-voucher/internal/auth"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// HealthFunc reports component health. A non-nil error marks the service
// unhealthy; details are returned either way.
type HealthFunc func(ctx context.Context) (interface{}, error)

// Dependencies groups what the HTTP layer calls into
type Dependencies struct {
	VoucherService service.VoucherService
	PaymentService service.PaymentService
	ExportService  service.ExportService
	UserService    service.UserService
	Tokens         *auth.TokenManager
	Websocket      http.Handler
	Health         HealthFunc
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware(s.config.AllowedOrigins))
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps.VoucherService, s.deps.PaymentService, s.deps.ExportService, s.deps.Health, s.logger)
	authn := authMiddleware(s.deps.Tokens, s.deps.UserService, s.logger)
	admin := requireAdmin()

	s.router.GET("/health", h.HealthCheck)
	if s.deps.Websocket != nil {
		s.router.GET("/ws", gin.WrapH(s.deps.Websocket))
	}

	vouchers := s.router.Group("/vouchers", authn)
	{
		vouchers.POST("/request", h.RequestVoucher)
		vouchers.GET("/my-vouchers", h.MyVouchers)
		vouchers.GET("/my-stats", h.MyStats)

		vouchers.GET("/pending", admin, h.ListPendingVouchers)
		vouchers.GET("/all", admin, h.ListAllVouchers)
		vouchers.GET("/user/:userId", admin, h.ListUserVouchers)
		vouchers.GET("/user/:userId/stats", admin, h.UserVoucherStats)
		vouchers.GET("/stats/general", admin, h.GeneralStats)
		vouchers.GET("/export", admin, h.ExportVouchers)
		vouchers.POST("/manual", admin, h.CreateManualVoucher)
		vouchers.GET("/:id", h.GetVoucher)
		vouchers.PATCH("/:id/approve", admin, h.ApproveVoucher)
		vouchers.PATCH("/:id/reject", admin, h.RejectVoucher)
		vouchers.PATCH("/:id/deliver", admin, h.DeliverVoucher)
	}

	payments := s.router.Group("/monthly-payments", authn, admin)
	{
		payments.POST("", h.CreatePayment)
		payments.GET("/user/:userId", h.ListUserPayments)
		payments.GET("/user/:userId/summary", h.PaymentSummary)
		payments.GET("/user/:userId/total", h.LifetimeTotal)
		payments.GET("/user/:userId/year/:year", h.ListUserPaymentsByYear)
		payments.GET("/user/:userId/year/:year/total", h.YearlyTotal)
		payments.GET("/user/:userId/year/:year/month/:month", h.MonthAmount)
		payments.GET("/:id", h.GetPayment)
		payments.PATCH("/:id", h.UpdatePayment)
		payments.DELETE("/:id", h.DeletePayment)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
