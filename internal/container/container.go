package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/internal/application/dispatcher"
	"github.com/garyjia/gas-voucher/internal/auth"
	"github.com/garyjia/gas-voucher/internal/config"
	"github.com/garyjia/gas-voucher/internal/infrastructure/persistence/sqlite"
	httpiface "github.com/garyjia/gas-voucher/internal/interfaces/http"
	"github.com/garyjia/gas-voucher/internal/interfaces/websocket"
	"github.com/garyjia/gas-voucher/pkg/database"
	"github.com/garyjia/gas-voucher/pkg/utils"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure - Data
	db           *database.DB
	txManager    *sqlite.DB
	repositories *RepositoryBundle

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Interfaces
	hub      *websocket.Hub
	notifier *websocket.Notifier
	tokens   *auth.TokenManager
	server   *httpiface.Server

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool        `json:"healthy"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components.
// Components are initialized in dependency order:
// 1. Database and repositories
// 2. Event dispatcher and websocket hub
// 3. Application services
// 4. HTTP server
func (c *Container) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if err := c.initRealtime(); err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.logger.Info("Dispatcher and websocket hub initialized")

	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	c.initServer()

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Close websocket connections; http.Server.Shutdown does not track them
	if c.hub != nil {
		c.hub.Close()
	}

	// Step 2: Drain queued events
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 3: Close database
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	fail := func(name, msg string) {
		status.Components[name] = ComponentHealth{Healthy: false, Message: msg}
		status.Overall = false
	}

	// Check database
	if c.db != nil {
		if err := c.db.Health(ctx); err != nil {
			fail("database", fmt.Sprintf("ping failed: %v", err))
		} else {
			version, err := database.NewMigrator(c.db, c.logger).Version()
			if err != nil {
				fail("database", err.Error())
			} else {
				status.Components["database"] = ComponentHealth{
					Healthy: true,
					Details: map[string]int{"schema_version": version},
				}
			}
		}
	} else {
		fail("database", "not initialized")
	}

	// Check dispatcher
	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{
			Healthy: true,
			Details: map[string]int64{
				"pending_batches": c.dispatcher.Pending(),
				"dropped_batches": c.dispatcher.Dropped(),
			},
		}
	} else {
		fail("dispatcher", "not initialized")
	}

	// Check websocket hub
	if c.hub != nil {
		status.Components["websocket"] = ComponentHealth{Healthy: true, Details: c.hub.Stats()}
	} else {
		fail("websocket", "not initialized")
	}

	return status
}

// healthFunc adapts Health for the HTTP health endpoint
func (c *Container) healthFunc(ctx context.Context) (interface{}, error) {
	status := c.Health(ctx)
	if !status.Overall {
		return status.Components, errors.New("one or more components are unhealthy")
	}
	return status.Components, nil
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = dbBundle.DB
	c.txManager = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		return err
	}
	c.repositories = repos
	return nil
}

// initRealtime creates the dispatcher and subscribes the websocket notifier
func (c *Container) initRealtime() error {
	d, err := ProvideDispatcher(&c.config.App, c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = d

	wsLogger := c.logger.Named("websocket")
	c.hub = websocket.NewHub(wsLogger)
	c.notifier = websocket.NewNotifier(c.hub, wsLogger)
	c.notifier.Register(c.dispatcher)
	return nil
}

// initServices creates application services
func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Config:    c.config,
		Repos:     c.repositories,
		TxManager: c.txManager,
		Publisher: c.dispatcher,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

// initServer builds the HTTP server with the websocket endpoint mounted
func (c *Container) initServer() {
	authCfg := c.config.Auth
	c.tokens = auth.NewTokenManager(authCfg.JWTSecret, authCfg.Issuer, authCfg.TokenTTL)

	serverCfg := c.config.Server
	wsHandler := websocket.NewHandler(c.hub, c.tokens, websocket.HandlerConfig{
		AllowedOrigins: serverCfg.AllowedOrigins,
	}, c.logger.Named("websocket"))

	c.server = httpiface.NewServer(httpiface.ServerConfig{
		Host:           serverCfg.Host,
		Port:           serverCfg.Port,
		ReadTimeout:    serverCfg.ReadTimeout,
		WriteTimeout:   serverCfg.WriteTimeout,
		AllowedOrigins: serverCfg.AllowedOrigins,
	}, httpiface.Dependencies{
		VoucherService: c.services.Voucher,
		PaymentService: c.services.Payment,
		ExportService:  c.services.Export,
		UserService:    c.services.User,
		Tokens:         c.tokens,
		Websocket:      wsHandler,
		Health:         c.healthFunc,
	}, utils.NewKVLogger(c.logger.Named("http")))
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Repositories returns the repository bundle.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Hub returns the websocket hub.
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Tokens returns the token manager.
func (c *Container) Tokens() *auth.TokenManager {
	return c.tokens
}

// Server returns the HTTP server.
func (c *Container) Server() *httpiface.Server {
	return c.server
}

// Logger returns the logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}
