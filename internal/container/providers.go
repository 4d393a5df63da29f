// Package container provides dependency injection and lifecycle management
// for the gas voucher service.
package container

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/internal/application/dispatcher"
	"github.com/garyjia/gas-voucher/internal/application/port"
	"github.com/garyjia/gas-voucher/internal/application/service"
	"github.com/garyjia/gas-voucher/internal/config"
	"github.com/garyjia/gas-voucher/internal/infrastructure/persistence/repository"
	"github.com/garyjia/gas-voucher/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/gas-voucher/internal/report"
	"github.com/garyjia/gas-voucher/pkg/database"
	"github.com/garyjia/gas-voucher/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	User    port.UserRepository
	Voucher port.VoucherRepository
	Payment port.PaymentRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Voucher service.VoucherService
	Payment service.PaymentService
	Export  service.ExportService
	User    service.UserService
}

// ProvideDatabase opens the database, runs pending migrations and wraps the
// connection in a transaction manager.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.Open(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		MigrationsDir:   cfg.MigrationsDir,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		User:    repository.NewUserRepository(db.DB, logger),
		Voucher: repository.NewVoucherRepository(db.DB, logger),
		Payment: repository.NewPaymentRepository(db.DB, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(cfg *config.AppConfig, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKVLogger(logger.Named("dispatcher"))),
		dispatcher.WithQueueSize(cfg.EventQueueSize),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Config    *config.Config
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Publisher service.EventPublisher
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Config == nil || deps.Repos == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Publisher == nil {
		return nil, fmt.Errorf("event publisher is required")
	}

	policy, err := deps.Config.App.Policy()
	if err != nil {
		return nil, err
	}
	loc, err := deps.Config.App.Location()
	if err != nil {
		return nil, err
	}

	serviceLogger := utils.NewKVLogger(deps.Logger.Named("service"))
	reportCfg := deps.Config.Report

	writer := report.NewExcelWriter(report.ExcelConfig{
		TemplatePath: reportCfg.TemplatePath,
		SheetName:    reportCfg.SheetName,
		StartRow:     reportCfg.StartRow,
		DateFormat:   reportCfg.DateFormat,
		Location:     loc,
	}, deps.Logger.Named("report"))

	sizes := reportCfg.CylinderSizes
	if len(sizes) == 0 {
		sizes = report.DefaultCylinderSizes
	}

	return &ServiceBundle{
		Voucher: service.NewVoucherService(
			deps.Repos.Voucher,
			deps.TxManager,
			deps.Publisher,
			service.VoucherServiceConfig{Policy: policy, Location: loc, Now: time.Now},
			serviceLogger,
		),
		Payment: service.NewPaymentService(
			deps.Repos.Payment,
			deps.TxManager,
			time.Now,
			serviceLogger,
		),
		Export: service.NewExportService(
			deps.Repos.Voucher,
			writer,
			sizes,
			serviceLogger,
		),
		User: service.NewUserService(deps.Repos.User, serviceLogger),
	}, nil
}
