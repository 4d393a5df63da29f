package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/gas-voucher/internal/domain/workflow"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	App      AppConfig      `mapstructure:"app"`
	Report   ReportConfig   `mapstructure:"report"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// AppConfig holds voucher lifecycle settings
type AppConfig struct {
	// Timezone anchors month boundaries for statistics and export dates
	Timezone string `mapstructure:"timezone"`
	// TransitionPolicy is "strict" or "lenient"
	TransitionPolicy string `mapstructure:"transition_policy"`
	// EventQueueSize bounds the batches waiting for websocket fan-out
	EventQueueSize int `mapstructure:"event_queue_size"`
}

// ReportConfig holds spreadsheet export configuration
type ReportConfig struct {
	TemplatePath  string `mapstructure:"template_path"`
	SheetName     string `mapstructure:"sheet_name"`
	StartRow      int    `mapstructure:"start_row"`
	DateFormat    string `mapstructure:"date_format"`
	CylinderSizes []int  `mapstructure:"cylinder_sizes"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from an optional .env file, an optional YAML file
// and environment variables, in increasing precedence
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports variables from path without overriding the environment.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := gotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	// Database defaults
	v.SetDefault("database.path", "data/gas_vouchers.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", 0)
	v.SetDefault("database.migrations_dir", "")

	// Auth defaults
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	// Lifecycle defaults
	v.SetDefault("app.timezone", "Local")
	v.SetDefault("app.transition_policy", string(workflow.PolicyStrict))
	v.SetDefault("app.event_queue_size", 256)

	// Report defaults
	v.SetDefault("report.template_path", "templates/gas_vouchers.xlsx")
	v.SetDefault("report.sheet_name", "")
	v.SetDefault("report.start_row", 2)
	v.SetDefault("report.date_format", "02-01-2006")
	v.SetDefault("report.cylinder_sizes", []int{5, 11, 15, 45})

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("server.port", "SERVER_PORT", "PORT")
	v.BindEnv("report.template_path", "REPORT_TEMPLATE_PATH")
	v.BindEnv("app.timezone", "APP_TIMEZONE")
	v.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := c.App.Policy(); err != nil {
		return fmt.Errorf("app.transition_policy: %w", err)
	}
	if _, err := c.App.Location(); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}
	if c.App.EventQueueSize < 1 {
		return fmt.Errorf("app.event_queue_size must be at least 1")
	}
	if c.Report.StartRow < 1 {
		return fmt.Errorf("report.start_row must be at least 1")
	}
	for _, size := range c.Report.CylinderSizes {
		if size <= 0 {
			return fmt.Errorf("report.cylinder_sizes must be positive, got %d", size)
		}
	}
	return nil
}

// Policy returns the parsed transition policy
func (a AppConfig) Policy() (workflow.Policy, error) {
	return workflow.ParsePolicy(a.TransitionPolicy)
}

// Location returns the reference timezone; empty means the process local zone
func (a AppConfig) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(a.Timezone)
}
