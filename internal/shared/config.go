package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvAPIURL      = "ECN_API_URL"
	EnvDatabaseURL = "ECN_DATABASE_URL"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
}

// APIConfig points at the remote REST API.
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	LoginPath string `toml:"login_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string  `toml:"host"`
	Port          int     `toml:"port"`
	CSRFKey       string  `toml:"csrf_key"`
	CookieKey     string  `toml:"cookie_key"`
	SecureCookies bool    `toml:"secure_cookies"`
	TrustedProxy  bool    `toml:"trusted_proxy"`
	LoginRate     float64 `toml:"login_rate"`
	LoginBurst    int     `toml:"login_burst"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Addr returns the host:port the dashboard listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Missing keys keep the embedded defaults and environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides file values with ECN_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseURL)); v != "" {
		c.Database.DSN = v
	}
}

// Validate reports settings that would make the process unusable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}

	switch c.Database.Driver {
	case "", DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for sqlite3", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: database.dsn or %s is required for postgres", ErrInvalidConfig, EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if k := c.Server.CSRFKey; k != "" && len(k) != 32 {
		return fmt.Errorf("%w: server.csrf_key must be 32 bytes", ErrInvalidConfig)
	}
	if k := c.Server.CookieKey; k != "" && len(k) < 32 {
		return fmt.Errorf("%w: server.cookie_key must be at least 32 bytes", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
