package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvAPIBaseURL overrides [APIConfig.BaseURL] when set.
const EnvAPIBaseURL = "BITESIZED_API_BASE_URL"

// DefaultAPIBaseURL is used when neither the config file nor the environment provide one.
const DefaultAPIBaseURL = "http://localhost:8000"

// Supported values for [StorageConfig.Backend].
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig contains settings for the remote learning platform backend.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// StorageConfig selects the key-value backend for local state.
type StorageConfig struct {
	Backend string `toml:"backend"`
}

// DatabaseConfig contains SQLite connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	DSN string `toml:"dsn"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	URL    string `toml:"url"`
	Prefix string `toml:"prefix"`
}

// ServerConfig contains settings for the local mock backend.
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	JWTSecret string `toml:"jwt_secret"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

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

// ApplyEnv overlays environment overrides onto the config.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvAPIBaseURL)); v != "" {
		c.API.BaseURL = v
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendPostgres, BackendRedis, BackendMemory:
	case "":
		c.Storage.Backend = BackendSQLite
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")

	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests_per_second must not be negative", ErrInvalidConfig)
	}

	return nil
}
