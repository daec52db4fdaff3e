package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/jonesrussell/seocrawl/internal/logger"
)

// Server defaults
const (
	DefaultServerAddress      = ":8060"
	DefaultServerReadTimeout  = 15 * time.Second
	DefaultServerWriteTimeout = 30 * time.Second
)

// Storage backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Default storage values
const (
	DefaultDataDir = "./data"
	DefaultDBHost  = "localhost"
	DefaultDBPort  = 5432
	DefaultDBUser  = "postgres"
	DefaultDBName  = "seocrawl"
	DefaultSSLMode = "disable"
)

// Config represents the application configuration.
type Config struct {
	// Logger holds logger configuration
	Logger logger.Config `mapstructure:"logger"`
	// Crawl holds the per-run crawl settings
	Crawl CrawlConfig `mapstructure:"crawl"`
	// Storage selects and configures the state store backend
	Storage StorageConfig `mapstructure:"storage"`
	// Server configures the report API server
	Server ServerConfig `mapstructure:"server"`
	// Export configures optional report sinks
	Export ExportConfig `mapstructure:"export"`
}

// StorageConfig selects the state store backend.
type StorageConfig struct {
	// Backend is "file" or "postgres"
	Backend string `mapstructure:"backend"`
	// DataDir is the file backend's root directory
	DataDir string `mapstructure:"data_dir"`
	// Postgres configures the postgres backend
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds postgres connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the lib/pq connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// ServerConfig holds the report API server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ExportConfig holds optional report sink settings.
type ExportConfig struct {
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// ElasticsearchConfig configures the Elasticsearch report sink.
type ElasticsearchConfig struct {
	// Enabled turns the sink on; the sink is off by default
	Enabled bool `mapstructure:"enabled"`
	// Addresses lists cluster node URLs
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	APIKey    string   `mapstructure:"api_key"`
	// IndexPrefix prefixes the per-table index names
	IndexPrefix string `mapstructure:"index_prefix"`
}

// New creates an application configuration with defaults applied.
func New() *Config {
	return &Config{
		Logger: logger.Config{
			Level:    logger.InfoLevel,
			Encoding: "console",
		},
		Crawl: *NewCrawlConfig(),
		Storage: StorageConfig{
			Backend: BackendFile,
			DataDir: DefaultDataDir,
			Postgres: PostgresConfig{
				Host:    DefaultDBHost,
				Port:    DefaultDBPort,
				User:    DefaultDBUser,
				DBName:  DefaultDBName,
				SSLMode: DefaultSSLMode,
			},
		},
		Server: ServerConfig{
			Address:      DefaultServerAddress,
			ReadTimeout:  DefaultServerReadTimeout,
			WriteTimeout: DefaultServerWriteTimeout,
		},
		Export: ExportConfig{
			Elasticsearch: ElasticsearchConfig{
				IndexPrefix: "seocrawl",
			},
		},
	}
}

// Load builds the configuration from viper's merged settings (defaults,
// config file, environment, bound flags). The crawl section is NOT
// validated here; commands validate it after applying their own flag
// overrides.
func Load() (*Config, error) {
	cfg := New()
	if err := decode(viper.AllSettings(), cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.ValidateStatic(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateStatic checks the sections that do not depend on per-command
// flag overrides.
func (c *Config) ValidateStatic() error {
	switch c.Storage.Backend {
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q",
			BackendFile, BackendPostgres, c.Storage.Backend)
	}
	if c.Storage.Backend == BackendFile && c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required for the %s backend", BackendFile)
	}
	if c.Export.Elasticsearch.Enabled && len(c.Export.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("export.elasticsearch.addresses is required when the sink is enabled")
	}
	return nil
}

// decode maps viper's settings onto the config struct, converting
// duration strings and comma-separated lists along the way.
func decode(src map[string]any, dst *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           dst,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(src)
}
