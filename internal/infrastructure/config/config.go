package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for nlogd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Logging  LoggingConfig  `yaml:"logging"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Admin    AdminConfig    `yaml:"admin"`
}

// InstanceConfig identifies the pipeline instance this daemon manages.
type InstanceConfig struct {
	Name string `yaml:"name"`
}

// LoggingConfig contains the daemon's bootstrap logging settings, used
// before a logging configuration document has been installed.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// PipelineConfig controls discovery and reloading of the logging
// configuration document.
type PipelineConfig struct {
	// ConfigFile is the logging configuration document. Relative names are
	// resolved against the search directories. If empty, DefaultFileNames
	// are tried instead.
	ConfigFile string `yaml:"config_file"`

	// DefaultFileNames are tried in order when ConfigFile is empty.
	DefaultFileNames []string `yaml:"default_file_names"`

	// SearchDirs are probed after the executable directory (and the working
	// directory when IncludeWorkingDir is set), in order.
	SearchDirs []string `yaml:"search_dirs"`

	// IncludeWorkingDir adds the process working directory to the search.
	IncludeWorkingDir bool `yaml:"include_working_dir"`

	// Watch enables file-change driven reloads.
	Watch bool `yaml:"watch"`

	// DebounceMS coalesces bursts of file events (milliseconds).
	DebounceMS int `yaml:"debounce_ms"`

	// ReloadInterval triggers periodic reloads (seconds). 0 disables.
	ReloadInterval int `yaml:"reload_interval"`

	// ReloadTimeout bounds how long the watcher waits for one reload (seconds).
	ReloadTimeout int `yaml:"reload_timeout"`
}

// DatabaseConfig contains SQLite audit database settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// AdminConfig contains the HTTP admin server settings.
type AdminConfig struct {
	Enabled  bool               `yaml:"enabled"`
	Host     string             `yaml:"host"`
	Port     int                `yaml:"port"`
	Timeouts AdminTimeoutConfig `yaml:"timeouts"`
	Auth     AdminAuthConfig    `yaml:"auth"`
}

// AdminAuthConfig contains bearer token settings. An empty JWTSecret
// leaves the admin API unauthenticated.
type AdminAuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  int    `yaml:"token_ttl"` // hours
}

// AdminTimeoutConfig contains HTTP timeout settings (seconds).
type AdminTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: NLOG_SECTION_KEY
// For example: NLOG_PIPELINE_CONFIG_FILE, NLOG_ADMIN_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults
// with environment overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		applyEnvOverrides(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validating config: %w", err)
		}
		return cfg, nil
	}
	return Load(path)
}

// Default returns a Config with sensible defaults. It is used as the base
// for Load and on its own when no daemon config file exists.
func Default() *Config {
	return &Config{
		Instance: InstanceConfig{
			Name: "default",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Pipeline: PipelineConfig{
			DefaultFileNames: []string{"nlog.yaml", "nlog.yml"},
			Watch:            true,
			DebounceMS:       250,
			ReloadTimeout:    30,
		},
		Database: DatabaseConfig{
			Path:        "./data/nlog-audit.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "nlogd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Admin: AdminConfig{
			Host: "127.0.0.1",
			Port: 9180,
			Timeouts: AdminTimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
			Auth: AdminAuthConfig{
				TokenTTL: 24,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: NLOG_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NLOG_INSTANCE_NAME"); v != "" {
		cfg.Instance.Name = v
	}

	// Logging
	if v := os.Getenv("NLOG_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Pipeline
	if v := os.Getenv("NLOG_PIPELINE_CONFIG_FILE"); v != "" {
		cfg.Pipeline.ConfigFile = v
	}
	if v := os.Getenv("NLOG_PIPELINE_SEARCH_DIRS"); v != "" {
		cfg.Pipeline.SearchDirs = filepath.SplitList(v)
	}

	// Database
	if v := os.Getenv("NLOG_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("NLOG_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NLOG_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NLOG_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("NLOG_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Admin
	if v := os.Getenv("NLOG_ADMIN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Admin.Port = port
		}
	}
	if v := os.Getenv("NLOG_ADMIN_JWT_SECRET"); v != "" {
		cfg.Admin.Auth.JWTSecret = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Instance.Name == "" {
		errs = append(errs, "instance.name is required")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q must be debug, info, warn or error", c.Logging.Level))
	}

	if c.Pipeline.ConfigFile == "" && len(c.Pipeline.DefaultFileNames) == 0 {
		errs = append(errs, "pipeline.config_file or pipeline.default_file_names is required")
	}
	if c.Pipeline.DebounceMS < 0 {
		errs = append(errs, "pipeline.debounce_ms must not be negative")
	}
	if c.Pipeline.ReloadInterval < 0 {
		errs = append(errs, "pipeline.reload_interval must not be negative")
	}
	if c.Pipeline.ReloadTimeout < 0 {
		errs = append(errs, "pipeline.reload_timeout must not be negative")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}

	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Admin.Enabled && (c.Admin.Port < 1 || c.Admin.Port > 65535) {
		errs = append(errs, "admin.port must be between 1 and 65535")
	}
	if c.Admin.Auth.TokenTTL < 0 {
		errs = append(errs, "admin.auth.token_ttl must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetDebounce returns the watcher debounce window as a Duration.
func (c *Config) GetDebounce() time.Duration {
	return time.Duration(c.Pipeline.DebounceMS) * time.Millisecond
}

// GetReloadInterval returns the periodic reload interval as a Duration.
func (c *Config) GetReloadInterval() time.Duration {
	return time.Duration(c.Pipeline.ReloadInterval) * time.Second
}

// GetReloadTimeout returns the per-reload timeout as a Duration.
func (c *Config) GetReloadTimeout() time.Duration {
	return time.Duration(c.Pipeline.ReloadTimeout) * time.Second
}

// GetReadTimeout returns the admin read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Admin.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the admin write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Admin.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the admin idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Admin.Timeouts.Idle) * time.Second
}

// GetTokenTTL returns the default admin token lifetime as a Duration.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.Admin.Auth.TokenTTL) * time.Hour
}
