package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	s3store "github.com/nkhine/itools/pkg/resource/s3"
	sqlstore "github.com/nkhine/itools/pkg/resource/sql"
)

// Config represents the itools configuration.
//
// It selects the backing store the CLI opens and controls the ambient
// services around the handler tree:
//   - Logging configuration
//   - Telemetry/tracing and profiling configuration
//   - Metrics collection
//   - Backing store selection and per-store settings
//   - Extra format bindings for the type registry
//   - Session and watch behavior
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (ITOOLS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics controls Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Store selects and configures the backing store
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Formats binds additional name suffixes to built-in formats
	Formats FormatsConfig `mapstructure:"formats" yaml:"formats"`

	// Session controls commits
	Session SessionConfig `mapstructure:"session" yaml:"session"`

	// Watch controls the filesystem watcher
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	// Only the long-running watch command starts the profiler.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false (opt-in for profiling)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040" (standard Pyroscope port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures Prometheus metrics collection.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics are collected
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Textfile is where the CLI writes the metrics in Prometheus text format
	// when a command finishes, for the node exporter textfile collector.
	// Empty disables the dump.
	Textfile string `mapstructure:"textfile" yaml:"textfile,omitempty"`
}

// StoreConfig selects the backing store. Only the block matching Type is
// used.
type StoreConfig struct {
	// Type is one of memory, fs, billy, badger, sql, s3
	// Default: fs
	Type string `mapstructure:"type" validate:"required,oneof=memory fs billy badger sql s3" yaml:"type"`

	FS     FSStoreConfig     `mapstructure:"fs" yaml:"fs,omitempty" validate:"-"`
	Billy  BillyStoreConfig  `mapstructure:"billy" yaml:"billy,omitempty" validate:"-"`
	Badger BadgerStoreConfig `mapstructure:"badger" yaml:"badger,omitempty" validate:"-"`
	SQL    sqlstore.Config   `mapstructure:"sql" yaml:"sql,omitempty" validate:"-"`
	S3     s3store.Config    `mapstructure:"s3" yaml:"s3,omitempty" validate:"-"`
}

// FSStoreConfig configures the local filesystem store.
type FSStoreConfig struct {
	// Path is the directory backing the tree root
	Path string `mapstructure:"path" yaml:"path"`

	// CreateDir creates Path when it is missing
	// Default: true
	CreateDir *bool `mapstructure:"create_dir" yaml:"create_dir,omitempty"`

	// DirMode and FileMode are the permissions of created entries
	// Default: 0755 and 0644
	DirMode  uint32 `mapstructure:"dir_mode" yaml:"dir_mode,omitempty"`
	FileMode uint32 `mapstructure:"file_mode" yaml:"file_mode,omitempty"`
}

// BillyStoreConfig configures the go-billy store.
type BillyStoreConfig struct {
	// Path is the base directory of an osfs filesystem
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// InMemory uses a memfs filesystem instead of Path
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory,omitempty"`
}

// BadgerStoreConfig configures the BadgerDB store.
type BadgerStoreConfig struct {
	// Path is the database directory
	Path string `mapstructure:"path" yaml:"path"`

	// SyncWrites fsyncs every commit
	SyncWrites bool `mapstructure:"sync_writes" yaml:"sync_writes,omitempty"`

	// ValueLogFileSize caps each value log file
	// Supports human-readable formats: "64MiB", "1GB"
	ValueLogFileSize ByteSize `mapstructure:"value_log_file_size" yaml:"value_log_file_size,omitempty"`
}

// FormatsConfig binds extra suffixes and tags to built-in formats.
type FormatsConfig struct {
	// Suffixes maps a name suffix (".conf") to a format name (yaml)
	Suffixes map[string]string `mapstructure:"suffixes" yaml:"suffixes,omitempty"`

	// Tags maps a store tag ("application/vnd.foo+json") to a format name
	Tags map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
}

// SessionConfig controls commits.
type SessionConfig struct {
	// CommitTimeout bounds a single commit, including waiting for the lock
	// Default: 30s
	CommitTimeout time.Duration `mapstructure:"commit_timeout" validate:"gt=0" yaml:"commit_timeout"`
}

// WatchConfig controls the filesystem watcher.
type WatchConfig struct {
	// Debounce is the quiet period before changes are applied
	// Default: 100ms
	Debounce time.Duration `mapstructure:"debounce" validate:"gt=0" yaml:"debounce"`
}

// ByteSize is a size in bytes that decodes from human-readable strings.
type ByteSize uint64

// String formats the size with IEC units ("64 MiB").
func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// MarshalYAML writes the size in human-readable form.
func (b ByteSize) MarshalYAML() (any, error) {
	if b == 0 {
		return 0, nil
	}
	return b.String(), nil
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ITOOLS_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath uses the default location. A missing file yields the
// default configuration with environment overrides applied.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, failing with instructions when an explicit
// configPath does not exist.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  itools init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold S3 or Postgres credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: ITOOLS_LOGGING_LEVEL=DEBUG, ITOOLS_STORE_TYPE=badger
	v.SetEnvPrefix("ITOOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Environment variables only reach Unmarshal for keys viper knows about.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// envKeys are the settings that may be given purely through the environment.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"telemetry.enabled",
	"telemetry.endpoint",
	"telemetry.sample_rate",
	"telemetry.profiling.enabled",
	"telemetry.profiling.endpoint",
	"metrics.enabled",
	"metrics.textfile",
	"store.type",
	"store.fs.path",
	"store.billy.path",
	"store.badger.path",
	"store.sql.type",
	"store.sql.sqlite.path",
	"store.sql.postgres.host",
	"store.sql.postgres.port",
	"store.sql.postgres.database",
	"store.sql.postgres.user",
	"store.sql.postgres.password",
	"store.s3.bucket",
	"store.s3.prefix",
	"store.s3.region",
	"store.s3.endpoint",
	"store.s3.access_key_id",
	"store.s3.secret_access_key",
	"session.commit_timeout",
	"watch.debounce",
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings like "64MiB" or "1GB" and plain
// numbers to ByteSize.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			n, err := humanize.ParseBytes(v)
			if err != nil {
				return nil, err
			}
			return ByteSize(n), nil
		case int:
			return ByteSize(v), nil
		case int64:
			return ByteSize(v), nil
		case uint64:
			return ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "itools")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "itools")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
