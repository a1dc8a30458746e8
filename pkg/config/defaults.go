package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlstore "github.com/nkhine/itools/pkg/resource/sql"
	"github.com/nkhine/itools/pkg/watch"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyStoreDefaults(&cfg.Store)
	applySessionDefaults(&cfg.Session)
	applyWatchDefaults(&cfg.Watch)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyStoreDefaults fills in the block selected by Type.
func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Type == "" {
		cfg.Type = "fs"
	}

	switch cfg.Type {
	case "fs":
		if cfg.FS.Path == "" {
			cfg.FS.Path = filepath.Join(dataDir(), "tree")
		}
		if cfg.FS.CreateDir == nil {
			createDir := true
			cfg.FS.CreateDir = &createDir
		}
		if cfg.FS.DirMode == 0 {
			cfg.FS.DirMode = 0755
		}
		if cfg.FS.FileMode == 0 {
			cfg.FS.FileMode = 0644
		}
	case "badger":
		if cfg.Badger.Path == "" {
			cfg.Badger.Path = filepath.Join(dataDir(), "badger")
		}
	case "sql":
		cfg.SQL.ApplyDefaults()
	case "s3":
		cfg.S3.ApplyDefaults()
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.CommitTimeout == 0 {
		cfg.CommitTimeout = 30 * time.Second
	}
}

func applyWatchDefaults(cfg *WatchConfig) {
	if cfg.Debounce == 0 {
		cfg.Debounce = watch.DefaultDebounce
	}
}

// dataDir returns $XDG_DATA_HOME/itools, falling back to ~/.local/share/itools.
func dataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "itools-data")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "itools")
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Store: StoreConfig{
			Type: "fs",
			SQL: sqlstore.Config{
				Type: sqlstore.DatabaseTypeSQLite,
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
