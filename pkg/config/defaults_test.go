package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected default log output 'stderr', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Telemetry(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Telemetry.Enabled {
		t.Error("Expected telemetry to stay disabled")
	}
	if cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("Expected default endpoint 'localhost:4317', got %q", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Expected default sample rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) != 6 {
		t.Errorf("Expected 6 default profile types, got %v", cfg.Telemetry.Profiling.ProfileTypes)
	}
}

func TestApplyDefaults_Store(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	tests := []struct {
		name  string
		store StoreConfig
		check func(t *testing.T, s StoreConfig)
	}{
		{
			name:  "fs",
			store: StoreConfig{},
			check: func(t *testing.T, s StoreConfig) {
				if s.Type != "fs" {
					t.Errorf("Expected type 'fs', got %q", s.Type)
				}
				if want := filepath.Join(dataHome, "itools", "tree"); s.FS.Path != want {
					t.Errorf("Expected fs path %q, got %q", want, s.FS.Path)
				}
				if s.FS.DirMode != 0755 || s.FS.FileMode != 0644 {
					t.Errorf("Expected modes 0755/0644, got %o/%o", s.FS.DirMode, s.FS.FileMode)
				}
			},
		},
		{
			name:  "fs keeps create_dir false",
			store: StoreConfig{Type: "fs", FS: FSStoreConfig{Path: "/srv/tree", CreateDir: new(bool)}},
			check: func(t *testing.T, s StoreConfig) {
				if *s.FS.CreateDir {
					t.Error("Expected explicit create_dir=false to be preserved")
				}
				if s.FS.Path != "/srv/tree" {
					t.Errorf("Expected explicit path to be preserved, got %q", s.FS.Path)
				}
			},
		},
		{
			name:  "badger",
			store: StoreConfig{Type: "badger"},
			check: func(t *testing.T, s StoreConfig) {
				if want := filepath.Join(dataHome, "itools", "badger"); s.Badger.Path != want {
					t.Errorf("Expected badger path %q, got %q", want, s.Badger.Path)
				}
			},
		},
		{
			name:  "sql",
			store: StoreConfig{Type: "sql"},
			check: func(t *testing.T, s StoreConfig) {
				if s.SQL.Type != "sqlite" {
					t.Errorf("Expected sql type 'sqlite', got %q", s.SQL.Type)
				}
				if s.SQL.SQLite.Path == "" {
					t.Error("Expected sqlite path default")
				}
			},
		},
		{
			name:  "s3",
			store: StoreConfig{Type: "s3"},
			check: func(t *testing.T, s StoreConfig) {
				if s.S3.Region != "us-east-1" {
					t.Errorf("Expected region 'us-east-1', got %q", s.S3.Region)
				}
				if s.S3.MaxRetries != 3 {
					t.Errorf("Expected max retries 3, got %d", s.S3.MaxRetries)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Store: tt.store}
			ApplyDefaults(cfg)
			tt.check(t, cfg.Store)
		})
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/itools.log",
		},
		Session: SessionConfig{CommitTimeout: time.Minute},
		Watch:   WatchConfig{Debounce: time.Second},
	}

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' to be preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format 'json' to be preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "/var/log/itools.log" {
		t.Errorf("Expected explicit output to be preserved, got %q", cfg.Logging.Output)
	}
	if cfg.Session.CommitTimeout != time.Minute {
		t.Errorf("Expected explicit commit timeout 1m to be preserved, got %v", cfg.Session.CommitTimeout)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected explicit debounce 1s to be preserved, got %v", cfg.Watch.Debounce)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}
