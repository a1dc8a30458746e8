package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"

store:
  type: fs
  fs:
    path: "`+yamlSafePath(tmpDir)+`/tree"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected default output 'stderr', got %q", cfg.Logging.Output)
	}
	if cfg.Session.CommitTimeout != 30*time.Second {
		t.Errorf("Expected default commit_timeout 30s, got %v", cfg.Session.CommitTimeout)
	}
	if cfg.Store.FS.Path != yamlSafePath(tmpDir)+"/tree" {
		t.Errorf("Expected fs path from file, got %q", cfg.Store.FS.Path)
	}
	if cfg.Store.FS.CreateDir == nil || !*cfg.Store.FS.CreateDir {
		t.Error("Expected create_dir to default to true")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.Store.Type != "fs" {
		t.Errorf("Expected default store type 'fs', got %q", cfg.Store.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[store]
type = "badger"

[store.badger]
path = "`+yamlSafePath(tmpDir)+`/db"
value_log_file_size = "64MiB"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Store.Badger.ValueLogFileSize != 64<<20 {
		t.Errorf("Expected value_log_file_size 64MiB, got %d", cfg.Store.Badger.ValueLogFileSize)
	}
}

func TestLoad_DurationsAndSizes(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, "config.yaml", `
store:
  type: badger
  badger:
    path: "`+yamlSafePath(tmpDir)+`/db"
    value_log_file_size: 1GB
session:
  commit_timeout: 5s
watch:
  debounce: 250ms
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Session.CommitTimeout != 5*time.Second {
		t.Errorf("Expected commit_timeout 5s, got %v", cfg.Session.CommitTimeout)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("Expected debounce 250ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Store.Badger.ValueLogFileSize != 1000*1000*1000 {
		t.Errorf("Expected value_log_file_size 1GB, got %d", cfg.Store.Badger.ValueLogFileSize)
	}
}

func TestLoad_InvalidStore(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
store:
  type: s3
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for s3 store without bucket")
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Store.Type != "fs" {
		t.Errorf("Expected default store type 'fs', got %q", cfg.Store.Type)
	}
	if cfg.Watch.Debounce != 100*time.Millisecond {
		t.Errorf("Expected default debounce 100ms, got %v", cfg.Watch.Debounce)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if filepath.Base(GetConfigDir()) != "itools" {
		t.Errorf("Expected directory name 'itools', got %q", filepath.Base(GetConfigDir()))
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ITOOLS_LOGGING_LEVEL", "ERROR")
	t.Setenv("ITOOLS_STORE_TYPE", "memory")

	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Store.Type != "memory" {
		t.Errorf("Expected store type 'memory' from env var, got %q", cfg.Store.Type)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Logging.Level = "DEBUG"
	cfg.Formats.Suffixes = map[string]string{".conf": "yaml"}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("Expected mode 0600, got %o", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load of saved config failed: %v", err)
	}
	if loaded.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG', got %q", loaded.Logging.Level)
	}
	if loaded.Formats.Suffixes[".conf"] != "yaml" {
		t.Errorf("Expected .conf bound to yaml, got %v", loaded.Formats.Suffixes)
	}
	if loaded.Store.FS.Path != cfg.Store.FS.Path {
		t.Errorf("Expected fs path %q, got %q", cfg.Store.FS.Path, loaded.Store.FS.Path)
	}
}

func TestByteSize_String(t *testing.T) {
	tests := []struct {
		in   ByteSize
		want string
	}{
		{0, "0 B"},
		{1024, "1.0 KiB"},
		{64 << 20, "64 MiB"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("ByteSize(%d).String() = %q, want %q", uint64(tt.in), got, tt.want)
		}
	}
}
