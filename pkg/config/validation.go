package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nkhine/itools/pkg/formats"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags first, then the rules that span fields:
// telemetry endpoints, the selected store block and format bindings.
// It does not modify cfg.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return errors.New("telemetry is enabled but telemetry.endpoint is empty")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return errors.New("profiling is enabled but telemetry.profiling.endpoint is empty")
	}

	if err := validateStore(&cfg.Store); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	for suffix, name := range cfg.Formats.Suffixes {
		if _, ok := formats.Lookup(name); !ok {
			return fmt.Errorf("formats.suffixes[%q]: unknown format %q", suffix, name)
		}
	}
	for tag, name := range cfg.Formats.Tags {
		if _, ok := formats.Lookup(name); !ok {
			return fmt.Errorf("formats.tags[%q]: unknown format %q", tag, name)
		}
	}
	return nil
}

func validateStore(cfg *StoreConfig) error {
	switch cfg.Type {
	case "memory":
		return nil
	case "fs":
		if cfg.FS.Path == "" {
			return errors.New("fs path is required")
		}
	case "billy":
		if cfg.Billy.Path == "" && !cfg.Billy.InMemory {
			return errors.New("billy path is required unless in_memory is set")
		}
	case "badger":
		if cfg.Badger.Path == "" {
			return errors.New("badger path is required")
		}
	case "sql":
		return cfg.SQL.Validate()
	case "s3":
		return cfg.S3.Validate()
	}
	return nil
}
