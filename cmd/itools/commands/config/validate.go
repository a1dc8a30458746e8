package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/nkhine/itools/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the itools configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  itools config validate

  # Validate specific config file
  itools config validate --config ./itools.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// MustLoad applies defaults and runs Validate
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.Store.Type == "memory" {
		warnings = append(warnings, "memory store selected - changes are lost when each command exits")
	}
	if cfg.Metrics.Textfile != "" && !cfg.Metrics.Enabled {
		warnings = append(warnings, "metrics.textfile is set but metrics are disabled")
	}
	if cfg.Store.LocalPath() == "" {
		warnings = append(warnings, fmt.Sprintf("store type %q cannot be watched", cfg.Store.Type))
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Store type:      %s\n", cfg.Store.Type)
	if p := cfg.Store.LocalPath(); p != "" {
		_, _ = fmt.Fprintf(out, "  Store path:      %s\n", p)
	}
	_, _ = fmt.Fprintf(out, "  Commit timeout:  %s\n", cfg.Session.CommitTimeout)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	if n := len(cfg.Formats.Suffixes) + len(cfg.Formats.Tags); n > 0 {
		suffixes := slices.Sorted(maps.Keys(cfg.Formats.Suffixes))
		_, _ = fmt.Fprintf(out, "  Format bindings: %d (suffixes: %v)\n", n, suffixes)
	}

	return nil
}
