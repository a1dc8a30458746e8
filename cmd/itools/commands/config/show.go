package config

import (
	"github.com/nkhine/itools/internal/cli/output"
	"github.com/nkhine/itools/pkg/config"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective itools configuration: the file merged with
ITOOLS_* environment variables and defaults.

By default outputs YAML format. Use --output json for JSON.

Examples:
  # Show default config as YAML
  itools config show

  # Show as JSON
  itools config show --output json`,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	outFlag, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(outFlag)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}
