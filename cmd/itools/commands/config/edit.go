package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/nkhine/itools/pkg/config"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in editor",
	Long: `Open the configuration file in your editor ($VISUAL, then $EDITOR,
then vi) and validate it once the editor exits.

Examples:
  # Edit default config
  itools config edit

  # Edit specific config file
  itools config edit --config ./itools.yaml`,
	RunE: runConfigEdit,
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("configuration file not found: %s\n\n"+
			"Create it first with:\n"+
			"  itools init --config %s",
			configPath, configPath)
	}

	editorCmd := exec.CommandContext(cmd.Context(), editor(), configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	if _, err := config.Load(configPath); err != nil {
		return fmt.Errorf("edited configuration is invalid: %w\n\nRun 'itools config edit' again to fix it", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved and valid: %s\n", configPath)
	return nil
}

func editor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}
	return "vi"
}
