package commands

import (
	"fmt"

	"github.com/nkhine/itools/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample itools configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/itools/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  itools init

  # Initialize with custom path
  itools init --config ./itools.yaml

  # Force overwrite existing config
  itools init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Pick a store under 'store.type' (memory, fs, billy, badger, sql, s3)")
	_, _ = fmt.Fprintln(out, "  2. Browse it with: itools tree")
	_, _ = fmt.Fprintf(out, "  3. Or specify the config explicitly: itools tree --config %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nSecrets such as S3 keys or database passwords can stay out of the file:")
	_, _ = fmt.Fprintln(out, "    export ITOOLS_STORE_S3_SECRET_ACCESS_KEY=...")
	return nil
}
