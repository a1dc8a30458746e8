package commands

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for itools.

To load completions:

Bash:
  # Linux:
  $ itools completion bash > /etc/bash_completion.d/itools
  # macOS:
  $ itools completion bash > $(brew --prefix)/etc/bash_completion.d/itools

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  # Linux:
  $ itools completion zsh > "${fpath[1]}/_itools"
  # macOS:
  $ itools completion zsh > $(brew --prefix)/share/zsh/site-functions/_itools

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ itools completion fish > ~/.config/fish/completions/itools.fish

PowerShell:
  PS> itools completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> itools completion powershell > itools.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}
