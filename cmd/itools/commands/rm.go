package commands

import (
	"context"
	"fmt"

	"github.com/nkhine/itools/internal/cli/prompt"
	"github.com/nkhine/itools/pkg/handler"
	"github.com/spf13/cobra"
)

var rmYes bool

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Remove files or folders",
	Long: `Remove files or folders. Folders are removed with everything below
them. Asks for confirmation unless --yes is given.

Examples:
  # Remove a file without prompting
  itools rm --yes /tmp/scratch.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "Skip confirmation")
}

func runRm(cmd *cobra.Command, args []string) error {
	return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
		targets := make([]handler.Node, 0, len(args))
		for _, arg := range args {
			n, err := w.root.GetHandler(ctx, treePath(arg))
			if err != nil {
				return err
			}
			if n.Parent() == nil {
				return fmt.Errorf("refusing to remove the root folder")
			}
			targets = append(targets, n)
		}

		label := fmt.Sprintf("Remove %s", targets[0].Path())
		if len(targets) > 1 {
			label = fmt.Sprintf("Remove %d handlers", len(targets))
		}
		ok, err := prompt.ConfirmWithForce(label, rmYes)
		if err != nil {
			return err
		}
		if !ok {
			w.printer.Status("aborted")
			return nil
		}

		removed := make([]string, 0, len(targets))
		for _, n := range targets {
			removed = append(removed, n.Path())
			if err := n.Parent().DelHandler(ctx, n.Name()); err != nil {
				return err
			}
		}
		if err := w.commit(ctx); err != nil {
			return err
		}
		for _, p := range removed {
			w.printer.Status("removed %s", p)
		}
		return nil
	})
}
