package commands

import (
	"context"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/spf13/cobra"
)

var mkdirParents bool

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>...",
	Short: "Create folders",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
			for _, arg := range args {
				target := treePath(arg)
				if mkdirParents {
					if _, err := mkdirAll(ctx, w.root, target); err != nil {
						return err
					}
					continue
				}
				if err := w.root.SetHandler(ctx, target, handler.NewFolder()); err != nil {
					return err
				}
			}
			if err := w.commit(ctx); err != nil {
				return err
			}
			for _, arg := range args {
				w.printer.Status("created %s", treePath(arg))
			}
			return nil
		})
	},
}

func init() {
	mkdirCmd.Flags().BoolVarP(&mkdirParents, "parents", "p", false, "Create missing parents; existing folders are not an error")
}
