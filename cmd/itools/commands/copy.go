package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var cpCmd = &cobra.Command{
	Use:   "cp <src> <dst>",
	Short: "Copy a file or folder",
	Long: `Copy a file or folder to a new path. The destination folder must exist
and the destination name must be free. Folders are copied with everything
below them.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
			src, dst := treePath(args[0]), treePath(args[1])
			if err := w.root.CopyHandler(ctx, src, dst); err != nil {
				return err
			}
			if err := w.commit(ctx); err != nil {
				return err
			}
			w.printer.Status("copied %s to %s", src, dst)
			return nil
		})
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <src> <dst>",
	Short: "Move a file or folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
			src, dst := treePath(args[0]), treePath(args[1])
			if err := w.root.MoveHandler(ctx, src, dst); err != nil {
				return err
			}
			if err := w.commit(ctx); err != nil {
				return err
			}
			w.printer.Status("moved %s to %s", src, dst)
			return nil
		})
	},
}
