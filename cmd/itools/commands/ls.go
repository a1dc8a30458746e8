package commands

import (
	"context"

	"github.com/nkhine/itools/internal/cli/output"
	"github.com/nkhine/itools/pkg/handler"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a folder",
	Long: `List the children of a folder, or describe a single file.

Examples:
  # List the root of the store
  itools ls

  # List a folder as JSON
  itools ls /configs -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	target := "/"
	if len(args) == 1 {
		target = args[0]
	}

	return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
		n, err := w.root.GetHandler(ctx, treePath(target))
		if err != nil {
			return err
		}

		listing, err := list(ctx, n)
		if err != nil {
			return err
		}
		return w.printer.Print(listing)
	})
}

func list(ctx context.Context, n handler.Node) (output.Listing, error) {
	dir, ok := n.(*handler.Folder)
	if !ok {
		e, err := describe(ctx, n)
		if err != nil {
			return nil, err
		}
		return output.Listing{e}, nil
	}

	listing := output.Listing{}
	for child, err := range dir.Children(ctx) {
		if err != nil {
			return nil, err
		}
		e, err := describe(ctx, child)
		if err != nil {
			return nil, err
		}
		listing = append(listing, e)
	}
	return listing, nil
}
