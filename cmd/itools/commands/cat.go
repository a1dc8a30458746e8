package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>...",
	Short: "Print file contents",
	Long: `Print the serialized contents of one or more files.

Files are read through their format, so a file that does not parse is
reported as an error instead of being printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				f, err := w.root.GetFile(ctx, treePath(arg))
				if err != nil {
					return err
				}
				data, err := f.Bytes(ctx)
				if err != nil {
					return err
				}
				if _, err := out.Write(data); err != nil {
					return err
				}
			}
			return nil
		})
	},
}
