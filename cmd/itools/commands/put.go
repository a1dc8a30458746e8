package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/handler/errors"
	"github.com/spf13/cobra"
)

var (
	putFormat  string
	putParents bool
)

var putCmd = &cobra.Command{
	Use:   "put <path> [source]",
	Short: "Write a file",
	Long: `Write a file from a local source, or from stdin when the source is
omitted or "-". The content must parse in the file's format.

New files get their format from the configured suffix and tag bindings
unless --format is given.

Examples:
  # Copy a local file into the store
  itools put /configs/app.yaml ./app.yaml

  # Write from stdin, creating missing folders
  echo '{"debug": true}' | itools put -p /env/dev/flags.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

func init() {
	putCmd.Flags().StringVar(&putFormat, "format", "", "Format for a new file (json|yaml|toml|text|image)")
	putCmd.Flags().BoolVarP(&putParents, "parents", "p", false, "Create missing parent folders")
}

func runPut(cmd *cobra.Command, args []string) error {
	data, err := readSource(cmd, args[1:])
	if err != nil {
		return err
	}
	target := treePath(args[0])

	return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
		f, err := w.root.GetFile(ctx, target)
		switch {
		case err == nil:
		case handler.IsNotFoundError(err):
			if f, err = stageFile(ctx, w, target); err != nil {
				return err
			}
		default:
			return err
		}

		state, err := f.Format().Load(data)
		if err != nil {
			return errors.NewParseError(target, f.Format().Name(), err)
		}
		if err := f.SetState(ctx, state); err != nil {
			return err
		}
		if err := w.commit(ctx); err != nil {
			return err
		}
		w.printer.Status("wrote %s (%s)", target, f.Format().Name())
		return nil
	})
}

// stageFile adds a new, empty file at target.
func stageFile(ctx context.Context, w *workspace, target string) (*handler.File, error) {
	dir, name := splitTarget(target)
	parent := w.root
	if putParents {
		var err error
		if parent, err = mkdirAll(ctx, w.root, dir); err != nil {
			return nil, err
		}
	} else {
		var err error
		if parent, err = w.root.GetFolder(ctx, dir); err != nil {
			return nil, err
		}
	}

	f, err := newFile(w.session, name, putFormat)
	if err != nil {
		return nil, err
	}
	if err := parent.SetHandler(ctx, name, f); err != nil {
		return nil, err
	}
	return f, nil
}

func readSource(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return data, nil
}
