package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nkhine/itools/internal/cli/output"
	"github.com/nkhine/itools/pkg/formats/image"
	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show details about a file or folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
			n, err := w.root.GetHandler(ctx, treePath(args[0]))
			if err != nil {
				return err
			}
			props, err := stat(ctx, n)
			if err != nil {
				return err
			}
			if w.printer.Format() == output.FormatTable {
				return output.PrintProperties(w.printer.Writer(), props)
			}
			return w.printer.Print(props)
		})
	},
}

func stat(ctx context.Context, n handler.Node) (output.Properties, error) {
	var p output.Properties
	p.Add("path", n.Path())
	p.Add("kind", n.Kind().String())

	switch v := n.(type) {
	case *handler.File:
		p.Add("format", v.Format().Name())
		data, err := v.Bytes(ctx)
		if err != nil {
			return nil, err
		}
		p.Add("size", humanize.IBytes(uint64(len(data))))

		state, err := v.State(ctx)
		if err != nil {
			return nil, err
		}
		if img, ok := state.(*image.Image); ok {
			w, h := img.Size()
			p.Add("dimensions", fmt.Sprintf("%dx%d", w, h))
		}

	case *handler.Folder:
		names, err := v.Names(ctx)
		if err != nil {
			return nil, err
		}
		p.Add("children", strconv.Itoa(len(names)))
		added, removed := v.Staged()
		if len(added) > 0 {
			p.Add("added", strings.Join(added, ", "))
		}
		if len(removed) > 0 {
			p.Add("removed", strings.Join(removed, ", "))
		}
	}

	r := n.Resource()
	if r == nil {
		p.Add("stored", "no")
		return p, nil
	}
	if mtime, ok, err := r.ModTime(ctx); err == nil && ok {
		p.Add("modified", mtime.Format(time.RFC3339))
	}
	if t, ok := r.(resource.Tagged); ok {
		if tag, err := t.Tag(ctx); err == nil && tag != "" {
			p.Add("tag", tag)
		}
	}
	p.Add("outdated", strconv.FormatBool(n.IsOutdated(ctx)))
	p.Add("changed", strconv.FormatBool(n.HasChanged(ctx)))
	return p, nil
}
