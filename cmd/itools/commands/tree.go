package commands

import (
	"context"

	"github.com/nkhine/itools/internal/cli/output"
	"github.com/nkhine/itools/pkg/handler"
	"github.com/spf13/cobra"
)

var treeDepth int

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Show a folder and everything below it",
	Long: `Print the folder hierarchy below a path. Each file is annotated with
the format that parses it.

Examples:
  # Whole store, two levels deep
  itools tree --depth 2

  # Nested JSON for scripting
  itools tree /configs -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().IntVarP(&treeDepth, "depth", "L", 0, "Maximum depth to descend (0 for unlimited)")
}

func runTree(cmd *cobra.Command, args []string) error {
	target := "/"
	if len(args) == 1 {
		target = args[0]
	}

	return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
		dir, err := w.root.GetFolder(ctx, treePath(target))
		if err != nil {
			return err
		}
		root, err := buildTree(ctx, dir)
		if err != nil {
			return err
		}
		if w.printer.Format() == output.FormatTable {
			return output.PrintTree(w.printer.Writer(), root)
		}
		return w.printer.Print(root)
	})
}

// buildTree mirrors the nodes visited by Traverse into output.TreeNodes.
// Traverse yields parents before children, so every node's parent is
// already in the index.
func buildTree(ctx context.Context, dir *handler.Folder) (*output.TreeNode, error) {
	label := dir.Name()
	if label == "" {
		label = "/"
	}
	root := &output.TreeNode{Label: label}
	index := map[*handler.Folder]*output.TreeNode{dir: root}
	depths := map[*handler.Folder]int{dir: 0}

	for n, err := range dir.Traverse(ctx) {
		if err != nil {
			return nil, err
		}
		parent := n.Parent()
		pnode, ok := index[parent]
		if !ok {
			continue
		}
		depth := depths[parent] + 1
		if treeDepth > 0 && depth > treeDepth {
			continue
		}

		note := ""
		if f, ok := n.(*handler.File); ok {
			note = f.Format().Name()
		}
		tn := pnode.Add(n.Name(), note)
		if sub, ok := n.(*handler.Folder); ok {
			index[sub] = tn
			depths[sub] = depth
		}
	}
	return root, nil
}
