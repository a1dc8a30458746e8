package output

import (
	"fmt"
	"io"
)

// TreeNode is one line of a rendered tree.
type TreeNode struct {
	Label    string      `json:"name" yaml:"name"`
	Note     string      `json:"note,omitempty" yaml:"note,omitempty"`
	Children []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Add appends a child and returns it.
func (n *TreeNode) Add(label, note string) *TreeNode {
	c := &TreeNode{Label: label, Note: note}
	n.Children = append(n.Children, c)
	return c
}

// PrintTree draws root and its descendants with box-drawing guides.
func PrintTree(w io.Writer, root *TreeNode) error {
	if _, err := fmt.Fprintln(w, line(root)); err != nil {
		return err
	}
	return printChildren(w, root.Children, "")
}

func printChildren(w io.Writer, children []*TreeNode, prefix string) error {
	for i, c := range children {
		branch, indent := "├── ", "│   "
		if i == len(children)-1 {
			branch, indent = "└── ", "    "
		}
		if _, err := fmt.Fprintln(w, prefix+branch+line(c)); err != nil {
			return err
		}
		if err := printChildren(w, c.Children, prefix+indent); err != nil {
			return err
		}
	}
	return nil
}

func line(n *TreeNode) string {
	if n.Note == "" {
		return n.Label
	}
	return fmt.Sprintf("%s (%s)", n.Label, n.Note)
}
