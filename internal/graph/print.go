package graph

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Describe renders the model's structure as an indented tree, one branch
// per node in creation order with its ports and bindings.
func Describe(m *Model) string {
	tree := treeprint.NewWithRoot(fmt.Sprintf("model (%d nodes)", m.Len()))
	for _, n := range m.Nodes() {
		branch := tree.AddBranch(fmt.Sprintf("%s %s", n.ID(), n.Op().OpName()))
		for _, in := range n.Inputs() {
			src := "<unbound>"
			if in.Bound() {
				src = in.ref.String()
			}
			branch.AddNode(fmt.Sprintf("in %q %s <- %s", in.Name(), in.Type(), src))
		}
		for _, out := range n.Outputs() {
			branch.AddNode(fmt.Sprintf("out %q %s %s refs=%d",
				out.Name(), out.Type(), out.Layout(), len(out.refs)))
		}
	}
	return tree.String()
}
