package expr

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/nativeboot/errors"
)

// VisitFunc is called for every node in pre-order. depth is 0 for the root.
type VisitFunc func(n *Node, depth int) error

// Walk visits root and its descendants, stopping at the first error
func Walk(root *Node, fn VisitFunc) error {
	return walk(root, 0, fn)
}

func walk(n *Node, depth int, fn VisitFunc) error {
	if n == nil {
		return errors.InvalidInput(errors.PhaseMaterialise, "nil expression node")
	}
	if err := fn(n, depth); err != nil {
		return err
	}
	if n.Kind != KindOp {
		return nil
	}
	for _, arg := range n.Args {
		if err := walk(arg, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

const indent = "   "

// PrintTree writes one line per node, indented three spaces per level with
// the root at one level.
func PrintTree(w io.Writer, root *Node) error {
	return Walk(root, func(n *Node, depth int) error {
		_, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat(indent, depth+1), Label(n))
		return err
	})
}

// Label describes a single node
func Label(n *Node) string {
	switch n.Kind {
	case KindArray:
		dims := make([]string, len(n.Shape))
		for i, d := range n.Shape {
			dims[i] = fmt.Sprint(d)
		}
		return fmt.Sprintf("Array %s [%s]", n.Name, strings.Join(dims, "x"))
	case KindOp:
		return fmt.Sprintf("Op %s (%d args)", n.Name, len(n.Args))
	}
	return n.Kind.String()
}
