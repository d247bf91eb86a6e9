// Package expr is a minimal expression tree handed to the native engine.
//
// A Node is either an Array leaf holding dense float64 data or an Op applying
// a named operation to child nodes. Trees are walked with Walk and sent to the
// engine in the compact binary form produced by Encode.
package expr

import (
	"fmt"
	"math"

	"github.com/wippyai/nativeboot/errors"
)

// Kind tags the variant held by a Node
type Kind uint8

const (
	KindArray Kind = 1
	KindOp    Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindOp:
		return "op"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Node is one expression tree node. Shape and Data are set for arrays,
// Args for ops.
type Node struct {
	Kind  Kind
	Name  string
	Shape []int
	Data  []float64
	Args  []*Node
}

// Array creates a leaf. A nil shape means a vector of len(data).
func Array(name string, shape []int, data []float64) *Node {
	if shape == nil {
		shape = []int{len(data)}
	}
	return &Node{Kind: KindArray, Name: name, Shape: shape, Data: data}
}

// Op creates an operation node
func Op(name string, args ...*Node) *Node {
	return &Node{Kind: KindOp, Name: name, Args: args}
}

// Validate checks that every node in the tree is well formed
func (n *Node) Validate() error {
	return Walk(n, func(n *Node, _ int) error {
		switch n.Kind {
		case KindArray:
			size := 1
			for _, d := range n.Shape {
				if d < 0 {
					return errors.InvalidInput(errors.PhaseMaterialise, fmt.Sprintf("array %q has negative dimension %d", n.Name, d))
				}
				if d > 0 && size > math.MaxInt/d {
					return errors.InvalidInput(errors.PhaseMaterialise, fmt.Sprintf("array %q shape %v is too large", n.Name, n.Shape))
				}
				size *= d
			}
			if size != len(n.Data) {
				return errors.InvalidInput(errors.PhaseMaterialise,
					fmt.Sprintf("array %q shape %v needs %d values, has %d", n.Name, n.Shape, size, len(n.Data)))
			}
		case KindOp:
			if n.Name == "" {
				return errors.InvalidInput(errors.PhaseMaterialise, "operation without a name")
			}
		default:
			return errors.InvalidInput(errors.PhaseMaterialise, "unknown node "+n.Kind.String())
		}
		return nil
	})
}
