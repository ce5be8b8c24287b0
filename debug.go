package affine

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Dump returns a verbose multi-line rendering of a node tree,
// including interned pointer identity, for debugging.
func Dump(n Node) string {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: false, DisableMethods: true}
	return cfg.Sdump(n)
}

// Tree returns an indented one-node-per-line rendering of a node
// tree. Shared subtrees print once per occurrence.
func Tree(n Node) string {
	var sb strings.Builder
	writeTree(&sb, n, 0)
	return sb.String()
}

func writeTree(sb *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := n.(type) {
	case *Constant:
		fmt.Fprintf(sb, "%sConstant(%d)\n", indent, n.value)
	case *ValueUnknown:
		fmt.Fprintf(sb, "%sValueUnknown(%s)\n", indent, n.inst.Result)
	case *Negative:
		fmt.Fprintf(sb, "%sNegative\n", indent)
		writeTree(sb, n.operand, depth+1)
	case *Add:
		fmt.Fprintf(sb, "%sAdd\n", indent)
		for _, c := range n.operands {
			writeTree(sb, c, depth+1)
		}
	case *Multiply:
		fmt.Fprintf(sb, "%sMultiply\n", indent)
		for _, c := range n.operands {
			writeTree(sb, c, depth+1)
		}
	case *Recurrent:
		fmt.Fprintf(sb, "%sRecurrent<%s>\n", indent, n.loop.Header.Label)
		writeTree(sb, n.offset, depth+1)
		writeTree(sb, n.coefficient, depth+1)
	case *CanNotCompute:
		fmt.Fprintf(sb, "%sCanNotCompute\n", indent)
	default:
		fmt.Fprintf(sb, "%s%s\n", indent, n)
	}
}
