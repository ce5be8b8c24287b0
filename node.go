package affine

import (
	"fmt"
	"strings"

	"github.com/scevlab/affine/ir"
)

// Node represents a scalar evolution expression. Nodes are immutable
// and hash-consed by the owning Analysis: two structurally equal
// expressions built through the same Analysis are the same pointer, so
// equality checks are pointer comparisons.
type Node interface {
	fmt.Stringer
	node()
}

func (*Constant) node()      {}
func (*ValueUnknown) node()  {}
func (*Add) node()           {}
func (*Multiply) node()      {}
func (*Negative) node()      {}
func (*Recurrent) node()     {}
func (*CanNotCompute) node() {}

// Constant is a known signed 64-bit integer value.
type Constant struct {
	value int64
}

// Value returns the constant's value.
func (n *Constant) Value() int64 { return n.value }

// String returns the string representation of the constant.
func (n *Constant) String() string { return fmt.Sprintf("%d", n.value) }

// ValueUnknown is an opaque symbolic placeholder for a value the
// analysis does not decompose: a load result, a call result, a
// function parameter. It still participates in algebra and cancels
// against other occurrences of itself.
type ValueUnknown struct {
	inst *ir.Instruction
}

// Inst returns the instruction the symbol stands for.
func (n *ValueUnknown) Inst() *ir.Instruction { return n.inst }

// String returns the string representation of the symbol.
func (n *ValueUnknown) String() string { return n.inst.Result.String() }

// Add is an n-ary sum with children in canonical order.
type Add struct {
	operands []Node
}

// Operands returns the children. The returned slice must not be
// modified.
func (n *Add) Operands() []Node { return n.operands }

// String returns the string representation of the sum.
func (n *Add) String() string { return formatNary("+", n.operands) }

// Multiply is an n-ary product with children in canonical order.
type Multiply struct {
	operands []Node
}

// Operands returns the children. The returned slice must not be
// modified.
func (n *Multiply) Operands() []Node { return n.operands }

// String returns the string representation of the product.
func (n *Multiply) String() string { return formatNary("*", n.operands) }

// Negative is the unary negation of a non-constant child. Negating a
// constant folds immediately, so a Negative never wraps one.
type Negative struct {
	operand Node
}

// Operand returns the negated child.
func (n *Negative) Operand() Node { return n.operand }

// String returns the string representation of the negation.
func (n *Negative) String() string { return fmt.Sprintf("(-%s)", n.operand) }

// Recurrent is the value of a loop-carried quantity as a function of
// the loop's zero-based iteration count t:
//
//	value(t) = offset + coefficient*t
//
// Offset and coefficient are loop-invariant with respect to the loop.
type Recurrent struct {
	loop        *ir.Loop
	offset      Node
	coefficient Node
}

// Loop returns the loop the recurrence is tied to.
func (n *Recurrent) Loop() *ir.Loop { return n.loop }

// Offset returns the value at iteration zero.
func (n *Recurrent) Offset() Node { return n.offset }

// Coefficient returns the per-iteration step.
func (n *Recurrent) Coefficient() Node { return n.coefficient }

// String returns the recurrence in {offset,+,coefficient} form tagged
// with the loop header label.
func (n *Recurrent) String() string {
	return fmt.Sprintf("{%s,+,%s}<%s>", n.offset, n.coefficient, n.loop.Header.Label)
}

// CanNotCompute marks an expression whose shape could not be modeled.
// It is absorbing: any operation over it simplifies to it. Each
// Analysis owns a single instance.
type CanNotCompute struct{}

// String returns the string representation of the sentinel.
func (n *CanNotCompute) String() string { return "CanNotCompute" }

func formatNary(op string, operands []Node) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, o := range operands {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(op)
			b.WriteByte(' ')
		}
		b.WriteString(o.String())
	}
	b.WriteByte(')')
	return b.String()
}

// kindRank orders node variants for canonical child ordering:
// constants sort first, then symbols, composites, and recurrences.
func kindRank(n Node) int {
	switch n.(type) {
	case *Constant:
		return 0
	case *ValueUnknown:
		return 1
	case *Add:
		return 2
	case *Multiply:
		return 3
	case *Negative:
		return 4
	case *Recurrent:
		return 5
	default:
		return 6
	}
}

// Children returns the immediate children of n, nil for leaves.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Add:
		return n.operands
	case *Multiply:
		return n.operands
	case *Negative:
		return []Node{n.operand}
	case *Recurrent:
		return []Node{n.offset, n.coefficient}
	default:
		return nil
	}
}

// IsCanNotCompute reports whether n is the unmodelable sentinel.
func IsCanNotCompute(n Node) bool {
	_, ok := n.(*CanNotCompute)
	return ok
}

// IsAffine reports whether n is a recurrence whose coefficient holds
// no further recurrence, i.e. a plain affine function of the iteration
// count.
func IsAffine(n Node) bool {
	rec, ok := n.(*Recurrent)
	if !ok {
		return false
	}
	return !containsRecurrence(rec.coefficient)
}

func containsRecurrence(n Node) bool {
	if _, ok := n.(*Recurrent); ok {
		return true
	}
	for _, c := range Children(n) {
		if containsRecurrence(c) {
			return true
		}
	}
	return false
}
