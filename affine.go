// Package affine implements scalar evolution analysis over the ir
// package: it builds a symbolic algebraic representation of the values
// instructions compute inside loops, canonicalizes it, and answers
// questions such as "is this value loop-invariant?" and "what is the
// net offset between these two index expressions?". Loop optimization
// passes are its consumers.
//
// All expressions are hash-consed per Analysis instance, so canonical
// results compare by pointer. An Analysis is scoped to one pass
// invocation over one function and is not safe for concurrent use.
package affine

import (
	"github.com/scevlab/affine/ir"
)

// Analysis builds and canonicalizes scalar evolution expressions. It
// owns every node it hands out; nodes from different instances never
// mix.
type Analysis struct {
	mod   *ir.Module
	loops *ir.LoopInfo

	store *store
	insts map[*ir.Instruction]Node
}

// NewAnalysis returns an analysis for instructions of one function,
// described by its module and loop nest.
func NewAnalysis(mod *ir.Module, loops *ir.LoopInfo) *Analysis {
	return &Analysis{
		mod:   mod,
		loops: loops,
		store: newStore(),
		insts: make(map[*ir.Instruction]Node),
	}
}

// CanNotCompute returns the instance's unmodelable sentinel.
func (a *Analysis) CanNotCompute() Node { return a.store.cannot }

// NewConstant returns the interned constant v.
func (a *Analysis) NewConstant(v int64) Node { return a.store.constOf(v) }

// NewAdd returns the unsimplified sum of x and y. Callers compare
// expressions by simplifying the result.
func (a *Analysis) NewAdd(x, y Node) Node { return a.store.addOf([]Node{x, y}) }

// NewMultiply returns the unsimplified product of x and y.
func (a *Analysis) NewMultiply(x, y Node) Node { return a.store.mulOf([]Node{x, y}) }

// NewNegate returns the negation of x. Constants fold immediately;
// anything else is wrapped without further reduction.
func (a *Analysis) NewNegate(x Node) Node {
	switch x := x.(type) {
	case *Constant:
		return a.store.constOf(-x.value)
	case *CanNotCompute:
		return a.store.cannot
	default:
		return a.store.negOf(x)
	}
}

// NewSubtract returns the unsimplified difference of x and y, built as
// x + (-y).
func (a *Analysis) NewSubtract(x, y Node) Node {
	return a.NewAdd(x, a.NewNegate(y))
}

// IsLoopInvariant reports whether node does not vary across iterations
// of loop. Opaque symbols are assumed stable; what makes a node
// variant is a recurrence tied to the loop itself or to a loop nested
// inside it.
func (a *Analysis) IsLoopInvariant(node Node, loop *ir.Loop) bool {
	seen := make(map[Node]struct{})
	var walk func(Node) bool
	walk = func(n Node) bool {
		if _, ok := seen[n]; ok {
			return true
		}
		seen[n] = struct{}{}
		if rec, ok := n.(*Recurrent); ok {
			if rec.loop == loop || loop.ContainsLoop(rec.loop) {
				return false
			}
		}
		for _, c := range Children(n) {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	return walk(node)
}

// ConstantDifference simplifies x-y and, if the result is a constant,
// returns its value. This is the dependence-test primitive: two
// accesses at a constant relative offset subtract to a constant.
func (a *Analysis) ConstantDifference(x, y Node) (int64, bool) {
	d := a.Simplify(a.NewSubtract(x, y))
	if c, ok := d.(*Constant); ok {
		return c.value, true
	}
	return 0, false
}

// containsAny reports whether any node in set occurs in n.
func containsAny(n Node, set map[Node]struct{}) bool {
	if _, ok := set[n]; ok {
		return true
	}
	for _, c := range Children(n) {
		if containsAny(c, set) {
			return true
		}
	}
	return false
}
