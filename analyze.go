package affine

import (
	"github.com/oleiade/lane"

	"github.com/scevlab/affine/ir"
)

// maxBuildDepth bounds the operand chain the builder will follow
// before degrading to CanNotCompute, so adversarially deep IR cannot
// exhaust the stack.
const maxBuildDepth = 4096

// AnalyzeInstruction returns the scalar evolution expression of inst.
// It never fails: instructions the analysis cannot decompose map to a
// ValueUnknown symbol, and shapes it cannot model (a phi whose
// loop-carried update is not affine in the phi) map to CanNotCompute.
// Results are memoized, so repeated calls return the same node.
//
// Arithmetic results are returned unsimplified; callers canonicalize
// with Simplify before comparing.
func (a *Analysis) AnalyzeInstruction(inst *ir.Instruction) Node {
	if inst == nil {
		return a.store.cannot
	}
	if n, ok := a.insts[inst]; ok {
		return n
	}
	w := &walker{
		a:       a,
		local:   make(map[*ir.Instruction]Node),
		pending: make(map[*ir.Instruction]Node),
	}
	return w.run(inst)
}

// walker evaluates one instruction's transitive operand graph with an
// explicit stack instead of native recursion.
type walker struct {
	a *Analysis

	// local holds results of this walk; entries computed while a phi
	// placeholder was live are listed in tainted and dropped once the
	// phi resolves, because they may embed the placeholder.
	local   map[*ir.Instruction]Node
	tainted []*ir.Instruction

	// pending maps loop-header phis under analysis to their
	// placeholder symbols.
	pending map[*ir.Instruction]Node
}

// frame is one instruction being evaluated. Plain instructions wait
// for deps then combine; phi frames step through entry-value analysis,
// back-edge analysis, and recurrence construction.
type frame struct {
	inst *ir.Instruction
	deps []*ir.Instruction
	args []Node

	// phi state
	loop  *ir.Loop
	entry *ir.Instruction
	back  *ir.Instruction
	stage int
}

func (w *walker) run(root *ir.Instruction) Node {
	s := lane.NewStack()
	s.Push(w.newFrame(root))

	for !s.Empty() {
		if s.Size() > maxBuildDepth {
			n := w.a.store.cannot
			w.a.insts[root] = n
			return n
		}

		f := s.Head().(*frame)
		if f.inst.Op == ir.OpPhi {
			if done := w.stepPhi(s, f); done {
				s.Pop()
			}
			continue
		}

		if len(f.args) < len(f.deps) {
			dep := f.deps[len(f.args)]
			if v, ok := w.value(dep); ok {
				f.args = append(f.args, v)
				continue
			}
			s.Push(w.newFrame(dep))
			continue
		}

		w.finish(f.inst, w.combine(f))
		s.Pop()
	}
	n, _ := w.value(root)
	return n
}

// newFrame prepares the evaluation frame for inst, resolving the
// operand instructions that must be analyzed first.
func (w *walker) newFrame(inst *ir.Instruction) *frame {
	f := &frame{inst: inst}
	switch inst.Op {
	case ir.OpIAdd, ir.OpISub, ir.OpIMul:
		f.deps = []*ir.Instruction{w.a.mod.Def(inst.Arg(0)), w.a.mod.Def(inst.Arg(1))}
	case ir.OpSNegate:
		f.deps = []*ir.Instruction{w.a.mod.Def(inst.Arg(0))}
	}
	return f
}

// value returns inst's node if it is already known to this walk.
func (w *walker) value(inst *ir.Instruction) (Node, bool) {
	if inst == nil {
		return w.a.store.cannot, true
	}
	if n, ok := w.pending[inst]; ok {
		return n, true
	}
	if n, ok := w.local[inst]; ok {
		return n, true
	}
	if n, ok := w.a.insts[inst]; ok {
		return n, true
	}
	return nil, false
}

// finish records inst's result. Commits to the analysis-wide memo
// cache only when no phi placeholder is live.
func (w *walker) finish(inst *ir.Instruction, n Node) {
	w.local[inst] = n
	if len(w.pending) == 0 {
		w.a.insts[inst] = n
	} else {
		w.tainted = append(w.tainted, inst)
	}
}

// combine builds the node for a non-phi instruction from its analyzed
// operands.
func (w *walker) combine(f *frame) Node {
	a := w.a
	switch f.inst.Op {
	case ir.OpConstant:
		if len(f.inst.Lits) == 0 {
			return a.store.cannot
		}
		return a.store.constOf(f.inst.Lits[0])
	case ir.OpIAdd:
		return a.NewAdd(f.args[0], f.args[1])
	case ir.OpISub:
		return a.NewSubtract(f.args[0], f.args[1])
	case ir.OpIMul:
		return a.NewMultiply(f.args[0], f.args[1])
	case ir.OpSNegate:
		return a.NewNegate(f.args[0])
	default:
		// Loads, calls, parameters, comparisons: opaque but stable.
		return a.store.unknownOf(f.inst)
	}
}

// stepPhi advances a phi frame. It reports whether the frame is done.
//
// A loop-header phi is modeled as a recurrence when its back-edge
// value decomposes as "phi + step" with a step that is invariant in
// the loop: the phi is bound to a placeholder symbol, the back-edge
// value is analyzed against it, and step = Simplify(back - placeholder)
// must come out free of the placeholder, free of recurrences of the
// same (or a nested) loop, and not CanNotCompute. Anything else, and
// any phi that is not a loop header merge, is CanNotCompute.
func (w *walker) stepPhi(s *lane.Stack, f *frame) bool {
	a := w.a
	inst := f.inst

	switch f.stage {
	case 0:
		var loop *ir.Loop
		if a.loops != nil {
			loop = a.loops.For(inst.Block())
		}
		if loop == nil || loop.Header != inst.Block() {
			w.finish(inst, a.store.cannot)
			return true
		}
		incoming := inst.Incoming()
		if len(incoming) != 2 {
			w.finish(inst, a.store.cannot)
			return true
		}
		for _, in := range incoming {
			pred := inst.Block().Fn().Block(in.Pred)
			if pred != nil && loop.Contains(pred) {
				f.back = a.mod.Def(in.Value)
			} else {
				f.entry = a.mod.Def(in.Value)
			}
		}
		if f.entry == nil || f.back == nil {
			w.finish(inst, a.store.cannot)
			return true
		}
		f.loop = loop
		f.stage = 1
		if _, ok := w.value(f.entry); !ok {
			s.Push(w.newFrame(f.entry))
		}
		return false

	case 1:
		entry, _ := w.value(f.entry)
		f.args = append(f.args, entry)
		if IsCanNotCompute(entry) {
			w.finish(inst, a.store.cannot)
			return true
		}
		w.pending[inst] = a.store.unknownOf(inst)
		f.stage = 2
		if _, ok := w.value(f.back); !ok {
			s.Push(w.newFrame(f.back))
		}
		return false

	default:
		back, _ := w.value(f.back)
		placeholder := w.pending[inst]
		delete(w.pending, inst)

		// Anything computed against a live placeholder may embed it;
		// drop it all so later lookups recompute against the resolved
		// phi.
		for _, t := range w.tainted {
			delete(w.local, t)
		}
		w.tainted = nil

		step := a.Simplify(a.NewSubtract(back, placeholder))
		live := map[Node]struct{}{placeholder: {}}
		for _, p := range w.pending {
			live[p] = struct{}{}
		}
		switch {
		case IsCanNotCompute(step),
			containsAny(step, live),
			!a.IsLoopInvariant(step, f.loop):
			w.finish(inst, a.store.cannot)
		default:
			offset := a.Simplify(f.args[0])
			w.finish(inst, a.store.recOf(f.loop, offset, step))
		}
		return true
	}
}
