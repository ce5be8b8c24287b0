package opt

import (
	"sort"

	"github.com/scevlab/affine"
	"github.com/scevlab/affine/ir"
)

// LICM hoists loop-invariant pure instructions into the loop
// preheader. An instruction is hoisted when every operand is defined
// outside the loop and its scalar evolution is invariant in the loop,
// so address computations whose evolution folds to a loop-invariant
// node move even when a plain operand scan would be inconclusive.
type LICM struct{}

// Name implements Pass.
func (*LICM) Name() string { return "licm" }

// Run implements Pass.
func (*LICM) Run(m *ir.Module) (bool, error) {
	changed := false
	for _, fn := range m.Funcs {
		if fn.Entry() == nil {
			continue
		}
		doms := ir.NewDomTree(fn)
		loops := ir.AnalyzeLoops(fn, doms)
		if len(loops.Loops) == 0 {
			continue
		}
		scev := affine.NewAnalysis(m, loops)

		// Innermost loops first so code escapes one level at a time
		// and outer passes see it already outside the inner loop.
		ordered := make([]*ir.Loop, len(loops.Loops))
		copy(ordered, loops.Loops)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Depth() > ordered[j].Depth()
		})

		for _, l := range ordered {
			if hoistLoop(fn, l, doms, scev) {
				changed = true
			}
		}
	}
	return changed, nil
}

func hoistLoop(fn *ir.Function, l *ir.Loop, doms *ir.DomTree, scev *affine.Analysis) bool {
	pre := l.Preheader()
	if pre == nil || pre.Terminator() == nil {
		return false
	}

	changed := false
	// Hoisting an instruction can make its users hoistable; iterate
	// to a fixpoint.
	for {
		moved := false
		for _, b := range fn.Blocks {
			if !l.Contains(b) {
				continue
			}
			for _, inst := range hoistable(b, l, doms, pre, scev) {
				b.Remove(inst)
				pre.InsertBefore(inst, pre.Terminator())
				moved = true
			}
		}
		if !moved {
			break
		}
		changed = true
	}
	return changed
}

// hoistable collects the instructions of b that may move to the
// preheader.
func hoistable(b *ir.BasicBlock, l *ir.Loop, doms *ir.DomTree, pre *ir.BasicBlock, scev *affine.Analysis) []*ir.Instruction {
	var out []*ir.Instruction
	for _, inst := range b.Insts {
		if !inst.Op.IsPure() || inst.Op == ir.OpPhi || inst.Result == 0 {
			continue
		}
		if !operandsAvailable(inst, l, doms, pre) {
			continue
		}
		if n := scev.AnalyzeInstruction(inst); affine.IsCanNotCompute(n) || !scev.IsLoopInvariant(n, l) {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// operandsAvailable reports whether every operand of inst is defined
// outside l in a block dominating the preheader, so the instruction
// can execute there.
func operandsAvailable(inst *ir.Instruction, l *ir.Loop, doms *ir.DomTree, pre *ir.BasicBlock) bool {
	mod := inst.Block().Fn().Mod()
	for _, arg := range inst.Args {
		def := mod.Def(arg)
		if def == nil {
			return false
		}
		blk := def.Block()
		if blk == nil {
			// Module-level constant or global.
			continue
		}
		if l.Contains(blk) || !doms.Dominates(blk, pre) {
			return false
		}
	}
	return true
}
