package opt

import (
	"github.com/oleiade/lane"

	"github.com/scevlab/affine/ir"
)

// ADCE removes pure instructions whose results never reach a side
// effect. Liveness seeds from stores, calls, terminators, and merge
// declarations, then flows backwards through operands with a
// worklist.
type ADCE struct{}

// Name implements Pass.
func (*ADCE) Name() string { return "adce" }

// Run implements Pass.
func (*ADCE) Run(m *ir.Module) (bool, error) {
	changed := false
	for _, fn := range m.Funcs {
		if eliminate(m, fn) {
			changed = true
		}
	}
	return changed, nil
}

func eliminate(m *ir.Module, fn *ir.Function) bool {
	live := make(map[*ir.Instruction]struct{})
	q := lane.NewQueue()

	mark := func(inst *ir.Instruction) {
		if inst == nil {
			return
		}
		if _, ok := live[inst]; ok {
			return
		}
		live[inst] = struct{}{}
		q.Enqueue(inst)
	}

	for _, b := range fn.Blocks {
		for _, inst := range b.Insts {
			if !inst.Op.IsPure() {
				mark(inst)
			}
		}
	}

	for !q.Empty() {
		inst := q.Dequeue().(*ir.Instruction)
		for _, arg := range inst.Args {
			if def := m.Def(arg); def != nil && def.Block() != nil {
				mark(def)
			}
		}
	}

	changed := false
	for _, b := range fn.Blocks {
		var dead []*ir.Instruction
		for _, inst := range b.Insts {
			if _, ok := live[inst]; ok {
				continue
			}
			if inst.Op.IsPure() && inst.Result != 0 {
				dead = append(dead, inst)
			}
		}
		for _, inst := range dead {
			b.Remove(inst)
			m.Unregister(inst)
			changed = true
		}
	}
	return changed
}
