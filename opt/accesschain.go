package opt

import (
	"github.com/scevlab/affine/ir"
)

// AccessChainConvert rewrites loads and stores through constant-index
// access chains on function-storage variables into whole-variable
// loads paired with OpCompositeExtract or OpCompositeInsert. The
// access chains themselves become dead and fall to ADCE.
type AccessChainConvert struct{}

// Name implements Pass.
func (*AccessChainConvert) Name() string { return "convert-local-access-chains" }

// Run implements Pass.
func (*AccessChainConvert) Run(m *ir.Module) (bool, error) {
	changed := false
	for _, fn := range m.Funcs {
		for _, b := range fn.Blocks {
			// Snapshot: conversion inserts ahead of the rewritten
			// instruction.
			insts := make([]*ir.Instruction, len(b.Insts))
			copy(insts, b.Insts)
			for _, inst := range insts {
				c, err := convertInst(m, b, inst)
				if err != nil {
					return changed, err
				}
				changed = changed || c
			}
		}
	}
	return changed, nil
}

func convertInst(m *ir.Module, b *ir.BasicBlock, inst *ir.Instruction) (bool, error) {
	var ptr ir.ID
	switch inst.Op {
	case ir.OpLoad, ir.OpStore:
		ptr = inst.Arg(0)
	default:
		return false, nil
	}

	chain := m.Def(ptr)
	varID, idx, ok := convertibleChain(m, chain)
	if !ok {
		return false, nil
	}
	wholeType := pointeeType(m, m.Def(varID).Type)
	if wholeType == 0 {
		return false, nil
	}

	whole := &ir.Instruction{
		Op:     ir.OpLoad,
		Result: m.NextID(),
		Type:   wholeType,
		Args:   []ir.ID{varID},
	}
	if err := m.Register(whole, b); err != nil {
		return false, err
	}
	b.InsertBefore(whole, inst)

	switch inst.Op {
	case ir.OpLoad:
		// The element load becomes an extract from the whole value.
		inst.Op = ir.OpCompositeExtract
		inst.Args = []ir.ID{whole.Result}
		inst.Lits = idx
	case ir.OpStore:
		ins := &ir.Instruction{
			Op:     ir.OpCompositeInsert,
			Result: m.NextID(),
			Type:   wholeType,
			Args:   []ir.ID{inst.Arg(1), whole.Result},
			Lits:   idx,
		}
		if err := m.Register(ins, b); err != nil {
			return false, err
		}
		b.InsertBefore(ins, inst)
		inst.Args = []ir.ID{varID, ins.Result}
	}
	return true, nil
}

// convertibleChain reports whether chain is an access chain on a
// function-storage variable with all-constant indices, returning the
// base variable and the literal index path.
func convertibleChain(m *ir.Module, chain *ir.Instruction) (ir.ID, []int64, bool) {
	if chain == nil || chain.Op != ir.OpAccessChain || len(chain.Args) < 2 {
		return 0, nil, false
	}
	base := m.Def(chain.Arg(0))
	if base == nil || base.Op != ir.OpVariable ||
		len(base.Lits) == 0 || base.Lits[0] != ir.StorageFunction {
		return 0, nil, false
	}
	idx := make([]int64, 0, len(chain.Args)-1)
	for _, arg := range chain.Args[1:] {
		v, ok := m.ConstantValue(arg)
		if !ok {
			return 0, nil, false
		}
		idx = append(idx, v)
	}
	return base.Result, idx, true
}

// pointeeType returns the type pointed to by the pointer type ptrType,
// or 0.
func pointeeType(m *ir.Module, ptrType ir.ID) ir.ID {
	def := m.Def(ptrType)
	if def == nil || def.Op != ir.OpTypePointer || len(def.Args) == 0 {
		return 0
	}
	return def.Args[0]
}
