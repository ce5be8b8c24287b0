package ir

// BasicBlock is a label followed by a straight-line run of
// instructions ending in a terminator. Predecessor and successor
// edges are filled in by buildCFG after assembly.
type BasicBlock struct {
	Label ID
	Insts []*Instruction

	Preds []*BasicBlock
	Succs []*BasicBlock

	fn *Function
}

// Fn returns the function containing the block.
func (b *BasicBlock) Fn() *Function { return b.fn }

// ID implements gonum's graph.Node so blocks can be fed directly into
// graph algorithms; the node id is the block label.
func (b *BasicBlock) ID() int64 { return int64(b.Label) }

// Terminator returns the block's final instruction, or nil for a block
// still under construction.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Insts) == 0 {
		return nil
	}
	if t := b.Insts[len(b.Insts)-1]; t.Op.IsTerminator() {
		return t
	}
	return nil
}

// MergeInst returns the block's OpLoopMerge or OpSelectionMerge
// instruction, or nil.
func (b *BasicBlock) MergeInst() *Instruction {
	for _, inst := range b.Insts {
		if inst.Op == OpLoopMerge || inst.Op == OpSelectionMerge {
			return inst
		}
	}
	return nil
}

// Phis returns the block's leading OpPhi instructions.
func (b *BasicBlock) Phis() []*Instruction {
	var phis []*Instruction
	for _, inst := range b.Insts {
		if inst.Op != OpPhi {
			break
		}
		phis = append(phis, inst)
	}
	return phis
}

// successorLabels returns the labels targeted by the terminator.
func (b *BasicBlock) successorLabels() []ID {
	t := b.Terminator()
	if t == nil {
		return nil
	}
	switch t.Op {
	case OpBranch:
		return []ID{t.Args[0]}
	case OpBranchConditional:
		return []ID{t.Args[1], t.Args[2]}
	default:
		return nil
	}
}

// InsertBefore inserts inst immediately before pos within the block.
// When pos is not in the block, inst is appended.
func (b *BasicBlock) InsertBefore(inst, pos *Instruction) {
	for i, cur := range b.Insts {
		if cur == pos {
			b.Insts = append(b.Insts, nil)
			copy(b.Insts[i+1:], b.Insts[i:])
			b.Insts[i] = inst
			inst.blk = b
			return
		}
	}
	b.Insts = append(b.Insts, inst)
	inst.blk = b
}

// Remove unlinks inst from the block. It reports whether the
// instruction was found.
func (b *BasicBlock) Remove(inst *Instruction) bool {
	for i, cur := range b.Insts {
		if cur == inst {
			b.Insts = append(b.Insts[:i], b.Insts[i+1:]...)
			inst.blk = nil
			return true
		}
	}
	return false
}
