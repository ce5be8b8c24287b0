package ir

// Function is an OpFunction together with its parameters and blocks.
type Function struct {
	Def    *Instruction // the OpFunction instruction
	Params []*Instruction
	Blocks []*BasicBlock

	mod     *Module
	byLabel map[ID]*BasicBlock
}

// Mod returns the module containing the function.
func (fn *Function) Mod() *Module { return fn.mod }

// Entry returns the function's entry block.
func (fn *Function) Entry() *BasicBlock {
	if len(fn.Blocks) == 0 {
		return nil
	}
	return fn.Blocks[0]
}

// Block returns the block with the given label, or nil.
func (fn *Function) Block(label ID) *BasicBlock { return fn.byLabel[label] }

// buildCFG computes predecessor and successor edges from terminators.
func (fn *Function) buildCFG() {
	for _, b := range fn.Blocks {
		b.Preds = nil
		b.Succs = nil
	}
	for _, b := range fn.Blocks {
		for _, label := range b.successorLabels() {
			if s := fn.byLabel[label]; s != nil {
				b.Succs = append(b.Succs, s)
				s.Preds = append(s.Preds, b)
			}
		}
	}
}
