package ir

import (
	"fmt"
	"strings"
)

// Module is a set of module-level instructions (types, constants,
// global variables) followed by functions, with a module-wide def-use
// map from result ids to defining instructions.
type Module struct {
	Globals []*Instruction
	Funcs   []*Function

	defs  map[ID]*Instruction
	maxID ID
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{defs: make(map[ID]*Instruction)}
}

// Def returns the instruction defining id, or nil.
func (m *Module) Def(id ID) *Instruction { return m.defs[id] }

// NextID allocates a fresh result id.
func (m *Module) NextID() ID {
	m.maxID++
	return m.maxID
}

// Register records inst as the definition of its result id. The block
// may be nil for module-level instructions.
func (m *Module) Register(inst *Instruction, blk *BasicBlock) error {
	inst.blk = blk
	if inst.Result == 0 {
		return nil
	}
	if _, ok := m.defs[inst.Result]; ok {
		return fmt.Errorf("duplicate result id %s", inst.Result)
	}
	m.defs[inst.Result] = inst
	if inst.Result > m.maxID {
		m.maxID = inst.Result
	}
	return nil
}

// registerLabel reserves a block label in the id space.
func (m *Module) registerLabel(label ID) error {
	if _, ok := m.defs[label]; ok {
		return fmt.Errorf("duplicate result id %s", label)
	}
	m.defs[label] = &Instruction{Op: OpLabel, Result: label}
	if label > m.maxID {
		m.maxID = label
	}
	return nil
}

// Unregister drops inst from the def-use map.
func (m *Module) Unregister(inst *Instruction) {
	if inst.Result != 0 && m.defs[inst.Result] == inst {
		delete(m.defs, inst.Result)
	}
}

// ConstantValue returns the signed integer value of id if it is
// defined by an OpConstant.
func (m *Module) ConstantValue(id ID) (int64, bool) {
	def := m.defs[id]
	if def == nil || def.Op != OpConstant || len(def.Lits) == 0 {
		return 0, false
	}
	return def.Lits[0], true
}

// String disassembles the module. Id operands print before literal
// operands; the assembler accepts both orders.
func (m *Module) String() string {
	var b strings.Builder
	for _, inst := range m.Globals {
		b.WriteString(inst.String())
		b.WriteByte('\n')
	}
	for _, fn := range m.Funcs {
		b.WriteString(fn.Def.String())
		b.WriteByte('\n')
		for _, p := range fn.Params {
			b.WriteString(p.String())
			b.WriteByte('\n')
		}
		for _, blk := range fn.Blocks {
			fmt.Fprintf(&b, "%s = OpLabel\n", blk.Label)
			for _, inst := range blk.Insts {
				b.WriteString(inst.String())
				b.WriteByte('\n')
			}
		}
		b.WriteString("OpFunctionEnd\n")
	}
	return b.String()
}
