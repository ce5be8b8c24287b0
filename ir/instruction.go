package ir

import (
	"fmt"
	"strings"
)

// Instruction is a single IR instruction. Id operands and literal
// operands are kept in separate lists; within each list the original
// order is preserved.
type Instruction struct {
	Op     Opcode
	Result ID // zero if the instruction produces no value
	Type   ID // zero if the instruction has no result type
	Args   []ID
	Lits   []int64

	blk *BasicBlock
}

// Block returns the basic block holding the instruction, or nil for
// module-level instructions (types, constants, global variables).
func (inst *Instruction) Block() *BasicBlock { return inst.blk }

// Arg returns the i-th id operand.
func (inst *Instruction) Arg(i int) ID { return inst.Args[i] }

// PhiIncoming is one (value, predecessor) pair of an OpPhi.
type PhiIncoming struct {
	Value ID
	Pred  ID
}

// Incoming returns the (value, predecessor) pairs of an OpPhi.
func (inst *Instruction) Incoming() []PhiIncoming {
	if inst.Op != OpPhi {
		return nil
	}
	pairs := make([]PhiIncoming, 0, len(inst.Args)/2)
	for i := 0; i+1 < len(inst.Args); i += 2 {
		pairs = append(pairs, PhiIncoming{Value: inst.Args[i], Pred: inst.Args[i+1]})
	}
	return pairs
}

// String returns the instruction in assembly form.
func (inst *Instruction) String() string {
	var b strings.Builder
	if inst.Result != 0 {
		fmt.Fprintf(&b, "%s = ", inst.Result)
	}
	b.WriteString(inst.Op.String())
	if inst.Type != 0 {
		fmt.Fprintf(&b, " %s", inst.Type)
	}
	for _, a := range inst.Args {
		fmt.Fprintf(&b, " %s", a)
	}
	for _, l := range inst.Lits {
		fmt.Fprintf(&b, " %d", l)
	}
	return b.String()
}
