// Package ir implements a small SPIR-V-flavored SSA intermediate
// representation: instructions identified by result ids, basic blocks
// with structured loop and selection merges, functions, and a module
// level def-use map. It also provides a textual assembler and
// disassembler used by tests and tooling, plus CFG, dominator and loop
// nest analyses consumed by the optimization passes.
package ir

import "fmt"

// ID identifies a result, type, or block label within a module.
// The zero ID means "no id".
type ID uint32

// String returns the assembly form of the id.
func (id ID) String() string { return fmt.Sprintf("%%%d", uint32(id)) }

// Opcode enumerates the instruction set.
type Opcode int

const (
	OpNop = Opcode(iota)
	OpUndef

	// Types & module-level values.
	OpTypeVoid
	OpTypeBool
	OpTypeInt
	OpTypeFloat
	OpTypeArray
	OpTypePointer
	OpTypeFunction
	OpConstant
	OpVariable

	// Functions & structure.
	OpFunction
	OpFunctionParameter
	OpFunctionEnd
	OpLabel
	OpPhi
	OpLoopMerge
	OpSelectionMerge
	OpBranch
	OpBranchConditional
	OpReturn
	OpReturnValue

	// Arithmetic & comparison.
	OpIAdd
	OpISub
	OpIMul
	OpSNegate
	OpSLessThan
	OpSGreaterThan

	// Memory & composites.
	OpLoad
	OpStore
	OpAccessChain
	OpCompositeExtract
	OpCompositeInsert
	OpCopyObject
	OpFunctionCall
)

var opcodeNames = [...]string{
	OpNop:               "OpNop",
	OpUndef:             "OpUndef",
	OpTypeVoid:          "OpTypeVoid",
	OpTypeBool:          "OpTypeBool",
	OpTypeInt:           "OpTypeInt",
	OpTypeFloat:         "OpTypeFloat",
	OpTypeArray:         "OpTypeArray",
	OpTypePointer:       "OpTypePointer",
	OpTypeFunction:      "OpTypeFunction",
	OpConstant:          "OpConstant",
	OpVariable:          "OpVariable",
	OpFunction:          "OpFunction",
	OpFunctionParameter: "OpFunctionParameter",
	OpFunctionEnd:       "OpFunctionEnd",
	OpLabel:             "OpLabel",
	OpPhi:               "OpPhi",
	OpLoopMerge:         "OpLoopMerge",
	OpSelectionMerge:    "OpSelectionMerge",
	OpBranch:            "OpBranch",
	OpBranchConditional: "OpBranchConditional",
	OpReturn:            "OpReturn",
	OpReturnValue:       "OpReturnValue",
	OpIAdd:              "OpIAdd",
	OpISub:              "OpISub",
	OpIMul:              "OpIMul",
	OpSNegate:           "OpSNegate",
	OpSLessThan:         "OpSLessThan",
	OpSGreaterThan:      "OpSGreaterThan",
	OpLoad:              "OpLoad",
	OpStore:             "OpStore",
	OpAccessChain:       "OpAccessChain",
	OpCompositeExtract:  "OpCompositeExtract",
	OpCompositeInsert:   "OpCompositeInsert",
	OpCopyObject:        "OpCopyObject",
	OpFunctionCall:      "OpFunctionCall",
}

// String returns the assembly mnemonic of the opcode.
func (op Opcode) String() string {
	if op >= 0 && int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode<%d>", int(op))
}

// IsType returns true if op declares a type.
func (op Opcode) IsType() bool {
	return op >= OpTypeVoid && op <= OpTypeFunction
}

// IsTerminator returns true if op ends a basic block.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpBranch, OpBranchConditional, OpReturn, OpReturnValue:
		return true
	default:
		return false
	}
}

// IsPure returns true if op has no side effects and may be removed or
// moved when its result is unused or loop-invariant.
func (op Opcode) IsPure() bool {
	switch op {
	case OpIAdd, OpISub, OpIMul, OpSNegate, OpSLessThan, OpSGreaterThan,
		OpAccessChain, OpCompositeExtract, OpCompositeInsert, OpCopyObject,
		OpUndef, OpPhi:
		return true
	default:
		return false
	}
}

// Storage classes, as used by OpVariable and OpTypePointer literals.
const (
	StorageUniformConstant = int64(0)
	StorageInput           = int64(1)
	StorageUniform         = int64(2)
	StorageOutput          = int64(3)
	StorageWorkgroup       = int64(4)
	StorageCrossWorkgroup  = int64(5)
	StoragePrivate         = int64(6)
	StorageFunction        = int64(7)
)

var storageClassNames = map[string]int64{
	"UniformConstant": StorageUniformConstant,
	"Input":           StorageInput,
	"Uniform":         StorageUniform,
	"Output":          StorageOutput,
	"Workgroup":       StorageWorkgroup,
	"CrossWorkgroup":  StorageCrossWorkgroup,
	"Private":         StoragePrivate,
	"Function":        StorageFunction,
	"None":            0,
}
