package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcodes carrying only debug or interface metadata are ignored by the
// assembler so fixtures can be pasted from full SPIR-V disassembly.
var skippedOpcodes = map[string]struct{}{
	"OpCapability":      {},
	"OpExtension":       {},
	"OpExtInstImport":   {},
	"OpMemoryModel":     {},
	"OpEntryPoint":      {},
	"OpExecutionMode":   {},
	"OpSource":          {},
	"OpName":            {},
	"OpMemberName":      {},
	"OpString":          {},
	"OpDecorate":        {},
	"OpMemberDecorate":  {},
	"OpSourceExtension": {},
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		if name != "" {
			m[name] = Opcode(op)
		}
	}
	return m
}()

// Opcodes whose first id operand after the result is a type id.
var typedOpcodes = map[Opcode]struct{}{
	OpConstant:          {},
	OpVariable:          {},
	OpUndef:             {},
	OpFunction:          {},
	OpFunctionParameter: {},
	OpPhi:               {},
	OpIAdd:              {},
	OpISub:              {},
	OpIMul:              {},
	OpSNegate:           {},
	OpSLessThan:         {},
	OpSGreaterThan:      {},
	OpLoad:              {},
	OpAccessChain:       {},
	OpCompositeExtract:  {},
	OpCompositeInsert:   {},
	OpCopyObject:        {},
	OpFunctionCall:      {},
}

// Assemble parses the textual IR form into a module and builds each
// function's CFG. Lines look like SPIR-V assembly:
//
//	%25 = OpPhi %8 %10 %23 %26 %27
//	OpLoopMerge %28 %27 None
//
// Comments start with ';'. Named storage classes and 'None' masks are
// accepted wherever a literal may appear.
func Assemble(text string) (*Module, error) {
	m := NewModule()

	var fn *Function
	var blk *BasicBlock

	for lineno, raw := range strings.Split(text, "\n") {
		line := raw
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		inst, name, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno+1, err)
		}
		if inst == nil {
			continue // skipped metadata opcode
		}

		switch inst.Op {
		case OpFunction:
			if fn != nil {
				return nil, fmt.Errorf("line %d: nested OpFunction", lineno+1)
			}
			fn = &Function{Def: inst, mod: m, byLabel: make(map[ID]*BasicBlock)}
			if err := m.Register(inst, nil); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno+1, err)
			}

		case OpFunctionParameter:
			if fn == nil || blk != nil {
				return nil, fmt.Errorf("line %d: %s outside function header", lineno+1, name)
			}
			fn.Params = append(fn.Params, inst)
			if err := m.Register(inst, nil); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno+1, err)
			}

		case OpFunctionEnd:
			if fn == nil {
				return nil, fmt.Errorf("line %d: OpFunctionEnd outside function", lineno+1)
			}
			fn.buildCFG()
			m.Funcs = append(m.Funcs, fn)
			fn, blk = nil, nil

		case OpLabel:
			if fn == nil {
				return nil, fmt.Errorf("line %d: OpLabel outside function", lineno+1)
			}
			blk = &BasicBlock{Label: inst.Result, fn: fn}
			fn.Blocks = append(fn.Blocks, blk)
			fn.byLabel[blk.Label] = blk
			if err := m.registerLabel(blk.Label); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno+1, err)
			}

		default:
			if fn == nil {
				if !inst.Op.IsType() && inst.Op != OpConstant && inst.Op != OpVariable && inst.Op != OpUndef {
					return nil, fmt.Errorf("line %d: %s outside function", lineno+1, name)
				}
				m.Globals = append(m.Globals, inst)
				if err := m.Register(inst, nil); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineno+1, err)
				}
				continue
			}
			if blk == nil {
				return nil, fmt.Errorf("line %d: %s before any OpLabel", lineno+1, name)
			}
			blk.Insts = append(blk.Insts, inst)
			if err := m.Register(inst, blk); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno+1, err)
			}
			if inst.Op.IsTerminator() {
				blk = nil
			}
		}
	}
	if fn != nil {
		return nil, fmt.Errorf("missing OpFunctionEnd")
	}
	return m, nil
}

// parseLine parses one instruction. A nil instruction with nil error
// means the line held a skipped metadata opcode.
func parseLine(line string) (*Instruction, string, error) {
	fields := strings.Fields(line)

	var result ID
	if strings.HasPrefix(fields[0], "%") {
		if len(fields) < 3 || fields[1] != "=" {
			return nil, "", fmt.Errorf("malformed instruction %q", line)
		}
		id, err := parseID(fields[0])
		if err != nil {
			return nil, "", err
		}
		result = id
		fields = fields[2:]
	}

	name := fields[0]
	if _, ok := skippedOpcodes[name]; ok {
		return nil, name, nil
	}
	op, ok := opcodeByName[name]
	if !ok {
		return nil, name, fmt.Errorf("unknown opcode %q", name)
	}

	inst := &Instruction{Op: op, Result: result}
	_, typed := typedOpcodes[op]
	for _, tok := range fields[1:] {
		switch {
		case strings.HasPrefix(tok, "%"):
			id, err := parseID(tok)
			if err != nil {
				return nil, name, err
			}
			if typed && inst.Type == 0 {
				inst.Type = id
			} else {
				inst.Args = append(inst.Args, id)
			}
		default:
			if v, ok := storageClassNames[tok]; ok {
				inst.Lits = append(inst.Lits, v)
				continue
			}
			v, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return nil, name, fmt.Errorf("bad operand %q", tok)
			}
			inst.Lits = append(inst.Lits, v)
		}
	}
	return inst, name, nil
}

func parseID(tok string) (ID, error) {
	v, err := strconv.ParseUint(tok[1:], 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("bad id %q", tok)
	}
	return ID(v), nil
}
