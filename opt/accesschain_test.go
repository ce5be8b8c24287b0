package opt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scevlab/affine/ir"
	"github.com/scevlab/affine/opt"
)

// localArray reads a[0] and writes it to a[1] through a
// function-storage array, plus one access into a Private global that
// must not convert.
const localArray = `
%1 = OpTypeVoid
%2 = OpTypeFunction %1
%3 = OpTypeInt 32 1
%5 = OpConstant %3 0
%6 = OpConstant %3 10
%7 = OpConstant %3 1
%8 = OpTypeArray %3 %6
%9 = OpTypePointer Function %8
%11 = OpTypePointer Function %3
%25 = OpTypePointer Private %8
%26 = OpTypePointer Private %3
%27 = OpVariable %25 Private
%12 = OpFunction %1 None %2
%13 = OpLabel
%40 = OpVariable %9 Function
%41 = OpAccessChain %11 %40 %5
%42 = OpLoad %3 %41
%43 = OpAccessChain %11 %40 %7
OpStore %43 %42
%44 = OpAccessChain %26 %27 %5
%45 = OpLoad %3 %44
OpReturn
OpFunctionEnd
`

func TestAccessChainConvert(t *testing.T) {
	m, err := ir.Assemble(localArray)
	require.NoError(t, err)

	changed, err := (&opt.AccessChainConvert{}).Run(m)
	require.NoError(t, err)
	assert.True(t, changed)

	// The element load became an extract from a whole-array load.
	extract := m.Def(ir.ID(42))
	require.NotNil(t, extract)
	assert.Equal(t, ir.OpCompositeExtract, extract.Op)
	assert.Equal(t, []int64{0}, extract.Lits)

	whole := m.Def(extract.Arg(0))
	require.NotNil(t, whole)
	assert.Equal(t, ir.OpLoad, whole.Op)
	assert.Equal(t, ir.ID(8), whole.Type)
	assert.Equal(t, ir.ID(40), whole.Arg(0))

	// The store now writes the whole array through an insert.
	blk := m.Funcs[0].Block(ir.ID(13))
	var store *ir.Instruction
	for _, inst := range blk.Insts {
		if inst.Op == ir.OpStore && inst.Arg(0) == ir.ID(40) {
			store = inst
		}
	}
	require.NotNil(t, store)
	ins := m.Def(store.Arg(1))
	require.NotNil(t, ins)
	assert.Equal(t, ir.OpCompositeInsert, ins.Op)
	assert.Equal(t, []int64{1}, ins.Lits)
	assert.Equal(t, ir.ID(42), ins.Arg(0))
	assert.Equal(t, ir.ID(8), m.Def(ins.Arg(1)).Type)

	// The Private-storage access stays untouched.
	assert.Equal(t, ir.OpAccessChain, m.Def(ir.ID(44)).Op)
	assert.Equal(t, ir.OpLoad, m.Def(ir.ID(45)).Op)
	assert.Equal(t, []ir.ID{44}, m.Def(ir.ID(45)).Args)
}

func TestAccessChainConvert_VariableIndex(t *testing.T) {
	// An access chain indexed by a non-constant must not convert.
	m, err := ir.Assemble(`
%1 = OpTypeVoid
%2 = OpTypeFunction %1
%3 = OpTypeInt 32 1
%5 = OpConstant %3 0
%6 = OpConstant %3 10
%8 = OpTypeArray %3 %6
%9 = OpTypePointer Function %8
%11 = OpTypePointer Function %3
%12 = OpFunction %1 None %2
%13 = OpLabel
%40 = OpVariable %9 Function
%41 = OpAccessChain %11 %40 %5
%42 = OpLoad %3 %41
%43 = OpAccessChain %11 %40 %42
%44 = OpLoad %3 %43
OpReturn
OpFunctionEnd
`)
	require.NoError(t, err)

	_, err = (&opt.AccessChainConvert{}).Run(m)
	require.NoError(t, err)

	assert.Equal(t, ir.OpAccessChain, m.Def(ir.ID(43)).Op)
	assert.Equal(t, ir.OpLoad, m.Def(ir.ID(44)).Op)
}

func TestPipeline(t *testing.T) {
	m, err := ir.Assemble(localArray)
	require.NoError(t, err)

	changed, err := opt.Run(m, opt.All()...)
	require.NoError(t, err)
	assert.True(t, changed)

	// Converted access chains into the local array are dead after the
	// cleanup pass.
	assert.Nil(t, m.Def(ir.ID(41)))
	assert.Nil(t, m.Def(ir.ID(43)))
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"licm", "adce", "convert-local-access-chains"} {
		p, err := opt.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}
	_, err := opt.Lookup("bogus")
	assert.Error(t, err)
}
