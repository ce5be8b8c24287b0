package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scevlab/affine/ir"
)

const nestedSrc = `
%1 = OpTypeVoid
%2 = OpTypeFunction %1
%3 = OpTypeInt 32 1
%4 = OpTypeBool
%5 = OpConstant %3 0
%6 = OpConstant %3 10
%7 = OpConstant %3 1
%12 = OpFunction %1 None %2
%13 = OpLabel
OpBranch %14
%14 = OpLabel
%15 = OpPhi %3 %5 %13 %16 %17
OpLoopMerge %18 %17 None
OpBranch %19
%19 = OpLabel
%20 = OpSLessThan %4 %15 %6
OpBranchConditional %20 %30 %18
%30 = OpLabel
OpBranch %31
%31 = OpLabel
%32 = OpPhi %3 %5 %30 %33 %34
OpLoopMerge %35 %34 None
OpBranch %36
%36 = OpLabel
%37 = OpSLessThan %4 %32 %6
OpBranchConditional %37 %38 %35
%38 = OpLabel
OpBranch %34
%34 = OpLabel
%33 = OpIAdd %3 %32 %7
OpBranch %31
%35 = OpLabel
OpBranch %17
%17 = OpLabel
%16 = OpIAdd %3 %15 %7
OpBranch %14
%18 = OpLabel
OpReturn
OpFunctionEnd
`

func analyzeNest(t *testing.T) (*ir.Function, *ir.LoopInfo) {
	t.Helper()
	m, err := ir.Assemble(nestedSrc)
	require.NoError(t, err)
	fn := m.Funcs[0]
	return fn, ir.AnalyzeLoops(fn, ir.NewDomTree(fn))
}

func TestAnalyzeLoops_Nest(t *testing.T) {
	_, li := analyzeNest(t)
	require.Len(t, li.Loops, 2)

	outer, inner := li.Loops[0], li.Loops[1]
	assert.Equal(t, ir.ID(14), outer.Header.Label)
	assert.Equal(t, ir.ID(18), outer.Merge.Label)
	assert.Equal(t, ir.ID(17), outer.Latch.Label)
	assert.Equal(t, ir.ID(31), inner.Header.Label)
	assert.Equal(t, ir.ID(35), inner.Merge.Label)
	assert.Equal(t, ir.ID(34), inner.Latch.Label)

	assert.Same(t, outer, inner.Parent)
	require.Len(t, outer.Children, 1)
	assert.Same(t, inner, outer.Children[0])
	assert.False(t, outer.IsNested())
	assert.True(t, inner.IsNested())
	assert.Equal(t, 1, outer.Depth())
	assert.Equal(t, 2, inner.Depth())

	assert.True(t, outer.ContainsLoop(inner))
	assert.False(t, inner.ContainsLoop(outer))
	assert.False(t, outer.ContainsLoop(outer))
}

func TestLoop_Contains(t *testing.T) {
	fn, li := analyzeNest(t)
	outer, inner := li.Loops[0], li.Loops[1]

	body := fn.Block(ir.ID(38))
	require.NotNil(t, body)
	assert.True(t, outer.Contains(body))
	assert.True(t, inner.Contains(body))

	latch := fn.Block(ir.ID(17))
	assert.True(t, outer.Contains(latch))
	assert.False(t, inner.Contains(latch))

	// The merge block is outside its loop.
	assert.False(t, outer.Contains(fn.Block(ir.ID(18))))
	assert.False(t, inner.Contains(fn.Block(ir.ID(35))))
}

func TestLoopInfo_For(t *testing.T) {
	fn, li := analyzeNest(t)
	outer, inner := li.Loops[0], li.Loops[1]

	assert.Same(t, inner, li.For(fn.Block(ir.ID(38))))
	assert.Same(t, inner, li.For(fn.Block(ir.ID(31))))
	assert.Same(t, outer, li.For(fn.Block(ir.ID(17))))
	assert.Nil(t, li.For(fn.Block(ir.ID(13))))
	assert.Nil(t, li.For(fn.Block(ir.ID(18))))
}

func TestLoop_Preheader(t *testing.T) {
	_, li := analyzeNest(t)
	outer, inner := li.Loops[0], li.Loops[1]

	require.NotNil(t, outer.Preheader())
	assert.Equal(t, ir.ID(13), outer.Preheader().Label)
	require.NotNil(t, inner.Preheader())
	assert.Equal(t, ir.ID(30), inner.Preheader().Label)
}
