package affine_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/scevlab/affine"
	"github.com/scevlab/affine/ir"
)

// fourSymbols defines four opaque scalar loads %50..%53 in a
// straight-line function.
const fourSymbols = `
%1 = OpTypeVoid
%2 = OpTypeFunction %1
%3 = OpTypeInt 32 1
%11 = OpTypePointer Private %3
%40 = OpVariable %11 Private
%41 = OpVariable %11 Private
%42 = OpVariable %11 Private
%43 = OpVariable %11 Private
%12 = OpFunction %1 None %2
%13 = OpLabel
%50 = OpLoad %3 %40
%51 = OpLoad %3 %41
%52 = OpLoad %3 %42
%53 = OpLoad %3 %43
OpReturn
OpFunctionEnd
`

func TestSimplify_ConstantFold(t *testing.T) {
	m, a := analyzeModule(t, fourSymbols)
	x := a.AnalyzeInstruction(m.Def(ir.ID(50)))

	// x*2 + 4 + 5 - 24 - x - x + 48
	n := a.NewAdd(a.NewMultiply(x, a.NewConstant(2)), a.NewConstant(4))
	n = a.NewAdd(n, a.NewConstant(5))
	n = a.NewSubtract(n, a.NewConstant(24))
	n = a.NewSubtract(n, x)
	n = a.NewSubtract(n, x)
	n = a.NewAdd(n, a.NewConstant(48))

	c, ok := a.Simplify(n).(*affine.Constant)
	if !ok {
		t.Fatalf("unexpected node: %s", a.Simplify(n))
	}
	if c.Value() != 33 {
		t.Fatalf("unexpected value: %d", c.Value())
	}
}

func TestSimplify_Cancellation(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	inc := a.AnalyzeInstruction(m.Def(ir.ID(16)))

	t.Run("SelfDifference", func(t *testing.T) {
		c, ok := a.Simplify(a.NewSubtract(inc, inc)).(*affine.Constant)
		if !ok || c.Value() != 0 {
			t.Fatalf("unexpected node: %s", a.Simplify(a.NewSubtract(inc, inc)))
		}
	})
	t.Run("SymbolResidue", func(t *testing.T) {
		// 2x - x - x leaves only the constant tail.
		x := a.AnalyzeInstruction(m.Def(ir.ID(24)))
		n := a.NewSubtract(a.NewMultiply(a.NewConstant(2), x), x)
		n = a.NewSubtract(n, x)
		c, ok := a.Simplify(n).(*affine.Constant)
		if !ok || c.Value() != 0 {
			t.Fatalf("unexpected node: %s", a.Simplify(n))
		}
	})
	t.Run("NegatedSymbol", func(t *testing.T) {
		x := a.AnalyzeInstruction(m.Def(ir.ID(24)))
		neg, ok := a.Simplify(a.NewSubtract(a.NewConstant(0), x)).(*affine.Negative)
		if !ok {
			t.Fatalf("unexpected node: %s", a.Simplify(a.NewSubtract(a.NewConstant(0), x)))
		}
		if neg.Operand() != x {
			t.Fatalf("unexpected operand: %s", neg.Operand())
		}
	})
}

func TestSimplify_ConstantDifference(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	phi := a.AnalyzeInstruction(m.Def(ir.ID(15)))
	inc := a.AnalyzeInstruction(m.Def(ir.ID(16)))

	if d, ok := a.ConstantDifference(inc, phi); !ok || d != 1 {
		t.Fatalf("unexpected difference: %d, %v", d, ok)
	}
	if d, ok := a.ConstantDifference(phi, inc); !ok || d != -1 {
		t.Fatalf("unexpected difference: %d, %v", d, ok)
	}
	if d, ok := a.ConstantDifference(inc, inc); !ok || d != 0 {
		t.Fatalf("unexpected difference: %d, %v", d, ok)
	}

	// Differences against an opaque value stay symbolic.
	m2, a2 := analyzeModule(t, symbolicBound)
	load := a2.AnalyzeInstruction(m2.Def(ir.ID(31)))
	if _, ok := a2.ConstantDifference(load, a2.NewConstant(1)); ok {
		t.Fatal("expected no constant difference for symbolic operand")
	}
}

func TestSimplify_RecurrenceScaling(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	rec := a.Simplify(a.AnalyzeInstruction(m.Def(ir.ID(15))))

	t.Run("Double", func(t *testing.T) {
		n, ok := a.Simplify(a.NewMultiply(rec, a.NewConstant(2))).(*affine.Recurrent)
		if !ok {
			t.Fatalf("unexpected node: %s", a.Simplify(a.NewMultiply(rec, a.NewConstant(2))))
		}
		if s := n.String(); s != "{0,+,2}<%14>" {
			t.Fatalf("unexpected recurrence: %s", s)
		}
	})
	t.Run("SumOfScales", func(t *testing.T) {
		// i*2 + i*5 combines to the same node as i*7.
		sum := a.Simplify(a.NewAdd(
			a.NewMultiply(rec, a.NewConstant(2)),
			a.NewMultiply(rec, a.NewConstant(5)),
		))
		direct := a.Simplify(a.NewMultiply(rec, a.NewConstant(7)))
		if sum != direct {
			t.Fatalf("equivalent evolutions not interned: %s vs %s", sum, direct)
		}
	})
	t.Run("Square", func(t *testing.T) {
		if n := a.Simplify(a.NewMultiply(rec, rec)); !affine.IsCanNotCompute(n) {
			t.Fatalf("expected CanNotCompute for polynomial evolution, got %s", n)
		}
	})
}

func TestSimplify_Distribution(t *testing.T) {
	m, a := analyzeModule(t, fourSymbols)
	x := a.AnalyzeInstruction(m.Def(ir.ID(50)))
	y := a.AnalyzeInstruction(m.Def(ir.ID(51)))
	u := a.AnalyzeInstruction(m.Def(ir.ID(52)))
	v := a.AnalyzeInstruction(m.Def(ir.ID(53)))

	// (x+y+2)*(u+v+3) against its hand-expanded form.
	product := a.Simplify(a.NewMultiply(
		a.NewAdd(a.NewAdd(x, y), a.NewConstant(2)),
		a.NewAdd(a.NewAdd(u, v), a.NewConstant(3)),
	))

	expanded := a.NewAdd(a.NewMultiply(x, u), a.NewMultiply(x, v))
	expanded = a.NewAdd(expanded, a.NewMultiply(a.NewConstant(3), x))
	expanded = a.NewAdd(expanded, a.NewMultiply(y, u))
	expanded = a.NewAdd(expanded, a.NewMultiply(y, v))
	expanded = a.NewAdd(expanded, a.NewMultiply(a.NewConstant(3), y))
	expanded = a.NewAdd(expanded, a.NewMultiply(a.NewConstant(2), u))
	expanded = a.NewAdd(expanded, a.NewMultiply(a.NewConstant(2), v))
	expanded = a.NewAdd(expanded, a.NewConstant(6))

	if want := a.Simplify(expanded); product != want {
		t.Fatalf("distribution mismatch:\n%s", cmp.Diff(want.String(), product.String()))
	}
}

func TestSimplify_Negation(t *testing.T) {
	m, a := analyzeModule(t, fourSymbols)
	x := a.AnalyzeInstruction(m.Def(ir.ID(50)))

	t.Run("ScaledProduct", func(t *testing.T) {
		// -(2x) and -2*x intern to the same product.
		neg := a.Simplify(a.NewNegate(a.NewMultiply(a.NewConstant(2), x)))
		direct := a.Simplify(a.NewMultiply(a.NewConstant(-2), x))
		if neg != direct {
			t.Fatalf("equivalent negations not interned: %s vs %s", neg, direct)
		}
	})
	t.Run("Double", func(t *testing.T) {
		if n := a.Simplify(a.NewNegate(a.NewNegate(x))); n != x {
			t.Fatalf("double negation not removed: %s", n)
		}
	})
	t.Run("Constant", func(t *testing.T) {
		c, ok := a.NewNegate(a.NewConstant(7)).(*affine.Constant)
		if !ok || c.Value() != -7 {
			t.Fatalf("unexpected node: %s", a.NewNegate(a.NewConstant(7)))
		}
	})
}

func TestSimplify_Idempotent(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	x := a.AnalyzeInstruction(m.Def(ir.ID(24)))
	rec := a.Simplify(a.AnalyzeInstruction(m.Def(ir.ID(15))))

	for _, n := range []affine.Node{
		a.NewConstant(5),
		x,
		rec,
		a.Simplify(a.NewAdd(x, rec)),
		a.Simplify(a.NewMultiply(a.NewConstant(2), x)),
		a.Simplify(a.NewNegate(x)),
		a.CanNotCompute(),
	} {
		if again := a.Simplify(n); again != n {
			t.Fatalf("not idempotent: %s vs %s", n, again)
		}
	}
}

func TestSimplify_CanNotComputeAbsorbs(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	x := a.AnalyzeInstruction(m.Def(ir.ID(24)))
	cnc := a.CanNotCompute()

	for _, n := range []affine.Node{
		a.NewAdd(x, cnc),
		a.NewMultiply(x, cnc),
		a.NewNegate(cnc),
		a.NewSubtract(x, cnc),
	} {
		if !affine.IsCanNotCompute(a.Simplify(n)) {
			t.Fatalf("sentinel not absorbing: %s", a.Simplify(n))
		}
	}
}

func TestIsLoopInvariant(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	rec := a.Simplify(a.AnalyzeInstruction(m.Def(ir.ID(15)))).(*affine.Recurrent)
	x := a.AnalyzeInstruction(m.Def(ir.ID(24)))

	if a.IsLoopInvariant(rec, rec.Loop()) {
		t.Fatal("recurrence reported invariant in its own loop")
	}
	if !a.IsLoopInvariant(x, rec.Loop()) {
		t.Fatal("opaque value reported variant")
	}
	if !a.IsLoopInvariant(a.NewConstant(3), rec.Loop()) {
		t.Fatal("constant reported variant")
	}
}

func TestIsAffine(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	rec := a.Simplify(a.AnalyzeInstruction(m.Def(ir.ID(15))))
	x := a.AnalyzeInstruction(m.Def(ir.ID(24)))

	if !affine.IsAffine(rec) {
		t.Fatalf("expected affine recurrence: %s", rec)
	}
	if affine.IsAffine(x) {
		t.Fatalf("unexpected affine node: %s", x)
	}
	if affine.IsAffine(a.CanNotCompute()) {
		t.Fatal("sentinel reported affine")
	}
}
