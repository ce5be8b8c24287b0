package affine_test

import (
	"strings"
	"testing"

	"github.com/scevlab/affine"
	"github.com/scevlab/affine/ir"
)

func TestNode_Interning(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	x := a.AnalyzeInstruction(m.Def(ir.ID(24)))
	y := a.AnalyzeInstruction(m.Def(ir.ID(20)))

	t.Run("Constant", func(t *testing.T) {
		if a.NewConstant(42) != a.NewConstant(42) {
			t.Fatal("equal constants not interned")
		}
		if a.NewConstant(42) == a.NewConstant(43) {
			t.Fatal("distinct constants interned together")
		}
	})
	t.Run("Unknown", func(t *testing.T) {
		if a.AnalyzeInstruction(m.Def(ir.ID(24))) != x {
			t.Fatal("equal unknowns not interned")
		}
		if x == y {
			t.Fatal("distinct unknowns interned together")
		}
	})
	t.Run("AddCommutes", func(t *testing.T) {
		if a.NewAdd(x, y) != a.NewAdd(y, x) {
			t.Fatal("commuted sums not interned")
		}
	})
	t.Run("MultiplyCommutes", func(t *testing.T) {
		if a.NewMultiply(x, y) != a.NewMultiply(y, x) {
			t.Fatal("commuted products not interned")
		}
	})
	t.Run("Negate", func(t *testing.T) {
		if a.NewNegate(x) != a.NewNegate(x) {
			t.Fatal("equal negations not interned")
		}
	})
	t.Run("CanNotCompute", func(t *testing.T) {
		if a.CanNotCompute() != a.CanNotCompute() {
			t.Fatal("sentinel not unique")
		}
	})
}

func TestNode_String(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	x := a.AnalyzeInstruction(m.Def(ir.ID(24)))

	for _, tt := range []struct {
		node affine.Node
		want string
	}{
		{a.NewConstant(7), "7"},
		{a.NewConstant(-7), "-7"},
		{x, "%24"},
		{a.NewAdd(a.NewConstant(1), x), "(1 + %24)"},
		{a.NewMultiply(a.NewConstant(2), x), "(2 * %24)"},
		{a.NewNegate(x), "(-%24)"},
		{a.Simplify(a.AnalyzeInstruction(m.Def(ir.ID(16)))), "{1,+,1}<%14>"},
		{a.CanNotCompute(), "CanNotCompute"},
	} {
		if got := tt.node.String(); got != tt.want {
			t.Fatalf("unexpected string: got %q, want %q", got, tt.want)
		}
	}
}

func TestNode_Children(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	x := a.AnalyzeInstruction(m.Def(ir.ID(24)))
	rec := a.Simplify(a.AnalyzeInstruction(m.Def(ir.ID(15))))

	if kids := affine.Children(x); kids != nil {
		t.Fatalf("unexpected children for leaf: %v", kids)
	}
	if kids := affine.Children(a.NewAdd(x, rec)); len(kids) != 2 {
		t.Fatalf("unexpected child count: %d", len(kids))
	}
	if kids := affine.Children(rec); len(kids) != 2 {
		t.Fatalf("unexpected child count: %d", len(kids))
	}
}

func TestDump(t *testing.T) {
	m, a := analyzeModule(t, countToTen)
	rec := a.Simplify(a.AnalyzeInstruction(m.Def(ir.ID(16))))

	if s := affine.Dump(rec); !strings.Contains(s, "Recurrent") {
		t.Fatalf("unexpected dump: %s", s)
	}
	if s := affine.Tree(rec); !strings.Contains(s, "Recurrent<%14>") || !strings.Contains(s, "Constant(1)") {
		t.Fatalf("unexpected tree: %s", s)
	}
}
