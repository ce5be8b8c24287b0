package affine

import (
	"github.com/benbjohnson/immutable"

	"github.com/scevlab/affine/ir"
)

// Simplify rewrites node into canonical form: constants folded, nested
// sums and products flattened, equal terms cancelled, same-loop
// recurrences fused, scalars distributed into recurrences, and
// products of sums fully expanded. Simplification is idempotent and,
// because every result is interned, structurally identical results
// from independent call sites are pointer-equal.
//
// A CanNotCompute anywhere in the tree short-circuits the result to
// CanNotCompute.
func (a *Analysis) Simplify(node Node) Node {
	switch n := node.(type) {
	case *Negative:
		return a.negated(a.Simplify(n.operand))
	case *Recurrent:
		offset := a.Simplify(n.offset)
		coefficient := a.Simplify(n.coefficient)
		if IsCanNotCompute(offset) || IsCanNotCompute(coefficient) {
			return a.store.cannot
		}
		if c, ok := coefficient.(*Constant); ok && c.value == 0 {
			return offset
		}
		return a.store.recOf(n.loop, offset, coefficient)
	case *Add:
		return a.simplifySum(n.operands)
	case *Multiply:
		return a.simplifyProduct(n.operands)
	default:
		// Constants, symbols and the sentinel are already canonical.
		return node
	}
}

// negated returns the canonical negation of an already-simplified
// node. Constants fold, double negation unwraps, recurrences negate
// offset and coefficient in place, and a leading constant factor of a
// product changes sign; anything else gains a Negative wrapper.
func (a *Analysis) negated(n Node) Node {
	switch n := n.(type) {
	case *Constant:
		return a.store.constOf(-n.value)
	case *CanNotCompute:
		return a.store.cannot
	case *Negative:
		return n.operand
	case *Recurrent:
		return a.store.recOf(n.loop, a.negated(n.offset), a.negated(n.coefficient))
	case *Multiply:
		if c, ok := n.operands[0].(*Constant); ok {
			return a.constTimes(-c.value, n.operands[1:])
		}
		return a.store.negOf(n)
	default:
		return a.store.negOf(n)
	}
}

// constTimes assembles the canonical product of a constant and a list
// of already-simplified non-constant factors.
func (a *Analysis) constTimes(c int64, factors []Node) Node {
	switch {
	case c == 0 || len(factors) == 0:
		if c != 0 && len(factors) == 0 {
			return a.store.constOf(c)
		}
		return a.store.constOf(0)
	case len(factors) == 1 && c == 1:
		return factors[0]
	case len(factors) == 1 && c == -1:
		return a.negated(factors[0])
	case c == 1:
		return a.store.mulOf(factors)
	case c == -1:
		return a.negated(a.store.mulOf(factors))
	default:
		return a.store.mulOf(append([]Node{a.store.constOf(c)}, factors...))
	}
}

// scaled returns the canonical product c*base for an already
// simplified base.
func (a *Analysis) scaled(base Node, c int64) Node {
	switch base := base.(type) {
	case *Constant:
		return a.store.constOf(c * base.value)
	case *Negative:
		return a.scaled(base.operand, -c)
	case *Multiply:
		if c0, ok := base.operands[0].(*Constant); ok {
			return a.constTimes(c*c0.value, base.operands[1:])
		}
		return a.constTimes(c, base.operands)
	case *Recurrent:
		if c == 0 {
			return a.store.constOf(0)
		}
		return a.store.recOf(base.loop, a.scaled(base.offset, c), a.scaled(base.coefficient, c))
	default:
		return a.constTimes(c, []Node{base})
	}
}

// sumAcc accumulates the terms of a sum: a running constant, a count
// per non-recurrent term (held in a sorted persistent map keyed by
// node id so rebuild order is deterministic), and per-loop recurrence
// components.
type sumAcc struct {
	a        *Analysis
	constant int64
	counts   *immutable.SortedMap
	recs     []*recAcc
	recIdx   map[*ir.Loop]int
	cannot   bool
}

type recAcc struct {
	loop *ir.Loop
	offs []Node
	coes []Node
}

// nodeIDComparer orders sorted-map keys (store node ids). Implements
// immutable.Comparer.
type nodeIDComparer struct{}

// Compare returns -1, 1, or 0 as a sorts before, after, or equal to b.
func (c *nodeIDComparer) Compare(a, b interface{}) int {
	if i, j := a.(int), b.(int); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

func newSumAcc(a *Analysis) *sumAcc {
	return &sumAcc{
		a:      a,
		counts: immutable.NewSortedMap(&nodeIDComparer{}),
		recIdx: make(map[*ir.Loop]int),
	}
}

func (acc *sumAcc) bump(n Node, c int64) {
	id := acc.a.store.idOf(n)
	var cur int64
	if v, ok := acc.counts.Get(id); ok {
		cur = v.(int64)
	}
	acc.counts = acc.counts.Set(id, cur+c)
}

func (acc *sumAcc) rec(loop *ir.Loop) *recAcc {
	if i, ok := acc.recIdx[loop]; ok {
		return acc.recs[i]
	}
	r := &recAcc{loop: loop}
	acc.recIdx[loop] = len(acc.recs)
	acc.recs = append(acc.recs, r)
	return r
}

// add accumulates one already-simplified term with sign +1 or -1.
func (acc *sumAcc) add(n Node, sign int64) {
	switch n := n.(type) {
	case *Constant:
		acc.constant += sign * n.value
	case *Add:
		for _, c := range n.operands {
			acc.add(c, sign)
		}
	case *Negative:
		acc.add(n.operand, -sign)
	case *CanNotCompute:
		acc.cannot = true
	case *Recurrent:
		r := acc.rec(n.loop)
		offset, coefficient := n.offset, n.coefficient
		if sign < 0 {
			offset = acc.a.negated(offset)
			coefficient = acc.a.negated(coefficient)
		}
		r.offs = append(r.offs, offset)
		r.coes = append(r.coes, coefficient)
	case *Multiply:
		if c, ok := n.operands[0].(*Constant); ok {
			rest := n.operands[1:]
			if len(rest) == 1 {
				acc.bump(rest[0], sign*c.value)
			} else {
				acc.bump(acc.a.store.mulOf(rest), sign*c.value)
			}
			return
		}
		acc.bump(n, sign)
	default:
		acc.bump(n, sign)
	}
}

// residualTerms rebuilds the non-recurrent terms in canonical order.
func (acc *sumAcc) residualTerms() []Node {
	var terms []Node
	for itr := acc.counts.Iterator(); !itr.Done(); {
		k, v := itr.Next()
		count := v.(int64)
		if count == 0 {
			continue
		}
		terms = append(terms, acc.a.scaled(acc.a.store.nodeAt(k.(int)), count))
	}
	if acc.constant != 0 {
		terms = append(terms, acc.a.store.constOf(acc.constant))
	}
	return terms
}

func (acc *sumAcc) build() Node {
	a := acc.a
	if acc.cannot {
		return a.store.cannot
	}

	type rterm struct {
		loop *ir.Loop
		off  Node
		coe  Node
	}
	var fused []rterm
	var reflow []Node
	for _, r := range acc.recs {
		off := a.sumOf(r.offs)
		coe := a.sumOf(r.coes)
		if IsCanNotCompute(off) || IsCanNotCompute(coe) {
			return a.store.cannot
		}
		// A fully cancelled coefficient leaves only the offset; it
		// re-enters accumulation since it may itself hold recurrences.
		if c, ok := coe.(*Constant); ok && c.value == 0 {
			if c, ok := off.(*Constant); ok && c.value == 0 {
				continue
			}
			reflow = append(reflow, off)
			continue
		}
		fused = append(fused, rterm{loop: r.loop, off: off, coe: coe})
	}

	terms := acc.residualTerms()

	if len(reflow) > 0 {
		all := make([]Node, 0, len(terms)+len(reflow)+len(fused))
		all = append(all, terms...)
		all = append(all, reflow...)
		for _, r := range fused {
			all = append(all, a.store.recOf(r.loop, r.off, r.coe))
		}
		return a.simplifySum(all)
	}

	// Loop-invariant addends fold into the offset of the innermost
	// recurrence, provided the recurrence loops are totally ordered by
	// nesting (an outer recurrence is invariant in an inner loop, so
	// the offset invariant is preserved).
	if len(fused) > 0 && len(terms) > 0 {
		target := -1
		for i := range fused {
			innermost := true
			for j := range fused {
				if j != i && !fused[j].loop.ContainsLoop(fused[i].loop) {
					innermost = false
					break
				}
			}
			if innermost {
				target = i
				break
			}
		}
		if target >= 0 {
			fused[target].off = a.sumOf(append(terms, fused[target].off))
			if IsCanNotCompute(fused[target].off) {
				return a.store.cannot
			}
			terms = nil
		}
	}

	out := make([]Node, 0, len(fused)+len(terms))
	for _, r := range fused {
		out = append(out, a.store.recOf(r.loop, r.off, r.coe))
	}
	out = append(out, terms...)

	switch len(out) {
	case 0:
		return a.store.constOf(acc.constant)
	case 1:
		return out[0]
	default:
		return a.store.addOf(out)
	}
}

func (a *Analysis) simplifySum(terms []Node) Node {
	acc := newSumAcc(a)
	for _, t := range terms {
		acc.add(a.Simplify(t), 1)
	}
	return acc.build()
}

// sumOf sums a list of already-simplified nodes.
func (a *Analysis) sumOf(terms []Node) Node {
	switch len(terms) {
	case 0:
		return a.store.constOf(0)
	case 1:
		return terms[0]
	default:
		return a.simplifySum(terms)
	}
}

func (a *Analysis) simplifyProduct(factors []Node) Node {
	constant := int64(1)
	var sums []*Add
	var recs []*Recurrent
	var others []Node
	cannot := false

	var scan func(Node)
	scan = func(n Node) {
		switch n := n.(type) {
		case *Constant:
			constant *= n.value
		case *Multiply:
			for _, c := range n.operands {
				scan(c)
			}
		case *Negative:
			constant = -constant
			scan(n.operand)
		case *CanNotCompute:
			cannot = true
		case *Add:
			sums = append(sums, n)
		case *Recurrent:
			recs = append(recs, n)
		default:
			others = append(others, n)
		}
	}
	for _, f := range factors {
		scan(a.Simplify(f))
	}

	switch {
	case cannot:
		return a.store.cannot
	case constant == 0:
		return a.store.constOf(0)
	}

	// Products of sums distribute fully: one term from each sum per
	// expanded product, every remaining factor appended to each.
	if len(sums) > 0 {
		rest := make([]Node, 0, len(others)+len(recs)+1)
		rest = append(rest, others...)
		for _, r := range recs {
			rest = append(rest, r)
		}
		if constant != 1 {
			rest = append(rest, a.store.constOf(constant))
		}

		combos := [][]Node{nil}
		for _, sum := range sums {
			next := make([][]Node, 0, len(combos)*len(sum.operands))
			for _, combo := range combos {
				for _, term := range sum.operands {
					ext := make([]Node, len(combo), len(combo)+1)
					copy(ext, combo)
					next = append(next, append(ext, term))
				}
			}
			combos = next
		}

		products := make([]Node, 0, len(combos))
		for _, combo := range combos {
			products = append(products, a.simplifyProduct(append(combo, rest...)))
		}
		return a.sumOf(products)
	}

	// A product of two recurrences is polynomial in the iteration
	// count and not representable here.
	if len(recs) > 1 {
		return a.store.cannot
	}

	// A single recurrence absorbs the scalar factors into both offset
	// and coefficient.
	if len(recs) == 1 {
		rec := recs[0]
		scalar := append([]Node{a.store.constOf(constant)}, others...)
		offset := a.simplifyProduct(append([]Node{rec.offset}, scalar...))
		coefficient := a.simplifyProduct(append([]Node{rec.coefficient}, scalar...))
		if IsCanNotCompute(offset) || IsCanNotCompute(coefficient) {
			return a.store.cannot
		}
		if c, ok := coefficient.(*Constant); ok && c.value == 0 {
			return offset
		}
		return a.store.recOf(rec.loop, offset, coefficient)
	}

	return a.constTimes(constant, others)
}
