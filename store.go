package affine

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/scevlab/affine/ir"
)

// store is the hash-consing arena behind an Analysis. Every node is
// created here exactly once: intern lookups hash a structural
// descriptor and fall back to per-bucket structural comparison, so
// structurally equal expressions share one pointer. Each node also
// gets a small dense id used for canonical child ordering. The arena
// only grows; it lives as long as the analysis instance.
type store struct {
	nodes   []Node
	ids     map[Node]int
	buckets map[uint64][]Node

	cannot *CanNotCompute
}

func newStore() *store {
	s := &store{
		ids:     make(map[Node]int),
		buckets: make(map[uint64][]Node),
	}
	s.cannot = &CanNotCompute{}
	s.record(s.cannot)
	return s
}

func (s *store) record(n Node) Node {
	s.ids[n] = len(s.nodes)
	s.nodes = append(s.nodes, n)
	return n
}

func (s *store) nodeAt(id int) Node { return s.nodes[id] }

func (s *store) idOf(n Node) int { return s.ids[n] }

// less is the canonical ordering of interned nodes: by variant rank,
// then by creation order.
func (s *store) less(a, b Node) bool {
	if ra, rb := kindRank(a), kindRank(b); ra != rb {
		return ra < rb
	}
	return s.ids[a] < s.ids[b]
}

func (s *store) sortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool { return s.less(nodes[i], nodes[j]) })
}

func hashDescriptor(tag byte, words ...uint64) uint64 {
	buf := make([]byte, 1+8*len(words))
	buf[0] = tag
	for i, w := range words {
		binary.LittleEndian.PutUint64(buf[1+i*8:], w)
	}
	return xxhash.Sum64(buf)
}

func (s *store) lookup(h uint64, eq func(Node) bool) Node {
	for _, n := range s.buckets[h] {
		if eq(n) {
			return n
		}
	}
	return nil
}

func (s *store) insert(h uint64, n Node) Node {
	s.buckets[h] = append(s.buckets[h], n)
	return s.record(n)
}

func (s *store) constOf(v int64) *Constant {
	h := hashDescriptor('c', uint64(v))
	if n := s.lookup(h, func(n Node) bool {
		c, ok := n.(*Constant)
		return ok && c.value == v
	}); n != nil {
		return n.(*Constant)
	}
	return s.insert(h, &Constant{value: v}).(*Constant)
}

func (s *store) unknownOf(inst *ir.Instruction) *ValueUnknown {
	h := hashDescriptor('u', uint64(inst.Result))
	if n := s.lookup(h, func(n Node) bool {
		u, ok := n.(*ValueUnknown)
		return ok && u.inst == inst
	}); n != nil {
		return n.(*ValueUnknown)
	}
	return s.insert(h, &ValueUnknown{inst: inst}).(*ValueUnknown)
}

func (s *store) childWords(operands []Node) []uint64 {
	words := make([]uint64, len(operands))
	for i, o := range operands {
		words[i] = uint64(s.ids[o])
	}
	return words
}

func sameOperands(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// addOf interns an n-ary sum. Children are sorted into canonical
// order, so the multiset of children determines identity.
func (s *store) addOf(operands []Node) *Add {
	sorted := make([]Node, len(operands))
	copy(sorted, operands)
	s.sortNodes(sorted)

	h := hashDescriptor('a', s.childWords(sorted)...)
	if n := s.lookup(h, func(n Node) bool {
		a, ok := n.(*Add)
		return ok && sameOperands(a.operands, sorted)
	}); n != nil {
		return n.(*Add)
	}
	return s.insert(h, &Add{operands: sorted}).(*Add)
}

// mulOf interns an n-ary product; same shape as addOf.
func (s *store) mulOf(operands []Node) *Multiply {
	sorted := make([]Node, len(operands))
	copy(sorted, operands)
	s.sortNodes(sorted)

	h := hashDescriptor('m', s.childWords(sorted)...)
	if n := s.lookup(h, func(n Node) bool {
		m, ok := n.(*Multiply)
		return ok && sameOperands(m.operands, sorted)
	}); n != nil {
		return n.(*Multiply)
	}
	return s.insert(h, &Multiply{operands: sorted}).(*Multiply)
}

func (s *store) negOf(operand Node) *Negative {
	h := hashDescriptor('n', uint64(s.ids[operand]))
	if n := s.lookup(h, func(n Node) bool {
		neg, ok := n.(*Negative)
		return ok && neg.operand == operand
	}); n != nil {
		return n.(*Negative)
	}
	return s.insert(h, &Negative{operand: operand}).(*Negative)
}

func (s *store) recOf(loop *ir.Loop, offset, coefficient Node) *Recurrent {
	h := hashDescriptor('r',
		uint64(loop.Header.Label), uint64(s.ids[offset]), uint64(s.ids[coefficient]))
	if n := s.lookup(h, func(n Node) bool {
		r, ok := n.(*Recurrent)
		return ok && r.loop == loop && r.offset == offset && r.coefficient == coefficient
	}); n != nil {
		return n.(*Recurrent)
	}
	return s.insert(h, &Recurrent{loop: loop, offset: offset, coefficient: coefficient}).(*Recurrent)
}
