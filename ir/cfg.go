package ir

import (
	"github.com/oleiade/lane"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/iterator"
)

// funcGraph adapts a Function's CFG to gonum's graph.Directed so the
// dominator-tree computation can run on it unchanged.
type funcGraph struct {
	fn *Function
}

func (g funcGraph) Node(id int64) graph.Node {
	if b := g.fn.byLabel[ID(id)]; b != nil {
		return b
	}
	return nil
}

func (g funcGraph) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(g.fn.Blocks))
	for i, b := range g.fn.Blocks {
		nodes[i] = b
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g funcGraph) From(id int64) graph.Nodes {
	b := g.fn.byLabel[ID(id)]
	if b == nil || len(b.Succs) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(b.Succs))
	for i, s := range b.Succs {
		nodes[i] = s
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g funcGraph) To(id int64) graph.Nodes {
	b := g.fn.byLabel[ID(id)]
	if b == nil || len(b.Preds) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(b.Preds))
	for i, p := range b.Preds {
		nodes[i] = p
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g funcGraph) HasEdgeFromTo(uid, vid int64) bool {
	u := g.fn.byLabel[ID(uid)]
	if u == nil {
		return false
	}
	for _, s := range u.Succs {
		if s.ID() == vid {
			return true
		}
	}
	return false
}

func (g funcGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdgeFromTo(xid, yid) || g.HasEdgeFromTo(yid, xid)
}

func (g funcGraph) Edge(uid, vid int64) graph.Edge {
	if !g.HasEdgeFromTo(uid, vid) {
		return nil
	}
	return cfgEdge{from: g.fn.byLabel[ID(uid)], to: g.fn.byLabel[ID(vid)]}
}

type cfgEdge struct {
	from, to *BasicBlock
}

func (e cfgEdge) From() graph.Node         { return e.from }
func (e cfgEdge) To() graph.Node           { return e.to }
func (e cfgEdge) ReversedEdge() graph.Edge { return cfgEdge{from: e.to, to: e.from} }

// DomTree is the dominator tree of a function.
type DomTree struct {
	fn   *Function
	tree flow.DominatorTree
}

// NewDomTree computes the dominator tree of fn rooted at its entry
// block.
func NewDomTree(fn *Function) *DomTree {
	return &DomTree{
		fn:   fn,
		tree: flow.Dominators(fn.Entry(), funcGraph{fn: fn}),
	}
}

// Idom returns the immediate dominator of b, or nil for the entry.
func (d *DomTree) Idom(b *BasicBlock) *BasicBlock {
	n := d.tree.DominatorOf(b.ID())
	if n == nil {
		return nil
	}
	return d.fn.byLabel[ID(n.ID())]
}

// Dominates reports whether a dominates b (reflexively).
func (d *DomTree) Dominates(a, b *BasicBlock) bool {
	for cur := b; cur != nil; cur = d.Idom(cur) {
		if cur == a {
			return true
		}
	}
	return false
}

// PostOrder returns the blocks of fn reachable from the entry in
// depth-first post order, using an explicit stack.
func PostOrder(fn *Function) []*BasicBlock {
	entry := fn.Entry()
	if entry == nil {
		return nil
	}

	type visit struct {
		b *BasicBlock
		i int
	}

	var order []*BasicBlock
	seen := map[*BasicBlock]struct{}{entry: {}}
	s := lane.NewStack()
	s.Push(&visit{b: entry})

	for !s.Empty() {
		v := s.Head().(*visit)
		if v.i < len(v.b.Succs) {
			next := v.b.Succs[v.i]
			v.i++
			if _, ok := seen[next]; !ok {
				seen[next] = struct{}{}
				s.Push(&visit{b: next})
			}
			continue
		}
		order = append(order, v.b)
		s.Pop()
	}
	return order
}

// ReversePostOrder returns the blocks of fn in reverse post order.
func ReversePostOrder(fn *Function) []*BasicBlock {
	order := PostOrder(fn)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
