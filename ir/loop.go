package ir

import "sort"

// Loop is a natural loop announced by an OpLoopMerge: the block
// carrying the merge instruction is the header, the merge operands
// name the merge (exit) block and the continue (latch) block.
type Loop struct {
	Header *BasicBlock
	Merge  *BasicBlock
	Latch  *BasicBlock

	Parent   *Loop
	Children []*Loop

	blocks map[*BasicBlock]struct{}
}

// Contains reports whether b belongs to the loop (header included,
// merge block excluded).
func (l *Loop) Contains(b *BasicBlock) bool {
	_, ok := l.blocks[b]
	return ok
}

// ContainsLoop reports whether other is nested (possibly transitively)
// inside l.
func (l *Loop) ContainsLoop(other *Loop) bool {
	if other == nil || other == l {
		return false
	}
	return l.Contains(other.Header)
}

// IsNested reports whether the loop lives inside another loop.
func (l *Loop) IsNested() bool { return l.Parent != nil }

// Depth returns the nesting depth, 1 for an outermost loop.
func (l *Loop) Depth() int {
	d := 0
	for cur := l; cur != nil; cur = cur.Parent {
		d++
	}
	return d
}

// NumBlocks returns the number of blocks in the loop.
func (l *Loop) NumBlocks() int { return len(l.blocks) }

// Preheader returns the unique out-of-loop predecessor of the header,
// or nil if the header has several entry edges.
func (l *Loop) Preheader() *BasicBlock {
	var pre *BasicBlock
	for _, p := range l.Header.Preds {
		if l.Contains(p) {
			continue
		}
		if pre != nil {
			return nil
		}
		pre = p
	}
	return pre
}

// LoopInfo is the loop nest of one function.
type LoopInfo struct {
	Loops []*Loop // all loops, outer before inner

	byBlock map[*BasicBlock]*Loop
}

// For returns the innermost loop containing b, or nil.
func (li *LoopInfo) For(b *BasicBlock) *Loop { return li.byBlock[b] }

// AnalyzeLoops discovers the loop nest of fn using its dominator tree.
func AnalyzeLoops(fn *Function, doms *DomTree) *LoopInfo {
	li := &LoopInfo{byBlock: make(map[*BasicBlock]*Loop)}

	for _, b := range fn.Blocks {
		merge := b.MergeInst()
		if merge == nil || merge.Op != OpLoopMerge {
			continue
		}
		l := &Loop{
			Header: b,
			Merge:  fn.Block(merge.Args[0]),
			Latch:  fn.Block(merge.Args[1]),
			blocks: make(map[*BasicBlock]struct{}),
		}
		collectLoopBlocks(l, doms)
		li.Loops = append(li.Loops, l)
	}

	// Outer loops first so nesting links resolve innermost parents.
	sort.SliceStable(li.Loops, func(i, j int) bool {
		return li.Loops[i].NumBlocks() > li.Loops[j].NumBlocks()
	})

	for _, l := range li.Loops {
		for _, outer := range li.Loops {
			if outer == l || !outer.Contains(l.Header) {
				continue
			}
			if l.Parent == nil || l.Parent.Contains(outer.Header) {
				l.Parent = outer
			}
		}
	}
	for _, l := range li.Loops {
		if l.Parent != nil {
			l.Parent.Children = append(l.Parent.Children, l)
		}
		for b := range l.blocks {
			if cur := li.byBlock[b]; cur == nil || cur.Contains(l.Header) {
				li.byBlock[b] = l
			}
		}
	}
	return li
}

// collectLoopBlocks walks successors from the header, never crossing
// the merge block, keeping blocks the header dominates.
func collectLoopBlocks(l *Loop, doms *DomTree) {
	stack := []*BasicBlock{l.Header}
	l.blocks[l.Header] = struct{}{}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range b.Succs {
			if s == l.Merge {
				continue
			}
			if _, ok := l.blocks[s]; ok {
				continue
			}
			if !doms.Dominates(l.Header, s) {
				continue
			}
			l.blocks[s] = struct{}{}
			stack = append(stack, s)
		}
	}
}
