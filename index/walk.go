package index

import (
	"github.com/emirpasic/gods/trees/binaryheap"
)

// walkItem is a single pending entry in a rev walk's frontier.
type walkItem struct {
	pos      IndexPosition
	unwanted bool
}

// positionComparator pops the item with the greatest position first
// (descending position order, per the index's walk contract); ties are
// broken in favor of unwanted items, so that exclusion reaches a shared
// ancestor before the wanted side gets a chance to emit it. gods'
// binaryheap pops the element the comparator ranks smallest, so "pops
// first" means "compares smaller" below.
func positionComparator(ai, bi any) int {
	a, b := ai.(walkItem), bi.(walkItem)
	if a.pos != b.pos {
		if a.pos > b.pos {
			return -1
		}
		return 1
	}
	if a.unwanted == b.unwanted {
		return 0
	}
	if a.unwanted {
		return -1
	}
	return 1
}

// RevWalker lazily yields ancestors(wanted) \ ancestors(unwanted) in
// descending position order. Grounded on the teacher's heap-based commit
// walkers (modules/zeta/object/commit_walker_ctime.go), generalized from a
// single-seed timestamp heap to a multi-seed, exclusion-aware position heap.
type RevWalker struct {
	idx     *Index
	heap    *binaryheap.Heap
	visited map[IndexPosition]bool
	done    bool
}

// WalkRevs starts a rev walk from wanted, excluding ancestors(unwanted).
func (idx *Index) WalkRevs(wanted, unwanted []IndexPosition) *RevWalker {
	h := binaryheap.NewWith(positionComparator)
	for _, p := range wanted {
		h.Push(walkItem{pos: p})
	}
	for _, p := range unwanted {
		h.Push(walkItem{pos: p, unwanted: true})
	}
	return &RevWalker{idx: idx, heap: h, visited: make(map[IndexPosition]bool)}
}

// Next returns the next included position, or ok=false once the walk is
// exhausted (or once only unwanted items remain, which can never produce
// another wanted emission).
func (w *RevWalker) Next() (IndexPosition, bool) {
	if w.done {
		return 0, false
	}
	for {
		v, ok := w.heap.Pop()
		if !ok {
			return 0, false
		}
		item := v.(walkItem)
		if w.visited[item.pos] {
			continue
		}
		w.visited[item.pos] = true

		e, found := w.idx.EntryByPos(item.pos)
		if found {
			for _, pp := range w.idx.ParentPositions(e) {
				if !w.visited[pp] {
					w.heap.Push(walkItem{pos: pp, unwanted: item.unwanted})
				}
			}
		}

		if item.unwanted {
			continue
		}
		if !w.anyWantedPending() {
			w.done = true
		}
		return item.pos, true
	}
}

// anyWantedPending is a conservative short-circuit check: once the heap
// holds only unwanted items, no further wanted position can ever surface.
func (w *RevWalker) anyWantedPending() bool {
	for _, v := range w.heap.Values() {
		if !v.(walkItem).unwanted {
			return true
		}
	}
	return false
}

// Collect drains the walker into a position slice, for callers that don't
// need streaming (e.g. heads/common-ancestors composition).
func (w *RevWalker) Collect() []IndexPosition {
	var out []IndexPosition
	for {
		p, ok := w.Next()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}

// FilterByGeneration restricts an already-computed wanted\unwanted walk to
// entries whose generation-distance from a wanted seed falls in [lo, hi).
// Distances are tracked per entry and an entry is kept if any of its
// distances (reached via any path) lies in range.
func (idx *Index) FilterByGeneration(wanted, unwanted []IndexPosition, lo, hi int) []IndexPosition {
	included := make(map[IndexPosition]bool)
	for _, p := range idx.WalkRevs(wanted, unwanted).Collect() {
		included[p] = true
	}

	distances := make(map[IndexPosition]map[int]bool)
	type frontierItem struct {
		pos  IndexPosition
		dist int
	}
	var queue []frontierItem
	for _, p := range wanted {
		if included[p] {
			queue = append(queue, frontierItem{pos: p, dist: 0})
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if distances[cur.pos] == nil {
			distances[cur.pos] = make(map[int]bool)
		}
		if distances[cur.pos][cur.dist] {
			continue
		}
		distances[cur.pos][cur.dist] = true

		e, ok := idx.EntryByPos(cur.pos)
		if !ok {
			continue
		}
		for _, pp := range idx.ParentPositions(e) {
			if included[pp] {
				queue = append(queue, frontierItem{pos: pp, dist: cur.dist + 1})
			}
		}
	}

	var out []IndexPosition
	for pos := range included {
		for d := range distances[pos] {
			if d >= lo && d < hi {
				out = append(out, pos)
				break
			}
		}
	}
	sortDescending(out)
	return out
}

func sortDescending(pos []IndexPosition) {
	for i := 1; i < len(pos); i++ {
		for j := i; j > 0 && pos[j-1] < pos[j]; j-- {
			pos[j-1], pos[j] = pos[j], pos[j-1]
		}
	}
}

// IsAncestor reports whether a is an ancestor of d, via bounded DFS from d
// pruning any branch whose generation has dropped below gen(a).
func (idx *Index) IsAncestor(a, d IndexPosition) bool {
	if a == d {
		return true
	}
	ae, ok := idx.EntryByPos(a)
	if !ok {
		return false
	}
	minGen := ae.Generation

	stack := []IndexPosition{d}
	seen := map[IndexPosition]bool{}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if cur == a {
			return true
		}
		e, ok := idx.EntryByPos(cur)
		if !ok || e.Generation < minGen {
			continue
		}
		stack = append(stack, idx.ParentPositions(e)...)
	}
	return false
}

// Heads returns the subset of candidates with no other candidate as an
// ancestor, by walking parents bounded by the candidate set's minimum
// generation and removing visited commits from the candidate set.
func (idx *Index) Heads(candidates []IndexPosition) []IndexPosition {
	if len(candidates) == 0 {
		return nil
	}
	remaining := make(map[IndexPosition]bool, len(candidates))
	minGen := ^uint32(0)
	for _, c := range candidates {
		remaining[c] = true
		if e, ok := idx.EntryByPos(c); ok && e.Generation < minGen {
			minGen = e.Generation
		}
	}

	seen := map[IndexPosition]bool{}
	var stack []IndexPosition
	for _, c := range candidates {
		stack = append(stack, c)
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		e, ok := idx.EntryByPos(cur)
		if !ok {
			continue
		}
		for _, pp := range idx.ParentPositions(e) {
			delete(remaining, pp)
			if pe, ok := idx.EntryByPos(pp); ok && pe.Generation >= minGen {
				stack = append(stack, pp)
			}
		}
	}

	out := make([]IndexPosition, 0, len(remaining))
	for _, c := range candidates {
		if remaining[c] {
			out = append(out, c)
		}
	}
	return out
}

// CommonAncestors merges two generation-keyed max-heaps, advancing the
// larger side at each step; equal tops are common ancestors. The result is
// reduced to heads() of the collected set.
func (idx *Index) CommonAncestors(set1, set2 []IndexPosition) []IndexPosition {
	genOf := func(p IndexPosition) uint32 {
		e, _ := idx.EntryByPos(p)
		return e.Generation
	}
	genCmp := func(ai, bi any) int {
		a, b := ai.(IndexPosition), bi.(IndexPosition)
		ga, gb := genOf(a), genOf(b)
		if ga != gb {
			if ga > gb {
				return -1
			}
			return 1
		}
		return 0
	}

	h1 := binaryheap.NewWith(genCmp)
	h2 := binaryheap.NewWith(genCmp)
	for _, p := range set1 {
		h1.Push(p)
	}
	for _, p := range set2 {
		h2.Push(p)
	}

	seen1 := map[IndexPosition]bool{}
	seen2 := map[IndexPosition]bool{}
	var common []IndexPosition

	pushParents := func(h *binaryheap.Heap, seen map[IndexPosition]bool, p IndexPosition) {
		e, ok := idx.EntryByPos(p)
		if !ok {
			return
		}
		for _, pp := range idx.ParentPositions(e) {
			if !seen[pp] {
				h.Push(pp)
			}
		}
	}

	for !h1.Empty() && !h2.Empty() {
		v1, _ := h1.Peek()
		v2, _ := h2.Peek()
		p1 := v1.(IndexPosition)
		p2 := v2.(IndexPosition)

		switch {
		case genOf(p1) > genOf(p2):
			h1.Pop()
			if seen1[p1] {
				continue
			}
			seen1[p1] = true
			if seen2[p1] {
				common = append(common, p1)
			}
			pushParents(h1, seen1, p1)
		case genOf(p2) > genOf(p1):
			h2.Pop()
			if seen2[p2] {
				continue
			}
			seen2[p2] = true
			if seen1[p2] {
				common = append(common, p2)
			}
			pushParents(h2, seen2, p2)
		default:
			h1.Pop()
			h2.Pop()
			if !seen1[p1] {
				seen1[p1] = true
				pushParents(h1, seen1, p1)
			}
			if !seen2[p2] {
				seen2[p2] = true
				pushParents(h2, seen2, p2)
			}
			if p1 == p2 {
				common = append(common, p1)
			} else {
				if seen2[p1] {
					common = append(common, p1)
				}
				if seen1[p2] {
					common = append(common, p2)
				}
			}
		}
	}

	return idx.Heads(dedupe(common))
}

func dedupe(pos []IndexPosition) []IndexPosition {
	seen := make(map[IndexPosition]bool, len(pos))
	out := make([]IndexPosition, 0, len(pos))
	for _, p := range pos {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
