// Package dag exposes ancestry operations over a commit index through a
// stable, read-only interface, independent of the index's own segment
// chain representation.
package dag

import (
	"sort"

	"github.com/chronovc/chronocore/index"
)

// Entry is a position paired with its graph record, the unit these
// operations work with so callers don't need to re-query the index.
type Entry struct {
	Position index.IndexPosition
	Graph    index.GraphEntry
}

func entryOf(idx *index.Index, pos index.IndexPosition) (Entry, bool) {
	g, ok := idx.EntryByPos(pos)
	if !ok {
		return Entry{}, false
	}
	return Entry{Position: pos, Graph: g}, true
}

// Heads returns the subset of candidates with no other candidate as an ancestor.
func Heads(idx *index.Index, candidates []index.IndexPosition) []index.IndexPosition {
	return idx.Heads(candidates)
}

// Roots returns the subset of candidates that have no other candidate as an ancestor.
func Roots(idx *index.Index, candidates []index.IndexPosition) []index.IndexPosition {
	var out []index.IndexPosition
	for _, c := range candidates {
		hasCandidateAncestor := false
		for _, other := range candidates {
			if other == c {
				continue
			}
			if idx.IsAncestor(other, c) {
				hasCandidateAncestor = true
				break
			}
		}
		if !hasCandidateAncestor {
			out = append(out, c)
		}
	}
	return out
}

// TopoOrder returns input sorted by ascending position (an ancestor always
// sorts before its descendants).
func TopoOrder(idx *index.Index, input []index.IndexPosition) []Entry {
	out := make([]Entry, 0, len(input))
	for _, p := range input {
		if e, ok := entryOf(idx, p); ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// CommonAncestors returns the heads of the intersection of ancestors(set1)
// and ancestors(set2).
func CommonAncestors(idx *index.Index, set1, set2 []index.IndexPosition) []index.IndexPosition {
	return idx.CommonAncestors(set1, set2)
}

// IsAncestor reports whether a is an ancestor of d (or a == d).
func IsAncestor(idx *index.Index, a, d index.IndexPosition) bool {
	return idx.IsAncestor(a, d)
}

// Descendants returns every descendant of roots reachable from viewHeads,
// implemented as a full walk_revs(view_heads, nil) that skips every entry
// whose generation is below the lowest root generation, then filtered to
// strict descendants of roots.
func Descendants(idx *index.Index, viewHeads, roots []index.IndexPosition) []index.IndexPosition {
	rootSet := make(map[index.IndexPosition]bool, len(roots))
	minRootGen := ^uint32(0)
	for _, r := range roots {
		rootSet[r] = true
		if g, ok := idx.EntryByPos(r); ok && g.Generation < minRootGen {
			minRootGen = g.Generation
		}
	}

	walker := idx.WalkRevs(viewHeads, nil)
	included := make(map[index.IndexPosition]bool)
	for {
		p, ok := walker.Next()
		if !ok {
			break
		}
		g, ok := idx.EntryByPos(p)
		if !ok || g.Generation < minRootGen {
			continue // skip entries below the lowest root generation; the walk itself continues
		}
		included[p] = true
	}

	var out []index.IndexPosition
	for p := range included {
		if rootSet[p] {
			continue // roots themselves are not their own descendants
		}
		isDescendant := false
		for _, r := range roots {
			if idx.IsAncestor(r, p) {
				isDescendant = true
				break
			}
		}
		if isDescendant {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
