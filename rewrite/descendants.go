package rewrite

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/chronovc/chronocore/dag"
	"github.com/chronovc/chronocore/index"
	"github.com/chronovc/chronocore/objstore"
)

// layerResult is one candidate's outcome within a generation layer, kept
// separate from idx/subst mutation so the rebase work for an entire layer
// (merging trees and writing the merged trees and rebased commits to the
// content-addressed store) can run concurrently, while the index itself is
// only ever mutated by the single caller goroutine afterward.
type layerResult struct {
	oldID      objstore.Hash
	abandoned  bool
	newParents []objstore.Hash
	newCommit  *objstore.Commit // nil when abandoned
}

// RebaseDescendants rewrites every candidate in topological order,
// replacing each parent pointer that refers to an already-rewritten or
// abandoned commit, per spec.md §4.7. rewrites seeds the substitution map
// with the initial rewrite(s) driving this pass (a single entry unless the
// caller is propagating a pre-existing divergence); abandoned names
// commits whose parents should be spliced in, in their place, wherever
// they're referenced. candidates must be every descendant reachable from
// the rewritten/abandoned roots that might reference them, in any order;
// RebaseDescendants sorts them topologically itself.
//
// It returns the full substitution map (old commit id -> its new
// successor id(s)) covering every candidate actually processed, for the
// caller to fold into bookmark/tag RefTargets.
func RebaseDescendants(ctx context.Context, store objstore.Store, idx *index.Index, rewrites map[objstore.Hash][]objstore.Hash, abandoned map[objstore.Hash]bool, candidates []index.IndexPosition) (map[objstore.Hash][]objstore.Hash, error) {
	subst := make(map[objstore.Hash][]objstore.Hash, len(rewrites))
	for k, v := range rewrites {
		subst[k] = append([]objstore.Hash{}, v...)
	}

	ordered := dag.TopoOrder(idx, candidates)
	for _, layer := range layersByGeneration(ordered) {
		results, err := computeLayer(ctx, store, idx, subst, abandoned, layer)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if r.abandoned {
				// An abandoned commit contributes its own (already
				// substituted) parents in place of itself: later lookups
				// of this id resolve straight through to them.
				subst[r.oldID] = r.newParents
				continue
			}
			if err := idx.AddCommit(r.newCommit.ChangeID, r.newCommit.ID, r.newParents); err != nil {
				return nil, err
			}
			subst[r.oldID] = []objstore.Hash{r.newCommit.ID}
		}
	}
	return subst, nil
}

// layersByGeneration buckets topologically-sorted entries by generation:
// within one bucket no entry can be an ancestor of another (generation
// strictly increases along every edge), so a bucket's candidates are safe
// to rebase concurrently; buckets themselves must run in ascending order
// since a later generation's parent substitutions depend on an earlier
// one's results.
func layersByGeneration(ordered []dag.Entry) [][]dag.Entry {
	var layers [][]dag.Entry
	i := 0
	for i < len(ordered) {
		j := i + 1
		for j < len(ordered) && ordered[j].Graph.Generation == ordered[i].Graph.Generation {
			j++
		}
		layers = append(layers, ordered[i:j])
		i = j
	}
	return layers
}

func computeLayer(ctx context.Context, store objstore.Store, idx *index.Index, subst map[objstore.Hash][]objstore.Hash, abandoned map[objstore.Hash]bool, layer []dag.Entry) ([]layerResult, error) {
	results := make([]layerResult, len(layer))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range layer {
		i, e := i, e
		g.Go(func() error {
			r, err := computeCandidate(gctx, store, idx, subst, abandoned, e)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func computeCandidate(ctx context.Context, store objstore.Store, idx *index.Index, subst map[objstore.Hash][]objstore.Hash, abandoned map[objstore.Hash]bool, e dag.Entry) (layerResult, error) {
	oldID := e.Graph.CommitID
	c, err := store.GetCommit(ctx, oldID)
	if err != nil {
		return layerResult{}, err
	}

	newParents := reduceToHeads(idx, substituteParents(c.Parents, subst))

	if abandoned[oldID] {
		return layerResult{oldID: oldID, abandoned: true, newParents: newParents}, nil
	}

	rewritten, err := RebaseCommit(ctx, store, c, newParents)
	if err != nil {
		return layerResult{}, err
	}
	return layerResult{oldID: oldID, newParents: newParents, newCommit: rewritten}, nil
}

// substituteParents replaces every parent present in subst with its
// successor list (flattening divergence into extra merge parents, and
// transitively resolving an abandoned commit's own substitution),
// deduplicating while preserving first-seen order.
func substituteParents(parents []objstore.Hash, subst map[objstore.Hash][]objstore.Hash) []objstore.Hash {
	seen := make(map[objstore.Hash]bool, len(parents))
	var out []objstore.Hash
	var walk func(id objstore.Hash)
	walk = func(id objstore.Hash) {
		if repl, ok := subst[id]; ok {
			for _, r := range repl {
				walk(r)
			}
			return
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, p := range parents {
		walk(p)
	}
	return out
}

// reduceToHeads drops any parent that is itself an ancestor of another
// parent in the list: spec.md §4.7's "the successors' common ancestors are
// subtracted from its parents", implemented as keeping only the heads of
// the candidate parent set (an ancestor-of-another-parent is exactly a
// common ancestor a direct merge over the successors would otherwise
// redundantly include). A parent not yet indexed (new in this same batch,
// added by an earlier layer of this same call) always qualifies as a head
// candidate on its own terms; it is resolved via its index position like
// any other, since earlier layers are applied to idx before later ones
// are computed.
func reduceToHeads(idx *index.Index, parents []objstore.Hash) []objstore.Hash {
	if len(parents) <= 1 {
		return parents
	}
	positions := make([]index.IndexPosition, 0, len(parents))
	posToHash := map[index.IndexPosition]objstore.Hash{}
	var unresolved []objstore.Hash
	for _, p := range parents {
		pos, ok := idx.CommitIDToPos(p)
		if !ok {
			unresolved = append(unresolved, p)
			continue
		}
		positions = append(positions, pos)
		posToHash[pos] = p
	}
	heads := idx.Heads(positions)
	sort.Slice(heads, func(i, j int) bool { return heads[i] < heads[j] })
	out := make([]objstore.Hash, 0, len(heads)+len(unresolved))
	for _, pos := range heads {
		out = append(out, posToHash[pos])
	}
	return append(out, unresolved...)
}
