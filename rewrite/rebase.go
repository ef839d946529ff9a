// Package rewrite implements the commit-rewriting primitives of
// spec.md §4.7: rebasing a single commit or a whole subtree of
// descendants onto new parents, abandoning commits, and the
// squash/split operations built from those primitives.
package rewrite

import (
	"context"
	"slices"

	"github.com/chronovc/chronocore/objstore"
)

// RebaseCommit rebases c onto newParents via the three-way merge spec.md
// §4.7 describes: base = merge(parents(c)), left = tree(c), right =
// merge(newParents); the new tree is right.merge(base, left). The
// resulting commit shares c's ChangeID, keeping the rewrite visible as a
// new version of the same change rather than a new change. If newParents
// is identical to c.Parents the rewrite is a no-op and RebaseCommit
// returns c unchanged.
func RebaseCommit(ctx context.Context, store objstore.Store, c *objstore.Commit, newParents []objstore.Hash) (*objstore.Commit, error) {
	if slices.Equal(c.Parents, newParents) {
		return c, nil
	}

	base, err := mergeParentCommitTrees(ctx, store, c.Parents)
	if err != nil {
		return nil, err
	}
	left, err := store.GetTree(ctx, c.Tree)
	if err != nil {
		return nil, err
	}
	right, err := mergeParentCommitTrees(ctx, store, newParents)
	if err != nil {
		return nil, err
	}

	mergedTree, err := threeWayMergeTree(ctx, store, base, left, right)
	if err != nil {
		return nil, err
	}
	mergedTreeID, err := store.WriteTree(ctx, mergedTree)
	if err != nil {
		return nil, err
	}

	rewritten := &objstore.Commit{
		ChangeID:     c.ChangeID,
		Parents:      append([]objstore.Hash{}, newParents...),
		Tree:         mergedTreeID,
		Author:       c.Author,
		Committer:    c.Committer,
		Description:  c.Description,
		Predecessors: append(append([]objstore.Hash{}, c.Predecessors...), c.ID),
	}
	id, err := store.WriteCommit(ctx, rewritten)
	if err != nil {
		return nil, err
	}
	rewritten.ID = id
	return rewritten, nil
}

func mergeParentCommitTrees(ctx context.Context, store objstore.Store, parentIDs []objstore.Hash) (*objstore.Tree, error) {
	if len(parentIDs) == 0 {
		return objstore.EmptyTree, nil
	}
	trees := make([]*objstore.Tree, 0, len(parentIDs))
	for _, id := range parentIDs {
		pc, err := store.GetCommit(ctx, id)
		if err != nil {
			return nil, err
		}
		t, err := store.GetTree(ctx, pc.Tree)
		if err != nil {
			return nil, err
		}
		trees = append(trees, t)
	}
	return mergeParentTrees(ctx, store, trees)
}
