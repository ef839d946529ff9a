package rewrite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronovc/chronocore/objstore"
)

func TestRebaseCommitNoOpWhenParentsUnchanged(t *testing.T) {
	r := newRewriteTestRepo(t)
	ctx := context.Background()

	c1 := r.commit(t, "first", 1000, nil)
	c2 := r.commit(t, "second", 1001, nil, c1.ID)

	rebased, err := RebaseCommit(ctx, r.store, c2, []objstore.Hash{c1.ID})
	require.NoError(t, err)
	require.Same(t, c2, rebased)
}

func TestRebaseCommitOntoNewParentAppliesChanges(t *testing.T) {
	r := newRewriteTestRepo(t)
	ctx := context.Background()

	base := writeBlobTree(t, r.store, map[string]string{"a": "base-a"})
	c1 := r.commit(t, "first", 1000, base)

	childTree := writeBlobTree(t, r.store, map[string]string{"a": "base-a", "b": "child-b"})
	c2 := r.commit(t, "second", 1001, childTree, c1.ID)

	otherTree := writeBlobTree(t, r.store, map[string]string{"a": "base-a", "c": "other-c"})
	other := r.commit(t, "other", 1002, otherTree, c1.ID)

	rebased, err := RebaseCommit(ctx, r.store, c2, []objstore.Hash{other.ID})
	require.NoError(t, err)
	require.Equal(t, c2.ChangeID, rebased.ChangeID, "rebase must preserve the change-id")
	require.Equal(t, []objstore.Hash{other.ID}, rebased.Parents)
	require.Contains(t, rebased.Predecessors, c2.ID)

	mergedTree, err := r.store.GetTree(ctx, rebased.Tree)
	require.NoError(t, err)
	_, ok := mergedTree.Find("b")
	require.True(t, ok, "child's own addition must survive the rebase")
	_, ok = mergedTree.Find("c")
	require.True(t, ok, "the new parent's addition must be picked up")
}

func TestRebaseCommitOntoMultipleParentsMergesThem(t *testing.T) {
	r := newRewriteTestRepo(t)
	ctx := context.Background()

	c1 := r.commit(t, "first", 1000, nil)
	c2 := r.commit(t, "second", 1001, nil, c1.ID)

	p1Tree := writeBlobTree(t, r.store, map[string]string{"x": "1"})
	p1 := r.commit(t, "p1", 1002, p1Tree, c1.ID)
	p2Tree := writeBlobTree(t, r.store, map[string]string{"y": "2"})
	p2 := r.commit(t, "p2", 1003, p2Tree, c1.ID)

	rebased, err := RebaseCommit(ctx, r.store, c2, []objstore.Hash{p1.ID, p2.ID})
	require.NoError(t, err)
	mergedTree, err := r.store.GetTree(ctx, rebased.Tree)
	require.NoError(t, err)
	_, ok := mergedTree.Find("x")
	require.True(t, ok)
	_, ok = mergedTree.Find("y")
	require.True(t, ok)
}
