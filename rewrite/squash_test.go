package rewrite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronovc/chronocore/objstore"
)

func TestSquashFoldsChildIntoParent(t *testing.T) {
	r := newRewriteTestRepo(t)
	ctx := context.Background()

	parentTree := writeBlobTree(t, r.store, map[string]string{"a": "1"})
	parent := r.commit(t, "parent", 1000, parentTree)

	childTree := writeBlobTree(t, r.store, map[string]string{"a": "1", "b": "2"})
	child := r.commit(t, "child", 1001, childTree, parent.ID)

	squashed, err := Squash(ctx, r.store, parent, child)
	require.NoError(t, err)
	require.Equal(t, parent.ChangeID, squashed.ChangeID, "squash keeps the parent's change identity")
	require.Equal(t, child.Tree, squashed.Tree)
	require.Equal(t, parent.Description, squashed.Description)
	require.Contains(t, squashed.Predecessors, parent.ID)
	require.Contains(t, squashed.Predecessors, child.ID)
}

func TestSquashRejectsUnrelatedCommit(t *testing.T) {
	r := newRewriteTestRepo(t)

	a := r.commit(t, "a", 1000, nil)
	b := r.commit(t, "b", 1001, nil) // not a parent of a

	_, err := Squash(context.Background(), r.store, a, b)
	require.Error(t, err)
	var notAParent *NotAParent
	require.ErrorAs(t, err, &notAParent)
}

func TestSplitKeepsChangeIDOnFirstPiece(t *testing.T) {
	r := newRewriteTestRepo(t)
	ctx := context.Background()

	full := writeBlobTree(t, r.store, map[string]string{"a": "1", "b": "2"})
	c := r.commit(t, "whole change", 1000, full)

	firstTree := writeBlobTree(t, r.store, map[string]string{"a": "1"})
	var newChangeID objstore.Hash
	newChangeID[0] = 0xAB

	first, second, err := Split(ctx, r.store, c, firstTree, "part one", "part two", newChangeID)
	require.NoError(t, err)
	require.Equal(t, c.ChangeID, first.ChangeID)
	require.Equal(t, newChangeID, second.ChangeID)
	require.Equal(t, []objstore.Hash{first.ID}, second.Parents)
	require.Equal(t, c.Tree, second.Tree)
	require.Contains(t, second.Predecessors, c.ID)

	firstTreeGot, err := r.store.GetTree(ctx, first.Tree)
	require.NoError(t, err)
	_, ok := firstTreeGot.Find("a")
	require.True(t, ok)
	_, ok = firstTreeGot.Find("b")
	require.False(t, ok, "the split-off first commit must not contain the second piece's changes")
}

func TestUnsquashAssignsFreshChangeIDToExtractedPiece(t *testing.T) {
	r := newRewriteTestRepo(t)
	ctx := context.Background()

	full := writeBlobTree(t, r.store, map[string]string{"a": "1", "b": "2"})
	c := r.commit(t, "whole change", 1000, full)

	remainderTree := writeBlobTree(t, r.store, map[string]string{"a": "1"})
	var newChangeID objstore.Hash
	newChangeID[0] = 0xCD

	remainder, extracted, err := Unsquash(ctx, r.store, c, remainderTree, "remainder", "extracted", newChangeID)
	require.NoError(t, err)
	require.Equal(t, c.ChangeID, remainder.ChangeID, "remainder keeps the original identity")
	require.Equal(t, newChangeID, extracted.ChangeID)
}

func TestAbandonBuildsLookupSet(t *testing.T) {
	var h1, h2 objstore.Hash
	h1[0], h2[0] = 1, 2
	set := Abandon(h1, h2)
	require.True(t, set[h1])
	require.True(t, set[h2])
	require.Len(t, set, 2)
}
