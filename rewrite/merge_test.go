package rewrite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronovc/chronocore/objstore"
)

func newTestStore(t *testing.T) *objstore.FSStore {
	t.Helper()
	store, err := objstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeBlobTree(t *testing.T, store objstore.Store, contents map[string]string) *objstore.Tree {
	t.Helper()
	ctx := context.Background()
	tree := objstore.EmptyTree
	for name, data := range contents {
		id, err := store.WriteBlob(ctx, &objstore.Blob{Content: []byte(data)})
		require.NoError(t, err)
		tree = tree.WithEntry(name, objstore.TreeValue{Kind: objstore.KindFile, ID: id})
	}
	return tree
}

func TestThreeWayMergeTreeUnchangedSideTakesOther(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := writeBlobTree(t, store, map[string]string{"a": "base-a"})
	left := base // left unchanged
	right := writeBlobTree(t, store, map[string]string{"a": "right-a"})

	merged, err := threeWayMergeTree(ctx, store, base, left, right)
	require.NoError(t, err)
	v, ok := merged.Find("a")
	require.True(t, ok)
	rv, _ := right.Find("a")
	require.Equal(t, rv.ID, v.ID)
}

func TestThreeWayMergeTreeBothSameChangeTakesIt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := writeBlobTree(t, store, map[string]string{"a": "base-a"})
	left := writeBlobTree(t, store, map[string]string{"a": "new-a"})
	right := writeBlobTree(t, store, map[string]string{"a": "new-a"})

	merged, err := threeWayMergeTree(ctx, store, base, left, right)
	require.NoError(t, err)
	v, ok := merged.Find("a")
	require.True(t, ok)
	lv, _ := left.Find("a")
	require.Equal(t, lv.ID, v.ID)
}

func TestThreeWayMergeTreeDivergentChangeConflicts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := writeBlobTree(t, store, map[string]string{"a": "base-a"})
	left := writeBlobTree(t, store, map[string]string{"a": "left-a"})
	right := writeBlobTree(t, store, map[string]string{"a": "right-a"})

	merged, err := threeWayMergeTree(ctx, store, base, left, right)
	require.NoError(t, err)
	v, ok := merged.Find("a")
	require.True(t, ok)
	require.Equal(t, objstore.KindConflict, v.Kind)

	lv, _ := left.Find("a")
	bv, _ := base.Find("a")
	rv, _ := right.Find("a")
	require.Equal(t, []objstore.Hash{lv.ID, bv.ID, rv.ID}, v.Conflict)
}

func TestThreeWayMergeTreeRecursesIntoDirectories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	baseSub := writeBlobTree(t, store, map[string]string{"x": "base-x", "y": "shared-y"})
	baseSubID, err := store.WriteTree(ctx, baseSub)
	require.NoError(t, err)
	base := objstore.EmptyTree.WithEntry("dir", objstore.TreeValue{Kind: objstore.KindTree, ID: baseSubID})

	leftSub := writeBlobTree(t, store, map[string]string{"x": "left-x", "y": "shared-y"})
	leftSubID, err := store.WriteTree(ctx, leftSub)
	require.NoError(t, err)
	left := objstore.EmptyTree.WithEntry("dir", objstore.TreeValue{Kind: objstore.KindTree, ID: leftSubID})

	rightSub := writeBlobTree(t, store, map[string]string{"x": "base-x", "y": "shared-y", "z": "right-z"})
	rightSubID, err := store.WriteTree(ctx, rightSub)
	require.NoError(t, err)
	right := objstore.EmptyTree.WithEntry("dir", objstore.TreeValue{Kind: objstore.KindTree, ID: rightSubID})

	merged, err := threeWayMergeTree(ctx, store, base, left, right)
	require.NoError(t, err)
	dirVal, ok := merged.Find("dir")
	require.True(t, ok)
	require.Equal(t, objstore.KindTree, dirVal.Kind)

	mergedSub, err := store.GetTree(ctx, dirVal.ID)
	require.NoError(t, err)
	xv, ok := mergedSub.Find("x")
	require.True(t, ok)
	lxv, _ := leftSub.Find("x")
	require.Equal(t, lxv.ID, xv.ID, "left's change to x should survive since right didn't touch it")
	_, ok = mergedSub.Find("z")
	require.True(t, ok, "right's new file z should survive since base/left never had it")
}

func TestMergeParentTreesFoldsSequentially(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p1 := writeBlobTree(t, store, map[string]string{"a": "1"})
	p2 := writeBlobTree(t, store, map[string]string{"b": "2"})

	merged, err := mergeParentTrees(ctx, store, []*objstore.Tree{p1, p2})
	require.NoError(t, err)
	_, ok := merged.Find("a")
	require.True(t, ok)
	_, ok = merged.Find("b")
	require.True(t, ok)
}

func TestMergeParentTreesNoParentsIsEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	merged, err := mergeParentTrees(ctx, store, nil)
	require.NoError(t, err)
	require.Empty(t, merged.Entries)
}
