package dag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronovc/chronocore/index"
	"github.com/chronovc/chronocore/objstore"
)

func h(b byte) objstore.Hash {
	var hash objstore.Hash
	hash[0] = b
	return hash
}

func newTestIndex(t *testing.T) *index.Index {
	t.Helper()
	store, err := index.NewFSSegmentStore(t.TempDir())
	require.NoError(t, err)
	idx, err := index.Open(store, "")
	require.NoError(t, err)
	return idx
}

// diamond builds: root(1) -> {2,3} -> 4 (4 has parents 2 and 3).
func diamond(t *testing.T, idx *index.Index) map[byte]index.IndexPosition {
	t.Helper()
	require.NoError(t, idx.AddCommit(h(1), h(1), nil))
	require.NoError(t, idx.AddCommit(h(2), h(2), []objstore.Hash{h(1)}))
	require.NoError(t, idx.AddCommit(h(3), h(3), []objstore.Hash{h(1)}))
	require.NoError(t, idx.AddCommit(h(4), h(4), []objstore.Hash{h(2), h(3)}))
	out := map[byte]index.IndexPosition{}
	for _, b := range []byte{1, 2, 3, 4} {
		pos, ok := idx.CommitIDToPos(h(b))
		require.True(t, ok)
		out[b] = pos
	}
	return out
}

func TestHeadsOverDiamond(t *testing.T) {
	idx := newTestIndex(t)
	pos := diamond(t, idx)
	got := Heads(idx, []index.IndexPosition{pos[1], pos[2], pos[3], pos[4]})
	require.Equal(t, []index.IndexPosition{pos[4]}, got)
}

func TestRootsOverDiamond(t *testing.T) {
	idx := newTestIndex(t)
	pos := diamond(t, idx)
	got := Roots(idx, []index.IndexPosition{pos[1], pos[2], pos[3], pos[4]})
	require.Equal(t, []index.IndexPosition{pos[1]}, got)
}

func TestTopoOrder(t *testing.T) {
	idx := newTestIndex(t)
	pos := diamond(t, idx)
	entries := TopoOrder(idx, []index.IndexPosition{pos[4], pos[1], pos[3]})
	require.Len(t, entries, 3)
	require.Equal(t, pos[1], entries[0].Position)
	require.Equal(t, pos[3], entries[1].Position)
	require.Equal(t, pos[4], entries[2].Position)
}

func TestDescendants(t *testing.T) {
	idx := newTestIndex(t)
	pos := diamond(t, idx)
	got := Descendants(idx, []index.IndexPosition{pos[4]}, []index.IndexPosition{pos[1]})
	require.ElementsMatch(t, []index.IndexPosition{pos[2], pos[3], pos[4]}, got)
}

func TestIsAncestorAcrossDiamond(t *testing.T) {
	idx := newTestIndex(t)
	pos := diamond(t, idx)
	require.True(t, IsAncestor(idx, pos[1], pos[4]))
	require.False(t, IsAncestor(idx, pos[2], pos[3]))
}

func TestCommonAncestorsOverDiamond(t *testing.T) {
	idx := newTestIndex(t)
	pos := diamond(t, idx)
	got := CommonAncestors(idx, []index.IndexPosition{pos[2]}, []index.IndexPosition{pos[3]})
	require.Equal(t, []index.IndexPosition{pos[1]}, got)
}
