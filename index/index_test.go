package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronovc/chronocore/objstore"
)

func h(b byte) objstore.Hash {
	var hash objstore.Hash
	hash[0] = b
	return hash
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	store, err := NewFSSegmentStore(t.TempDir())
	require.NoError(t, err)
	idx, err := Open(store, "")
	require.NoError(t, err)
	return idx
}

// buildLine adds a linear chain root -> c1 -> c2 -> c3, returning their positions.
func buildLine(t *testing.T, idx *Index) []IndexPosition {
	t.Helper()
	ids := []objstore.Hash{h(1), h(2), h(3)}
	var parents []objstore.Hash
	var positions []IndexPosition
	for i, id := range ids {
		require.NoError(t, idx.AddCommit(id, id, parents))
		pos, ok := idx.CommitIDToPos(id)
		require.True(t, ok)
		positions = append(positions, pos)
		parents = []objstore.Hash{id}
		_ = i
	}
	return positions
}

func TestAddCommitAndLookup(t *testing.T) {
	idx := newTestIndex(t)
	positions := buildLine(t, idx)
	require.Equal(t, []IndexPosition{0, 1, 2}, positions)

	e, ok := idx.EntryByPos(1)
	require.True(t, ok)
	require.Equal(t, uint32(1), e.Generation)
	require.Equal(t, uint32(1), e.NumParents)
}

func TestAddCommitNoOpWhenAlreadyIndexed(t *testing.T) {
	idx := newTestIndex(t)
	buildLine(t, idx)
	require.NoError(t, idx.AddCommit(h(1), h(1), nil))
	require.Equal(t, 3, idx.Len())
}

func TestAddCommitFailsOnMissingParent(t *testing.T) {
	idx := newTestIndex(t)
	err := idx.AddCommit(h(9), h(9), []objstore.Hash{h(99)})
	require.Error(t, err)
}

func TestMergeCommitOverflowParents(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.AddCommit(h(1), h(1), nil))
	require.NoError(t, idx.AddCommit(h(2), h(2), nil))
	require.NoError(t, idx.AddCommit(h(3), h(3), []objstore.Hash{h(1), h(2)}))

	pos, ok := idx.CommitIDToPos(h(3))
	require.True(t, ok)
	e, ok := idx.EntryByPos(pos)
	require.True(t, ok)
	require.Equal(t, uint32(2), e.NumParents)
	require.Equal(t, uint32(1), e.Generation)

	parents := idx.ParentPositions(e)
	require.Len(t, parents, 2)
}

func TestIsAncestor(t *testing.T) {
	idx := newTestIndex(t)
	positions := buildLine(t, idx)
	require.True(t, idx.IsAncestor(positions[0], positions[2]))
	require.False(t, idx.IsAncestor(positions[2], positions[0]))
	require.True(t, idx.IsAncestor(positions[1], positions[1]))
}

func TestWalkRevsDescendingExcludesUnwanted(t *testing.T) {
	idx := newTestIndex(t)
	positions := buildLine(t, idx)
	got := idx.WalkRevs([]IndexPosition{positions[2]}, []IndexPosition{positions[0]}).Collect()
	require.Equal(t, []IndexPosition{positions[2], positions[1]}, got)
}

func TestHeads(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.AddCommit(h(1), h(1), nil))
	require.NoError(t, idx.AddCommit(h(2), h(2), []objstore.Hash{h(1)}))
	require.NoError(t, idx.AddCommit(h(3), h(3), []objstore.Hash{h(1)}))

	p1, _ := idx.CommitIDToPos(h(1))
	p2, _ := idx.CommitIDToPos(h(2))
	p3, _ := idx.CommitIDToPos(h(3))

	heads := idx.Heads([]IndexPosition{p1, p2, p3})
	require.ElementsMatch(t, []IndexPosition{p2, p3}, heads)
}

func TestCommonAncestors(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.AddCommit(h(1), h(1), nil))
	require.NoError(t, idx.AddCommit(h(2), h(2), []objstore.Hash{h(1)}))
	require.NoError(t, idx.AddCommit(h(3), h(3), []objstore.Hash{h(1)}))

	p1, _ := idx.CommitIDToPos(h(1))
	p2, _ := idx.CommitIDToPos(h(2))
	p3, _ := idx.CommitIDToPos(h(3))

	common := idx.CommonAncestors([]IndexPosition{p2}, []IndexPosition{p3})
	require.Equal(t, []IndexPosition{p1}, common)
}

func TestResolvePrefix(t *testing.T) {
	idx := newTestIndex(t)
	buildLine(t, idx)

	id1 := h(1)
	result, got := idx.ResolvePrefix(id1.String()[:4])
	require.Equal(t, Single, result)
	require.Equal(t, id1, got)

	result, _ = idx.ResolvePrefix("ff")
	require.Equal(t, NoMatch, result)
}

func TestPersistAndReopen(t *testing.T) {
	store, err := NewFSSegmentStore(t.TempDir())
	require.NoError(t, err)
	idx, err := Open(store, "")
	require.NoError(t, err)
	buildLine(t, idx)

	topName, err := idx.Persist()
	require.NoError(t, err)
	require.NotEmpty(t, topName)

	reopened, err := Open(store, topName)
	require.NoError(t, err)
	require.Equal(t, 3, reopened.Len())

	pos, ok := reopened.CommitIDToPos(h(3))
	require.True(t, ok)
	require.Equal(t, IndexPosition(2), pos)
}

func TestPersistSquashesSegments(t *testing.T) {
	store, err := NewFSSegmentStore(t.TempDir())
	require.NoError(t, err)
	idx, err := Open(store, "")
	require.NoError(t, err)

	require.NoError(t, idx.AddCommit(h(1), h(1), nil))
	topA, err := idx.Persist()
	require.NoError(t, err)
	require.Len(t, idx.segments, 1)

	require.NoError(t, idx.AddCommit(h(2), h(2), []objstore.Hash{h(1)}))
	require.NoError(t, idx.AddCommit(h(3), h(3), []objstore.Hash{h(2)}))
	_, err = idx.Persist()
	require.NoError(t, err)
	// second segment (2 commits) exceeds half of the first (1 commit), so it squashes.
	require.Len(t, idx.segments, 1)
	require.NotEqual(t, topA, idx.segments[0].Name.String())

	pos, ok := idx.CommitIDToPos(h(3))
	require.True(t, ok)
	require.Equal(t, IndexPosition(2), pos)
}
