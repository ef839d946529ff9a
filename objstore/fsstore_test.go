package objstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestFSStoreRoundTripCommit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tr, err := s.WriteTree(ctx, EmptyTree)
	require.NoError(t, err)

	c := &Commit{
		ChangeID:  NewHash("11" + "00000000000000000000000000000000000000000000000000000000"),
		Tree:      tr,
		Author:    Signature{Name: "a", Email: "a@example.com", When: time.Unix(1000, 0).UTC()},
		Committer: Signature{Name: "a", Email: "a@example.com", When: time.Unix(1000, 0).UTC()},
		Description: "first commit\n",
	}
	id, err := s.WriteCommit(ctx, c)
	require.NoError(t, err)
	require.False(t, id.IsZero())

	got, err := s.GetCommit(ctx, id)
	require.NoError(t, err)
	require.Equal(t, c.ChangeID, got.ChangeID)
	require.Equal(t, c.Tree, got.Tree)
	require.Equal(t, c.Description, got.Description)
	require.Empty(t, got.Parents)
}

func TestFSStoreContentAddressedIdempotentWrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b := &Blob{Content: []byte("hello world")}
	id1, err := s.WriteBlob(ctx, b)
	require.NoError(t, err)
	id2, err := s.WriteBlob(ctx, b)
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	got, err := s.GetBlob(ctx, id1)
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), got.Content)
}

func TestFSStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.GetCommit(ctx, NewHash("ab"+"00000000000000000000000000000000000000000000000000000000"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRootCommitIsEmptyTreeNoParents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	root, err := s.GetCommit(ctx, s.RootCommitID())
	require.NoError(t, err)
	require.Empty(t, root.Parents)
	require.True(t, root.IsRoot())
	emptyID, err := EmptyTree.CanonicalID()
	require.NoError(t, err)
	require.Equal(t, emptyID, root.Tree)
}

func TestTreeEncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	blobID, err := s.WriteBlob(ctx, &Blob{Content: []byte("x")})
	require.NoError(t, err)

	tr := (&Tree{}).WithEntry("a.txt", TreeValue{Kind: KindFile, ID: blobID})
	tr = tr.WithEntry("sub", TreeValue{Kind: KindTree, ID: mustTreeID(EmptyTree)})
	id, err := s.WriteTree(ctx, tr)
	require.NoError(t, err)

	got, err := s.GetTree(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)

	v, ok := got.Find("a.txt")
	require.True(t, ok)
	require.Equal(t, blobID, v.ID)
	require.Equal(t, KindFile, v.Kind)
}
