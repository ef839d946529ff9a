package rewrite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chronovc/chronocore/index"
	"github.com/chronovc/chronocore/objstore"
)

// testRepo wires a real FSStore and Index, mirroring the pairing used by
// package view and package eval's own test helpers.
type testRepo struct {
	store *objstore.FSStore
	idx   *index.Index
}

func newRewriteTestRepo(t *testing.T) *testRepo {
	t.Helper()
	store, err := objstore.NewFSStore(t.TempDir())
	require.NoError(t, err)
	idxStore, err := index.NewFSSegmentStore(t.TempDir())
	require.NoError(t, err)
	idx, err := index.Open(idxStore, "")
	require.NoError(t, err)
	return &testRepo{store: store, idx: idx}
}

var rewriteChangeIDCounter byte = 1

func nextRewriteChangeID() objstore.Hash {
	var h objstore.Hash
	h[0], h[1] = rewriteChangeIDCounter, rewriteChangeIDCounter
	rewriteChangeIDCounter++
	return h
}

// commit writes a commit (with an empty tree unless tree is given) over
// parents (by commit id) and indexes it, returning the resulting commit.
func (r *testRepo) commit(t *testing.T, desc string, when int64, tree *objstore.Tree, parents ...objstore.Hash) *objstore.Commit {
	t.Helper()
	ctx := context.Background()
	if tree == nil {
		tree = objstore.EmptyTree
	}
	treeID, err := r.store.WriteTree(ctx, tree)
	require.NoError(t, err)
	sig := objstore.Signature{Name: "tester", Email: "tester@example.com", When: time.Unix(when, 0).UTC()}
	c := &objstore.Commit{
		ChangeID:    nextRewriteChangeID(),
		Parents:     parents,
		Tree:        treeID,
		Author:      sig,
		Committer:   sig,
		Description: desc,
	}
	id, err := r.store.WriteCommit(ctx, c)
	require.NoError(t, err)
	c.ID = id
	require.NoError(t, r.idx.AddCommit(c.ChangeID, id, parents))
	return c
}

func (r *testRepo) pos(t *testing.T, id objstore.Hash) index.IndexPosition {
	t.Helper()
	p, ok := r.idx.CommitIDToPos(id)
	require.True(t, ok)
	return p
}
