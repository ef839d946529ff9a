package rewrite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronovc/chronocore/index"
	"github.com/chronovc/chronocore/objstore"
)

func (r *testRepo) positions(t *testing.T, cs ...*objstore.Commit) []index.IndexPosition {
	t.Helper()
	out := make([]index.IndexPosition, 0, len(cs))
	for _, c := range cs {
		out = append(out, r.pos(t, c.ID))
	}
	return out
}

func TestRebaseDescendantsLinearChain(t *testing.T) {
	r := newRewriteTestRepo(t)
	ctx := context.Background()

	c1 := r.commit(t, "c1", 1000, nil)
	c2 := r.commit(t, "c2", 1001, nil, c1.ID)
	c3 := r.commit(t, "c3", 1002, nil, c2.ID)
	c4 := r.commit(t, "c4", 1003, nil, c3.ID)

	newC2 := r.commit(t, "c2-amended", 1004, nil, c1.ID)

	subst, err := RebaseDescendants(ctx, r.store, r.idx,
		map[objstore.Hash][]objstore.Hash{c2.ID: {newC2.ID}}, nil, r.positions(t, c3, c4))
	require.NoError(t, err)

	require.Contains(t, subst, c3.ID)
	newC3ID := subst[c3.ID][0]
	newC3, err := r.store.GetCommit(ctx, newC3ID)
	require.NoError(t, err)
	require.Equal(t, []objstore.Hash{newC2.ID}, newC3.Parents)
	require.Equal(t, c3.ChangeID, newC3.ChangeID)

	require.Contains(t, subst, c4.ID)
	newC4ID := subst[c4.ID][0]
	newC4, err := r.store.GetCommit(ctx, newC4ID)
	require.NoError(t, err)
	require.Equal(t, []objstore.Hash{newC3ID}, newC4.Parents)
}

func TestRebaseDescendantsAbandonSplicesParents(t *testing.T) {
	r := newRewriteTestRepo(t)
	ctx := context.Background()

	c1 := r.commit(t, "c1", 1000, nil)
	c2 := r.commit(t, "c2", 1001, nil, c1.ID)
	c3 := r.commit(t, "c3", 1002, nil, c2.ID)

	subst, err := RebaseDescendants(ctx, r.store, r.idx, nil, Abandon(c2.ID), r.positions(t, c2, c3))
	require.NoError(t, err)

	require.Contains(t, subst, c2.ID)
	require.Equal(t, []objstore.Hash{c1.ID}, subst[c2.ID], "abandoned commit splices in its own parent")

	require.Contains(t, subst, c3.ID)
	newC3ID := subst[c3.ID][0]
	newC3, err := r.store.GetCommit(ctx, newC3ID)
	require.NoError(t, err)
	require.Equal(t, []objstore.Hash{c1.ID}, newC3.Parents, "c3 must now point directly at c1")
}

func TestRebaseDescendantsDivergenceReducesToHeads(t *testing.T) {
	r := newRewriteTestRepo(t)
	ctx := context.Background()

	c1 := r.commit(t, "c1", 1000, nil)
	c2 := r.commit(t, "c2", 1001, nil, c1.ID)
	child := r.commit(t, "child", 1002, nil, c2.ID)

	newC2a := r.commit(t, "c2-v2", 1003, nil, c1.ID)
	newC2b := r.commit(t, "c2-v3", 1004, nil, newC2a.ID)

	subst, err := RebaseDescendants(ctx, r.store, r.idx,
		map[objstore.Hash][]objstore.Hash{c2.ID: {newC2a.ID, newC2b.ID}}, nil,
		r.positions(t, child))
	require.NoError(t, err)

	newChildID := subst[child.ID][0]
	newChild, err := r.store.GetCommit(ctx, newChildID)
	require.NoError(t, err)
	require.Equal(t, []objstore.Hash{newC2b.ID}, newChild.Parents,
		"newC2a is an ancestor of newC2b, so only the head newC2b should remain as parent")
}
