package objstore

import (
	"context"

	"github.com/dgraph-io/ristretto/v2"
)

// CachedStore decorates a Store with a decoded-object cache, grounded on
// the teacher's Database.metaLRU (modules/zeta/backend/odb.go), which
// fronts its metadata store with a ristretto cache to avoid re-decoding
// the same commit across repeated ancestry walks.
type CachedStore struct {
	Store
	commits *ristretto.Cache[Hash, *Commit]
	trees   *ristretto.Cache[Hash, *Tree]
}

// WithCache wraps inner with a bounded decoded-object cache. numCounters
// should be roughly 10x the expected working-set size per ristretto's
// sizing guidance.
func WithCache(inner Store, numCounters int64) (*CachedStore, error) {
	commits, err := ristretto.NewCache(&ristretto.Config[Hash, *Commit]{
		NumCounters: numCounters,
		MaxCost:     numCounters,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	trees, err := ristretto.NewCache(&ristretto.Config[Hash, *Tree]{
		NumCounters: numCounters,
		MaxCost:     numCounters,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CachedStore{Store: inner, commits: commits, trees: trees}, nil
}

func (c *CachedStore) GetCommit(ctx context.Context, id Hash) (*Commit, error) {
	if v, ok := c.commits.Get(id); ok {
		return v, nil
	}
	cc, err := c.Store.GetCommit(ctx, id)
	if err != nil {
		return nil, err
	}
	c.commits.Set(id, cc, 1)
	return cc, nil
}

func (c *CachedStore) GetTree(ctx context.Context, id Hash) (*Tree, error) {
	if v, ok := c.trees.Get(id); ok {
		return v, nil
	}
	t, err := c.Store.GetTree(ctx, id)
	if err != nil {
		return nil, err
	}
	c.trees.Set(id, t, 1)
	return t, nil
}

func (c *CachedStore) Close() error {
	c.commits.Close()
	c.trees.Close()
	return c.Store.Close()
}
