package objstore

import (
	"context"
	"errors"
)

// TieredStore reads from local first, falling back to remote on a miss,
// and always writes through local (the archive tier is filled out-of-band
// by an explicit archival pass, not by WriteX). Grounded on the teacher's
// storage.MultiStorage (modules/zeta/backend/storage/storage.go).
type TieredStore struct {
	local  Store
	remote Store
}

var _ Store = (*TieredStore)(nil)

func NewTieredStore(local, remote Store) *TieredStore {
	return &TieredStore{local: local, remote: remote}
}

func (t *TieredStore) GetCommit(ctx context.Context, id Hash) (*Commit, error) {
	c, err := t.local.GetCommit(ctx, id)
	if errors.Is(err, ErrNotFound) && t.remote != nil {
		return t.remote.GetCommit(ctx, id)
	}
	return c, err
}

func (t *TieredStore) GetTree(ctx context.Context, id Hash) (*Tree, error) {
	v, err := t.local.GetTree(ctx, id)
	if errors.Is(err, ErrNotFound) && t.remote != nil {
		return t.remote.GetTree(ctx, id)
	}
	return v, err
}

func (t *TieredStore) GetBlob(ctx context.Context, id Hash) (*Blob, error) {
	v, err := t.local.GetBlob(ctx, id)
	if errors.Is(err, ErrNotFound) && t.remote != nil {
		return t.remote.GetBlob(ctx, id)
	}
	return v, err
}

func (t *TieredStore) WriteCommit(ctx context.Context, c *Commit) (Hash, error) {
	return t.local.WriteCommit(ctx, c)
}

func (t *TieredStore) WriteTree(ctx context.Context, tr *Tree) (Hash, error) {
	return t.local.WriteTree(ctx, tr)
}

func (t *TieredStore) WriteBlob(ctx context.Context, b *Blob) (Hash, error) {
	return t.local.WriteBlob(ctx, b)
}

func (t *TieredStore) RootCommitID() Hash { return t.local.RootCommitID() }

func (t *TieredStore) Close() error {
	if t.remote != nil {
		_ = t.remote.Close()
	}
	return t.local.Close()
}

// Archive copies id from local to remote, for objects being moved to
// cold storage. It always reads the object from local and writes it to
// remote without first checking the remote tier; since writes are
// content-addressed, repeating it rewrites the same bytes under the same id.
func (t *TieredStore) Archive(ctx context.Context, id Hash, kind ObjectType) error {
	if t.remote == nil {
		return errors.New("chronocore: no remote tier configured")
	}
	switch kind {
	case CommitObject:
		c, err := t.local.GetCommit(ctx, id)
		if err != nil {
			return err
		}
		_, err = t.remote.WriteCommit(ctx, c)
		return err
	case TreeObject:
		tr, err := t.local.GetTree(ctx, id)
		if err != nil {
			return err
		}
		_, err = t.remote.WriteTree(ctx, tr)
		return err
	case BlobObject:
		b, err := t.local.GetBlob(ctx, id)
		if err != nil {
			return err
		}
		_, err = t.remote.WriteBlob(ctx, b)
		return err
	default:
		return ErrUnsupportedObject
	}
}
