package objstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/chronovc/chronocore/internal/clog"
)

// FSStore is the local, "native format" loose-object backend: one
// zstd-compressed file per object, sharded two levels deep by hex
// prefix, grounded on the teacher's fileStorer (modules/zeta/backend/file_storer.go).
type FSStore struct {
	root string
}

var _ Store = (*FSStore)(nil)

// NewFSStore opens (creating if needed) a loose-object store rooted at dir.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: dir}, nil
}

func (s *FSStore) path(id Hash) string {
	hex := id.String()
	return filepath.Join(s.root, hex[:2], hex[2:4], hex)
}

func (s *FSStore) read(ctx context.Context, id Hash) (io.Reader, func() error, error) {
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}
	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	r, err := decompress(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return r, f.Close, nil
}

func (s *FSStore) write(id Hash, e encoder) error {
	p := s.path(id)
	if _, err := os.Stat(p); err == nil {
		// Content-addressed: identical content already on disk, no-op.
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".incoming"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := compress(f, e); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, p)
}

func (s *FSStore) GetCommit(ctx context.Context, id Hash) (*Commit, error) {
	if IsRootCommit(id) {
		return rootCommit, nil
	}
	r, closeFn, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	c, err := DecodeCommit(id, r)
	if err != nil {
		clog.Debugf("decode commit %s: %v", id, err)
		return nil, ErrCorrupt
	}
	return c, nil
}

func (s *FSStore) GetTree(ctx context.Context, id Hash) (*Tree, error) {
	if id == mustTreeID(EmptyTree) {
		return EmptyTree, nil
	}
	r, closeFn, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	t, err := DecodeTree(id, r)
	if err != nil {
		return nil, ErrCorrupt
	}
	return t, nil
}

func (s *FSStore) GetBlob(ctx context.Context, id Hash) (*Blob, error) {
	r, closeFn, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	b, err := DecodeBlob(id, r)
	if err != nil {
		return nil, ErrCorrupt
	}
	return b, nil
}

func (s *FSStore) WriteCommit(ctx context.Context, c *Commit) (Hash, error) {
	id, err := c.CanonicalID()
	if err != nil {
		return ZeroHash, err
	}
	if err := s.write(id, c); err != nil {
		return ZeroHash, err
	}
	return id, nil
}

func (s *FSStore) WriteTree(ctx context.Context, t *Tree) (Hash, error) {
	id, err := t.CanonicalID()
	if err != nil {
		return ZeroHash, err
	}
	if err := s.write(id, t); err != nil {
		return ZeroHash, err
	}
	return id, nil
}

func (s *FSStore) WriteBlob(ctx context.Context, b *Blob) (Hash, error) {
	id, err := b.CanonicalID()
	if err != nil {
		return ZeroHash, err
	}
	if err := s.write(id, b); err != nil {
		return ZeroHash, err
	}
	return id, nil
}

func (s *FSStore) RootCommitID() Hash { return rootCommit.ID }

func (s *FSStore) Close() error { return nil }
