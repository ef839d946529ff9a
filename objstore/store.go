package objstore

import "context"

// Store is the content-addressed access surface of spec.md §4.1. Readers
// are independent; writes are content-addressed, so concurrent identical
// writes race harmlessly onto the same id.
type Store interface {
	GetCommit(ctx context.Context, id Hash) (*Commit, error)
	GetTree(ctx context.Context, id Hash) (*Tree, error)
	GetBlob(ctx context.Context, id Hash) (*Blob, error)

	// WriteCommit computes c's canonical id (ignoring c.ID) and persists
	// it, returning the assigned id.
	WriteCommit(ctx context.Context, c *Commit) (Hash, error)
	WriteTree(ctx context.Context, t *Tree) (Hash, error)
	WriteBlob(ctx context.Context, b *Blob) (Hash, error)

	// RootCommitID returns the distinguished sentinel commit id
	// representing the empty history (spec.md §4.1). Its tree is
	// EmptyTree and it has no parents.
	RootCommitID() Hash

	Close() error
}

// rootCommit is the canonical, zero-metadata root commit whose id is
// RootCommitID(). Every Store backend's GetCommit recognizes this id and
// returns rootCommit without reading storage; writes are not special-cased.
var rootCommit = &Commit{Tree: mustTreeID(EmptyTree)}

func mustTreeID(t *Tree) Hash {
	id, err := t.CanonicalID()
	if err != nil {
		panic(err)
	}
	return id
}

func init() {
	id, err := rootCommit.CanonicalID()
	if err != nil {
		panic(err)
	}
	rootCommit.ID = id
}

// RootCommitHash is the package-level constant sentinel id, independent of
// any particular Store instance (every repo's root commit hashes the
// same, since it carries no repo-specific metadata).
func RootCommitHash() Hash { return rootCommit.ID }

// IsRootCommit reports whether id is the distinguished root sentinel.
func IsRootCommit(id Hash) bool { return id == rootCommit.ID }
