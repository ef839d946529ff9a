package index

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	"github.com/chronovc/chronocore/objstore"
)

// SegmentStore persists and retrieves segment files by name. Grounded on
// objstore's FSStore sharding approach, generalized to the index's own
// content-hash-named segment files.
type SegmentStore interface {
	ReadSegment(name string) (*Segment, error)
	WriteSegment(s *Segment) error
}

// ErrSegmentNotFound is returned when a named segment is missing from the store.
var ErrSegmentNotFound = errors.New("index: segment not found")

// FSSegmentStore stores one file per segment, named by its content hash.
type FSSegmentStore struct {
	root string
}

func NewFSSegmentStore(dir string) (*FSSegmentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FSSegmentStore{root: dir}, nil
}

func (f *FSSegmentStore) path(name string) string { return filepath.Join(f.root, name) }

func (f *FSSegmentStore) ReadSegment(name string) (*Segment, error) {
	data, err := os.ReadFile(f.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSegmentNotFound
	}
	if err != nil {
		return nil, err
	}
	s, err := decodeSegment(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	s.Name = objstore.NewHash(name)
	return s, nil
}

func (f *FSSegmentStore) WriteSegment(s *Segment) error {
	name := s.Name.String()
	p := f.path(name)
	if _, err := os.Stat(p); err == nil {
		return nil // content-addressed, already persisted
	}
	buf := &bytes.Buffer{}
	if err := s.encode(buf); err != nil {
		return err
	}
	tmp := p + ".incoming"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
