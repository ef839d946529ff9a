// Package objstore implements the content-addressed commit/tree/blob
// store described in spec.md §4.1: readers are independent, writes are
// content-addressed, and the root commit is a distinguished sentinel
// with an empty tree and no parents.
package objstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/chronovc/chronocore/objstore/internal/zstdpool"
)

// ObjectType tags the kind of object behind a magic-prefixed encoding,
// grounded on the teacher's object.ObjectType enum (modules/zeta/object/object.go).
type ObjectType int8

const (
	InvalidObject ObjectType = 0
	CommitObject  ObjectType = 1
	TreeObject    ObjectType = 2
	BlobObject    ObjectType = 3
)

func (t ObjectType) String() string {
	switch t {
	case CommitObject:
		return "commit"
	case TreeObject:
		return "tree"
	case BlobObject:
		return "blob"
	default:
		return "unknown"
	}
}

var (
	commitMagic = [4]byte{'C', 'H', 'C', 0x01}
	treeMagic   = [4]byte{'C', 'H', 'T', 0x01}
	blobMagic   = [4]byte{'C', 'H', 'B', 0x01}

	ErrUnsupportedObject = errors.New("chronocore: unsupported object type")
	ErrNotFound          = errors.New("chronocore: object not found")
	ErrCorrupt           = errors.New("chronocore: object corrupt")
)

const zstdMagicLE = 0xFD2FB528

func looksZstd(b [4]byte) bool {
	return binary.LittleEndian.Uint32(b[:]) == zstdMagicLE
}

// encoder is implemented by every object kind; Encode writes the
// canonical, uncompressed byte form (magic + body) that objects hash to.
type encoder interface {
	Encode(w io.Writer) error
}

// hashOf returns the content-addressed id for e's canonical encoding.
func hashOf(e encoder) (Hash, error) {
	h := NewHasher()
	if err := e.Encode(h); err != nil {
		return ZeroHash, err
	}
	return h.Sum(), nil
}

// compress writes e's canonical encoding, zstd-compressed, to w. This is
// the on-disk form a Store backend persists; it is never part of the
// hashed content, matching the teacher's Database.compressionALGO split
// between canonical bytes (hashed) and stored bytes (compressed).
func compress(w io.Writer, e encoder) error {
	zw := zstdpool.GetWriter(w)
	defer zstdpool.PutWriter(zw)
	return e.Encode(zw)
}

// decompress transparently unwraps a zstd frame if present, then returns
// a reader positioned at the start of the canonical encoding.
func decompress(r io.Reader) (io.Reader, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if !looksZstd(magic) {
		return io.MultiReader(bytes.NewReader(magic[:]), r), nil
	}
	zr, err := zstdpool.GetReader(io.MultiReader(bytes.NewReader(magic[:]), r))
	if err != nil {
		return nil, err
	}
	return zr, nil
}

func readMagic(r io.Reader) ([4]byte, error) {
	var magic [4]byte
	_, err := io.ReadFull(r, magic[:])
	return magic, err
}

func objectTypeFromMagic(magic [4]byte) ObjectType {
	switch magic {
	case commitMagic:
		return CommitObject
	case treeMagic:
		return TreeObject
	case blobMagic:
		return BlobObject
	default:
		return InvalidObject
	}
}

func invalidMagicErr(magic [4]byte) error {
	return fmt.Errorf("%w: magic %x", ErrUnsupportedObject, magic)
}
