package objstore

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"

	"github.com/zeebo/blake3"
)

const (
	// HashSize is the width in bytes of a CommitId/ChangeId/tree/blob id.
	HashSize = 32
	// HashHexSize is the width in hex characters of a Hash.
	HashHexSize = HashSize * 2
)

// Hash is a content-addressed, BLAKE3-derived identifier. It is used
// interchangeably as CommitId, ChangeId, TreeId, and BlobId: the spec
// treats all four as opaque fixed-length byte strings, and this repo
// fixes that length at 32 bytes for every id kind.
type Hash [HashSize]byte

// ZeroHash is the identifier with all bytes zero; never a valid id.
var ZeroHash Hash

func (h Hash) IsZero() bool { return h == ZeroHash }

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// NewHash decodes a full 64-character hex string into a Hash. Malformed
// input decodes to a partial or zero Hash; callers that need validation
// should call ValidateHashHex first.
func NewHash(s string) Hash {
	b, _ := hex.DecodeString(s)
	var h Hash
	copy(h[:], b)
	return h
}

// NewHashEx validates s is exactly HashHexSize valid hex digits before
// decoding, returning an error otherwise.
func NewHashEx(s string) (Hash, error) {
	if !ValidateHashHex(s) {
		return ZeroHash, fmt.Errorf("chronocore: %q is not a valid object id", s)
	}
	return NewHash(s), nil
}

// ValidateHashHex reports whether s is exactly HashHexSize hex digits.
func ValidateHashHex(s string) bool {
	if len(s) != HashHexSize {
		return false
	}
	for _, b := range []byte(s) {
		if !isHexDigit(b) {
			return false
		}
	}
	return true
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// HashesSort sorts hashes ascending by byte value, the order the commit
// index's lookup table and resolve-prefix search both depend on.
func HashesSort(a []Hash) { sort.Sort(HashSlice(a)) }

type HashSlice []Hash

func (p HashSlice) Len() int           { return len(p) }
func (p HashSlice) Less(i, j int) bool { return bytes.Compare(p[i][:], p[j][:]) < 0 }
func (p HashSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// Hasher wraps the BLAKE3 hash.Hash used to derive content-addressed ids
// from a canonical object encoding.
type Hasher struct {
	hash.Hash
}

func NewHasher() Hasher { return Hasher{Hash: blake3.New()} }

func (h Hasher) Sum() (out Hash) {
	copy(out[:], h.Hash.Sum(nil))
	return
}

// CommonHexLen returns the number of leading hex digits shared by a and b.
func CommonHexLen(a, b Hash) int {
	ah, bh := a.String(), b.String()
	n := 0
	for n < len(ah) && n < len(bh) && ah[n] == bh[n] {
		n++
	}
	return n
}
