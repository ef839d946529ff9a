// Package index implements the persistent commit index: a chain of
// append-only segments recording, for every indexed commit, its change id,
// generation number and parent positions, so that ancestry queries and
// revset evaluation never need to touch the object store.
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/chronovc/chronocore/objstore"
)

// IndexPosition is a dense, topologically-ordered position assigned to a
// commit the first time it is indexed. Positions are global across the
// whole segment chain: a segment whose chain has N ancestor commits starts
// numbering its own commits at N.
type IndexPosition = uint32

const (
	commitIDLen = objstore.HashSize
	changeIDLen = objstore.HashSize

	graphEntrySize  = 20 + commitIDLen + changeIDLen
	lookupEntrySize = commitIDLen + 4
)

// GraphEntry is one commit's record within a segment, addressed by its
// local offset into the segment's graph_entries array.
type GraphEntry struct {
	Generation         uint32
	NumParents         uint32
	Parent1Position    uint32 // global position, valid when NumParents >= 1
	Parent2OverflowPos uint32 // index into ParentOverflow, valid when NumParents >= 2
	ChangeID           objstore.Hash
	CommitID           objstore.Hash
}

// LookupEntry maps a commit id to its global position, kept sorted
// ascending by CommitID bytes within a segment for binary search.
type LookupEntry struct {
	CommitID objstore.Hash
	Position uint32
}

// Segment is one file's worth of the commit index: a fixed run of commits
// appended after the commits of ParentName. Name is the hash of the
// segment's own encoded bytes and doubles as its filename.
type Segment struct {
	Name           objstore.Hash
	ParentName     string
	Base           uint32 // global position of this segment's first commit
	Graph          []GraphEntry
	Lookup         []LookupEntry
	ParentOverflow []uint32
}

// NumCommits reports how many commits this segment itself contributes.
func (s *Segment) NumCommits() int { return len(s.Graph) }

// encode writes the segment in the bit-exact on-disk layout: a parent-name
// header, then fixed-size graph entries, then sorted lookup entries, then
// the parent-overflow table. All integers are little-endian.
func (s *Segment) encode(w io.Writer) error {
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(s.ParentName)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(s.ParentName) > 0 {
		if _, err := io.WriteString(w, s.ParentName); err != nil {
			return err
		}
	}
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(s.Graph)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(s.ParentOverflow)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	var g [graphEntrySize]byte
	for _, e := range s.Graph {
		binary.LittleEndian.PutUint32(g[0:4], 0) // flags, reserved
		binary.LittleEndian.PutUint32(g[4:8], e.Generation)
		binary.LittleEndian.PutUint32(g[8:12], e.NumParents)
		binary.LittleEndian.PutUint32(g[12:16], e.Parent1Position)
		binary.LittleEndian.PutUint32(g[16:20], e.Parent2OverflowPos)
		copy(g[20:20+changeIDLen], e.ChangeID[:])
		copy(g[20+changeIDLen:20+changeIDLen+commitIDLen], e.CommitID[:])
		if _, err := w.Write(g[:]); err != nil {
			return err
		}
	}

	var l [lookupEntrySize]byte
	for _, e := range s.Lookup {
		copy(l[0:commitIDLen], e.CommitID[:])
		binary.LittleEndian.PutUint32(l[commitIDLen:commitIDLen+4], e.Position)
		if _, err := w.Write(l[:]); err != nil {
			return err
		}
	}

	var ovf [4]byte
	for _, p := range s.ParentOverflow {
		binary.LittleEndian.PutUint32(ovf[:], p)
		if _, err := w.Write(ovf[:]); err != nil {
			return err
		}
	}
	return nil
}

// decodeSegment parses a segment body; it does not set Name or Base, which
// are properties of where the segment lives in the chain, not its bytes.
func decodeSegment(r io.Reader) (*Segment, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("index: read parent_name_len: %w", err)
	}
	parentNameLen := binary.LittleEndian.Uint32(hdr[:])
	var parentName string
	if parentNameLen > 0 {
		buf := make([]byte, parentNameLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("index: read parent_name: %w", err)
		}
		parentName = string(buf)
	}

	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("index: read num_commits: %w", err)
	}
	numCommits := binary.LittleEndian.Uint32(hdr[:])

	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("index: read num_parent_ovf: %w", err)
	}
	numOvf := binary.LittleEndian.Uint32(hdr[:])

	graph := make([]GraphEntry, numCommits)
	g := make([]byte, graphEntrySize)
	for i := range graph {
		if _, err := io.ReadFull(r, g); err != nil {
			return nil, fmt.Errorf("index: read graph entry %d: %w", i, err)
		}
		graph[i] = GraphEntry{
			Generation:         binary.LittleEndian.Uint32(g[4:8]),
			NumParents:         binary.LittleEndian.Uint32(g[8:12]),
			Parent1Position:    binary.LittleEndian.Uint32(g[12:16]),
			Parent2OverflowPos: binary.LittleEndian.Uint32(g[16:20]),
		}
		copy(graph[i].ChangeID[:], g[20:20+changeIDLen])
		copy(graph[i].CommitID[:], g[20+changeIDLen:20+changeIDLen+commitIDLen])
	}

	lookup := make([]LookupEntry, numCommits)
	l := make([]byte, lookupEntrySize)
	for i := range lookup {
		if _, err := io.ReadFull(r, l); err != nil {
			return nil, fmt.Errorf("index: read lookup entry %d: %w", i, err)
		}
		copy(lookup[i].CommitID[:], l[0:commitIDLen])
		lookup[i].Position = binary.LittleEndian.Uint32(l[commitIDLen : commitIDLen+4])
	}

	overflow := make([]uint32, numOvf)
	var ovf [4]byte
	for i := range overflow {
		if _, err := io.ReadFull(r, ovf[:]); err != nil {
			return nil, fmt.Errorf("index: read parent overflow %d: %w", i, err)
		}
		overflow[i] = binary.LittleEndian.Uint32(ovf[:])
	}

	return &Segment{ParentName: parentName, Graph: graph, Lookup: lookup, ParentOverflow: overflow}, nil
}

// hashSegment returns the content hash that names a segment once encoded.
func hashSegment(s *Segment) (objstore.Hash, error) {
	buf := &bytes.Buffer{}
	if err := s.encode(buf); err != nil {
		return objstore.ZeroHash, err
	}
	h := objstore.NewHasher()
	if _, err := h.Write(buf.Bytes()); err != nil {
		return objstore.ZeroHash, err
	}
	return h.Sum(), nil
}

// findLookup performs the O(log n) binary search for id within a segment's
// sorted lookup table.
func (s *Segment) findLookup(id objstore.Hash) (LookupEntry, bool) {
	i := sort.Search(len(s.Lookup), func(i int) bool {
		return bytes.Compare(s.Lookup[i].CommitID[:], id[:]) >= 0
	})
	if i < len(s.Lookup) && s.Lookup[i].CommitID == id {
		return s.Lookup[i], true
	}
	return LookupEntry{}, false
}
