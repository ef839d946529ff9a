package index

import (
	"bytes"
	"sort"
	"strings"

	"github.com/chronovc/chronocore/objstore"
	"github.com/chronovc/chronocore/vcserrors"
)

// Index is the composite, chained commit index: zero or more persisted,
// readonly segments plus one mutable top segment accumulating new commits.
// Positions are global across the whole chain.
type Index struct {
	store    SegmentStore
	segments []*Segment // persisted, oldest first
	top      *Segment   // mutable, not yet persisted
}

// Open loads the segment chain rooted at topSegmentName (the empty string
// for a brand-new, empty index) and readies a fresh mutable top for it.
func Open(store SegmentStore, topSegmentName string) (*Index, error) {
	var chain []*Segment
	name := topSegmentName
	for name != "" {
		seg, err := store.ReadSegment(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, seg)
		name = seg.ParentName
	}
	// chain was accumulated newest-first; reverse to oldest-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	base := uint32(0)
	for _, seg := range chain {
		seg.Base = base
		base += uint32(len(seg.Graph))
	}
	return &Index{
		store:    store,
		segments: chain,
		top:      &Segment{ParentName: topSegmentName, Base: base},
	}, nil
}

// TopName returns the name of the newest persisted segment, or "" if
// nothing has been persisted yet. It is what a caller should record (in a
// view or operation log) to reopen this index later.
func (idx *Index) TopName() string {
	if len(idx.segments) == 0 {
		return ""
	}
	return idx.segments[len(idx.segments)-1].Name.String()
}

// Len reports the total number of indexed commits, persisted plus pending.
func (idx *Index) Len() int {
	return int(idx.top.Base) + len(idx.top.Graph)
}

// CommitIDToPos looks up id's global position, searching the mutable top
// first and then persisted segments from newest to oldest.
func (idx *Index) CommitIDToPos(id objstore.Hash) (IndexPosition, bool) {
	if e, ok := idx.top.findLookup(id); ok {
		return e.Position, true
	}
	for i := len(idx.segments) - 1; i >= 0; i-- {
		if e, ok := idx.segments[i].findLookup(id); ok {
			return e.Position, true
		}
	}
	return 0, false
}

// EntryByPos resolves a global position to its graph entry.
func (idx *Index) EntryByPos(pos IndexPosition) (GraphEntry, bool) {
	if pos >= idx.top.Base && int(pos-idx.top.Base) < len(idx.top.Graph) {
		return idx.top.Graph[pos-idx.top.Base], true
	}
	for _, seg := range idx.segments {
		if pos >= seg.Base && int(pos-seg.Base) < len(seg.Graph) {
			return seg.Graph[pos-seg.Base], true
		}
	}
	return GraphEntry{}, false
}

// ParentPositions returns the global positions of e's parents in order.
func (idx *Index) ParentPositions(e GraphEntry) []IndexPosition {
	if e.NumParents == 0 {
		return nil
	}
	out := make([]IndexPosition, 0, e.NumParents)
	out = append(out, e.Parent1Position)
	if e.NumParents == 1 {
		return out
	}
	// Parents 2..N live in the owning segment's overflow table. Since
	// squashing renumbers overflow offsets when segments merge, and the
	// mutable top only ever appends, the overflow slice that matches e's
	// segment is always the one we can find by locating e's owner below.
	overflow := idx.overflowFor(e)
	n := int(e.NumParents) - 1
	start := int(e.Parent2OverflowPos)
	if overflow == nil || start+n > len(overflow) {
		return out
	}
	return append(out, overflow[start:start+n]...)
}

func (idx *Index) overflowFor(e GraphEntry) []uint32 {
	for _, g := range idx.top.Graph {
		if g.CommitID == e.CommitID {
			return idx.top.ParentOverflow
		}
	}
	for _, seg := range idx.segments {
		for _, g := range seg.Graph {
			if g.CommitID == e.CommitID {
				return seg.ParentOverflow
			}
		}
	}
	return nil
}

// AddCommit appends id to the mutable top segment. It is a no-op if id is
// already indexed, and fails if any parent is not yet indexed.
func (idx *Index) AddCommit(changeID, commitID objstore.Hash, parentIDs []objstore.Hash) error {
	if _, ok := idx.CommitIDToPos(commitID); ok {
		return nil
	}
	parentPositions := make([]IndexPosition, len(parentIDs))
	generation := uint32(0)
	for i, p := range parentIDs {
		pos, ok := idx.CommitIDToPos(p)
		if !ok {
			return vcserrors.NewIndexIO(p.String(), vcserrors.ErrIndexCorrupt)
		}
		parentPositions[i] = pos
		if pe, ok := idx.EntryByPos(pos); ok && pe.Generation+1 > generation {
			generation = pe.Generation + 1
		}
	}

	entry := GraphEntry{
		Generation: generation,
		NumParents: uint32(len(parentPositions)),
		ChangeID:   changeID,
		CommitID:   commitID,
	}
	if len(parentPositions) >= 1 {
		entry.Parent1Position = parentPositions[0]
	}
	if len(parentPositions) >= 2 {
		entry.Parent2OverflowPos = uint32(len(idx.top.ParentOverflow))
		idx.top.ParentOverflow = append(idx.top.ParentOverflow, parentPositions[1:]...)
	}

	position := idx.top.Base + uint32(len(idx.top.Graph))
	idx.top.Graph = append(idx.top.Graph, entry)
	idx.top.Lookup = insertLookupSorted(idx.top.Lookup, LookupEntry{CommitID: commitID, Position: position})
	return nil
}

func insertLookupSorted(list []LookupEntry, e LookupEntry) []LookupEntry {
	i := sort.Search(len(list), func(i int) bool {
		return bytes.Compare(list[i].CommitID[:], e.CommitID[:]) >= 0
	})
	list = append(list, LookupEntry{})
	copy(list[i+1:], list[i:])
	list[i] = e
	return list
}

// ResolveResult classifies the outcome of ResolvePrefix.
type ResolveResult int

const (
	NoMatch ResolveResult = iota
	Single
	Ambiguous
)

// ResolvePrefix finds the commit(s) whose hex id begins with hexPrefix.
func (idx *Index) ResolvePrefix(hexPrefix string) (ResolveResult, objstore.Hash) {
	hexPrefix = strings.ToLower(hexPrefix)
	seen := make(map[objstore.Hash]struct{})
	collect := func(lookup []LookupEntry) {
		lo := sort.Search(len(lookup), func(i int) bool {
			return lookup[i].CommitID.String() >= hexPrefix
		})
		for i := lo; i < len(lookup) && strings.HasPrefix(lookup[i].CommitID.String(), hexPrefix); i++ {
			seen[lookup[i].CommitID] = struct{}{}
		}
	}
	collect(idx.top.Lookup)
	for _, seg := range idx.segments {
		collect(seg.Lookup)
	}
	switch len(seen) {
	case 0:
		return NoMatch, objstore.ZeroHash
	case 1:
		for h := range seen {
			return Single, h
		}
	}
	return Ambiguous, objstore.ZeroHash
}

// ResolveChangeIDPrefix finds the commit(s) whose change-id hex begins with
// hexPrefix. Unlike ResolvePrefix, change-ids have no dedicated sorted
// lookup table, so this scans every graph entry; change-id prefix
// resolution is the lowest-precedence, least-frequent symbol lookup.
func (idx *Index) ResolveChangeIDPrefix(hexPrefix string) (ResolveResult, objstore.Hash) {
	hexPrefix = strings.ToLower(hexPrefix)
	seen := make(map[objstore.Hash]struct{})
	scan := func(graph []GraphEntry) {
		for _, e := range graph {
			if strings.HasPrefix(e.ChangeID.String(), hexPrefix) {
				seen[e.CommitID] = struct{}{}
			}
		}
	}
	scan(idx.top.Graph)
	for _, seg := range idx.segments {
		scan(seg.Graph)
	}
	switch len(seen) {
	case 0:
		return NoMatch, objstore.ZeroHash
	case 1:
		for h := range seen {
			return Single, h
		}
	}
	return Ambiguous, objstore.ZeroHash
}

// ShortestUniquePrefixLen returns the fewest hex digits of id that no other
// indexed commit shares, by locating id's lexical neighbors across every
// segment and comparing against the closest ones globally.
func (idx *Index) ShortestUniquePrefixLen(id objstore.Hash) int {
	all := make([]objstore.Hash, 0, idx.Len())
	for _, e := range idx.top.Lookup {
		all = append(all, e.CommitID)
	}
	for _, seg := range idx.segments {
		for _, e := range seg.Lookup {
			all = append(all, e.CommitID)
		}
	}
	sort.Slice(all, func(i, j int) bool { return bytes.Compare(all[i][:], all[j][:]) < 0 })

	i := sort.Search(len(all), func(i int) bool { return bytes.Compare(all[i][:], id[:]) >= 0 })
	best := -1
	if i > 0 {
		if c := objstore.CommonHexLen(id, all[i-1]); c > best {
			best = c
		}
	}
	if i+1 < len(all) {
		if c := objstore.CommonHexLen(id, all[i+1]); c > best {
			best = c
		}
	}
	if best < 0 {
		return 0
	}
	return best + 1
}

// Persist writes the accumulated mutable top as a new segment, squashing
// it with its parent (recursively) whenever a segment's commit count
// exceeds half its parent's, keeping the chain O(log N) segments deep.
func (idx *Index) Persist() (string, error) {
	if len(idx.top.Graph) == 0 {
		return idx.TopName(), nil
	}
	seg := idx.top
	name, err := hashSegment(seg)
	if err != nil {
		return "", err
	}
	seg.Name = name
	if err := idx.store.WriteSegment(seg); err != nil {
		return "", err
	}
	idx.segments = append(idx.segments, seg)
	idx.top = &Segment{ParentName: name.String(), Base: seg.Base + uint32(len(seg.Graph))}

	if err := idx.squash(); err != nil {
		return "", err
	}
	idx.top.ParentName = idx.TopName()
	return idx.segments[len(idx.segments)-1].Name.String(), nil
}

func (idx *Index) squash() error {
	for len(idx.segments) >= 2 {
		last := idx.segments[len(idx.segments)-1]
		parent := idx.segments[len(idx.segments)-2]
		if len(last.Graph) <= len(parent.Graph)/2 {
			break
		}
		merged := &Segment{
			ParentName: parent.ParentName,
			Base:       parent.Base,
		}
		merged.Graph = append(append([]GraphEntry{}, parent.Graph...), last.Graph...)
		merged.ParentOverflow = append([]uint32{}, parent.ParentOverflow...)
		ovfBase := len(parent.ParentOverflow)
		// Re-home last's graph entries' overflow offsets into the merged array.
		for i := len(parent.Graph); i < len(merged.Graph); i++ {
			if merged.Graph[i].NumParents >= 2 {
				merged.Graph[i].Parent2OverflowPos += uint32(ovfBase)
			}
		}
		merged.ParentOverflow = append(merged.ParentOverflow, last.ParentOverflow...)
		merged.Lookup = mergeLookup(parent.Lookup, last.Lookup)

		name, err := hashSegment(merged)
		if err != nil {
			return err
		}
		merged.Name = name
		if err := idx.store.WriteSegment(merged); err != nil {
			return err
		}
		idx.segments = idx.segments[:len(idx.segments)-2]
		idx.segments = append(idx.segments, merged)
	}
	return nil
}

func mergeLookup(a, b []LookupEntry) []LookupEntry {
	out := make([]LookupEntry, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if bytes.Compare(a[i].CommitID[:], b[j].CommitID[:]) <= 0 {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
