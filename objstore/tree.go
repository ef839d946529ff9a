package objstore

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ValueKind tags the variant of a TreeValue, per spec.md §3's
// TreeValue = File | Symlink | Tree | GitSubmodule | Conflict.
type ValueKind uint8

const (
	KindFile ValueKind = iota
	KindSymlink
	KindTree
	KindGitSubmodule
	KindConflict
)

func (k ValueKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindSymlink:
		return "symlink"
	case KindTree:
		return "tree"
	case KindGitSubmodule:
		return "submodule"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// TreeValue is the value a path component maps to inside a Tree.
type TreeValue struct {
	Kind       ValueKind
	ID         Hash // blob id (File/Symlink), tree id (Tree), submodule commit id
	Executable bool // meaningful only for Kind == KindFile

	// Conflict holds the odd-length sequence of constituent trees for an
	// unresolved merge, only set when Kind == KindConflict. Index 0 and
	// every even index are "add" sides; odd indices are "remove"
	// (base) sides, mirroring spec.md §3's MergedTree description.
	Conflict []Hash
}

// TreeEntry is one named child of a Tree.
type TreeEntry struct {
	Name  string
	Value TreeValue
}

// Tree is an immutable, content-addressed mapping of path component to
// TreeValue (spec.md §3). Entries are kept sorted by Name so Encode is
// deterministic and lookups can binary-search.
type Tree struct {
	ID      Hash
	Entries []TreeEntry
}

// Find returns the entry named name, or ok=false.
func (t *Tree) Find(name string) (TreeValue, bool) {
	i := sort.Search(len(t.Entries), func(i int) bool { return t.Entries[i].Name >= name })
	if i < len(t.Entries) && t.Entries[i].Name == name {
		return t.Entries[i].Value, true
	}
	return TreeValue{}, false
}

// WithEntry returns a new Tree with name bound to v, preserving sort
// order. Trees are immutable, so this never mutates t.
func (t *Tree) WithEntry(name string, v TreeValue) *Tree {
	entries := make([]TreeEntry, 0, len(t.Entries)+1)
	inserted := false
	for _, e := range t.Entries {
		if !inserted && e.Name >= name {
			if e.Name == name {
				entries = append(entries, TreeEntry{Name: name, Value: v})
				inserted = true
				continue
			}
			entries = append(entries, TreeEntry{Name: name, Value: v})
			inserted = true
		}
		entries = append(entries, e)
	}
	if !inserted {
		entries = append(entries, TreeEntry{Name: name, Value: v})
	}
	return &Tree{Entries: entries}
}

// EmptyTree is the canonical tree with no entries; the root commit's
// tree reference (spec.md §4.1).
var EmptyTree = &Tree{}

func (t *Tree) Encode(w io.Writer) error {
	if _, err := w.Write(treeMagic[:]); err != nil {
		return err
	}
	for _, e := range t.Entries {
		if err := encodeTreeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

func encodeTreeEntry(w io.Writer, e TreeEntry) error {
	switch e.Value.Kind {
	case KindFile:
		mode := "100644"
		if e.Value.Executable {
			mode = "100755"
		}
		_, err := fmt.Fprintf(w, "%s blob %s\t%s\n", mode, e.Value.ID, e.Name)
		return err
	case KindSymlink:
		_, err := fmt.Fprintf(w, "120000 blob %s\t%s\n", e.Value.ID, e.Name)
		return err
	case KindTree:
		_, err := fmt.Fprintf(w, "040000 tree %s\t%s\n", e.Value.ID, e.Name)
		return err
	case KindGitSubmodule:
		_, err := fmt.Fprintf(w, "160000 commit %s\t%s\n", e.Value.ID, e.Name)
		return err
	case KindConflict:
		parts := make([]string, 0, len(e.Value.Conflict))
		for _, id := range e.Value.Conflict {
			parts = append(parts, id.String())
		}
		_, err := fmt.Fprintf(w, "040000 conflict %s\t%s\n", strings.Join(parts, ","), e.Name)
		return err
	default:
		return fmt.Errorf("chronocore: unknown tree value kind %d", e.Value.Kind)
	}
}

// DecodeTree parses the canonical body produced by Encode.
func DecodeTree(id Hash, r io.Reader) (*Tree, error) {
	magic, err := readMagic(r)
	if err != nil {
		return nil, err
	}
	if magic != treeMagic {
		return nil, invalidMagicErr(magic)
	}
	t := &Tree{ID: id}
	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, readErr
		}
		line = strings.TrimSuffix(line, "\n")
		if len(line) == 0 {
			if readErr == io.EOF {
				break
			}
			continue
		}
		entry, err := decodeTreeEntry(line)
		if err != nil {
			return nil, err
		}
		t.Entries = append(t.Entries, entry)
		if readErr == io.EOF {
			break
		}
	}
	return t, nil
}

func decodeTreeEntry(line string) (TreeEntry, error) {
	head, name, ok := strings.Cut(line, "\t")
	if !ok {
		return TreeEntry{}, fmt.Errorf("%w: malformed tree entry", ErrCorrupt)
	}
	fields := strings.SplitN(head, " ", 3)
	if len(fields) != 3 {
		return TreeEntry{}, fmt.Errorf("%w: malformed tree entry header", ErrCorrupt)
	}
	mode, kind, id := fields[0], fields[1], fields[2]
	switch kind {
	case "blob":
		if mode == "120000" {
			return TreeEntry{Name: name, Value: TreeValue{Kind: KindSymlink, ID: NewHash(id)}}, nil
		}
		return TreeEntry{Name: name, Value: TreeValue{Kind: KindFile, ID: NewHash(id), Executable: mode == "100755"}}, nil
	case "tree":
		return TreeEntry{Name: name, Value: TreeValue{Kind: KindTree, ID: NewHash(id)}}, nil
	case "commit":
		return TreeEntry{Name: name, Value: TreeValue{Kind: KindGitSubmodule, ID: NewHash(id)}}, nil
	case "conflict":
		var sides []Hash
		for _, part := range strings.Split(id, ",") {
			sides = append(sides, NewHash(part))
		}
		return TreeEntry{Name: name, Value: TreeValue{Kind: KindConflict, Conflict: sides}}, nil
	default:
		return TreeEntry{}, fmt.Errorf("%w: unknown tree entry kind %q", ErrCorrupt, kind)
	}
}

// CanonicalID computes the content-addressed id t would be written under.
func (t *Tree) CanonicalID() (Hash, error) { return hashOf(t) }

// MergedTree is a logical tree that may carry unresolved conflicts as a
// finite odd-length sequence of constituent trees representing sides of
// a merge (spec.md §3). Index 0 is the first "add" side; the sequence
// alternates add/remove thereafter.
type MergedTree struct {
	Sides []Hash
}

// IsResolved reports whether the merge has collapsed to a single tree.
func (m *MergedTree) IsResolved() bool { return len(m.Sides) == 1 }

// Resolved returns the single resolved tree id, valid only when
// IsResolved is true.
func (m *MergedTree) Resolved() Hash {
	if len(m.Sides) == 0 {
		return ZeroHash
	}
	return m.Sides[0]
}
