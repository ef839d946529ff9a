package view

import (
	"sort"

	"github.com/chronovc/chronocore/objstore"
)

// ContentHash computes a deterministic BLAKE3 digest of v's contents,
// independent of Go map iteration order, for use as the view_id an
// operation-log entry records (spec.md §6). The encoding is internal and
// unversioned: nothing outside this package interprets it, only compares
// two hashes for equality.
func (v *View) ContentHash() objstore.Hash {
	h := objstore.NewHasher()

	writeKV := func(k string, id objstore.Hash) {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write(id[:])
		h.Write([]byte{0})
	}
	writeTarget := func(prefix, k string, t RefTarget) {
		h.Write([]byte(prefix))
		h.Write([]byte(k))
		h.Write([]byte{byte(t.Kind)})
		h.Write(t.Normal[:])
		for _, a := range t.Adds {
			h.Write(a[:])
		}
		h.Write([]byte{0xff})
		for _, r := range t.Removes {
			h.Write(r[:])
		}
		h.Write([]byte{0})
	}

	for _, k := range sortedKeys(v.WorkspaceCommits) {
		writeKV("wc:"+k, v.WorkspaceCommits[k])
	}
	for _, k := range sortedKeys(v.LocalBookmarks) {
		writeTarget("lb:", k, v.LocalBookmarks[k])
	}
	for _, k := range sortedRemoteKeys(v.RemoteBookmarks) {
		writeTarget("rb:", k.Name+"@"+k.Remote, v.RemoteBookmarks[k].Target)
	}
	for _, k := range sortedKeys(v.Tags) {
		writeTarget("tag:", k, v.Tags[k])
	}
	for _, k := range sortedKeys(v.GitRefs) {
		writeTarget("gitref:", k, v.GitRefs[k])
	}
	if v.GitHead != nil {
		writeTarget("githead:", "", *v.GitHead)
	}
	for _, id := range sortedHashes(v.PublicHeads) {
		writeKV("pubhead", id)
	}

	return h.Sum()
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedRemoteKeys(m map[RemoteBookmarkKey]RemoteRef) []RemoteBookmarkKey {
	out := make([]RemoteBookmarkKey, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Remote < out[j].Remote
	})
	return out
}

func sortedHashes(m map[objstore.Hash]struct{}) []objstore.Hash {
	out := make([]objstore.Hash, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	objstore.HashesSort(out)
	return out
}
