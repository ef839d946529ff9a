// Package view holds the ref-and-symbol-table shape the core engine
// consumes from its surrounding collaborators (spec.md §6), and resolves
// revset symbols against it per the precedence order in spec.md §4.4.
package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/chronovc/chronocore/index"
	"github.com/chronovc/chronocore/modules/plumbing"
	"github.com/chronovc/chronocore/objstore"
	"github.com/chronovc/chronocore/vcserrors"
)

// RefTargetKind tags the variant of a RefTarget.
type RefTargetKind uint8

const (
	RefAbsent RefTargetKind = iota
	RefNormal
	RefConflicted
)

// RefTarget is either Absent, Normal(CommitId), or Conflicted(adds,
// removes), with the invariant |adds| = |removes| + 1 — one add per
// divergent commit, one remove per common ancestor it diverged from.
type RefTarget struct {
	Kind    RefTargetKind
	Normal  objstore.Hash
	Adds    []objstore.Hash
	Removes []objstore.Hash
}

// Conflicted reports whether t is the Conflicted variant, the state a
// bookmark settles into when rewrite leaves a change-id with multiple
// commit ids simultaneously visible.
func (t RefTarget) Conflicted() bool { return t.Kind == RefConflicted }

func NewNormalTarget(id objstore.Hash) RefTarget {
	return RefTarget{Kind: RefNormal, Normal: id}
}

// NewConflictedTarget builds a Conflicted target and panics if the
// |adds| = |removes| + 1 invariant doesn't hold — a programmer error in
// the caller (the rewrite engine), never a user-triggerable state.
func NewConflictedTarget(adds, removes []objstore.Hash) RefTarget {
	if len(adds) != len(removes)+1 {
		panic(fmt.Sprintf("view: conflicted ref target invariant violated: %d adds, %d removes", len(adds), len(removes)))
	}
	return RefTarget{Kind: RefConflicted, Adds: adds, Removes: removes}
}

// Heads returns every commit this target currently points at: the single
// commit for Normal, every add for Conflicted, nothing for Absent.
func (t RefTarget) Heads() []objstore.Hash {
	switch t.Kind {
	case RefNormal:
		return []objstore.Hash{t.Normal}
	case RefConflicted:
		return append([]objstore.Hash{}, t.Adds...)
	default:
		return nil
	}
}

// RemoteRef is a remote-tracking bookmark: its last-known target. It does
// not record whether the local bookmark of the same name has diverged.
type RemoteRef struct {
	Target RefTarget
}

// RemoteBookmarkKey identifies a remote-tracking bookmark by (name, remote).
type RemoteBookmarkKey struct {
	Name, Remote string
}

// View is the shape spec.md §6 describes: every ref category the engine
// resolves symbols against, plus the per-workspace working-copy commits
// and the public-heads set marking immutable history.
type View struct {
	WorkspaceCommits map[string]objstore.Hash
	LocalBookmarks   map[string]RefTarget
	RemoteBookmarks  map[RemoteBookmarkKey]RemoteRef
	Tags             map[string]RefTarget
	GitRefs          map[string]RefTarget
	GitHead          *RefTarget
	PublicHeads      map[objstore.Hash]struct{}
}

func NewView() *View {
	return &View{
		WorkspaceCommits: map[string]objstore.Hash{},
		LocalBookmarks:   map[string]RefTarget{},
		RemoteBookmarks:  map[RemoteBookmarkKey]RemoteRef{},
		Tags:             map[string]RefTarget{},
		GitRefs:          map[string]RefTarget{},
		PublicHeads:      map[objstore.Hash]struct{}{},
	}
}

// DefaultWorkspace is the sentinel workspace name `@` on its own refers to.
const DefaultWorkspace = "default"

// Repo composes a View with the index and store it was computed against,
// and implements revset/eval.Context: the only place the revset evaluator
// touches ref names rather than bare positions.
type Repo struct {
	View  *View
	index *index.Index
	store objstore.Store
}

func NewRepo(v *View, idx *index.Index, store objstore.Store) *Repo {
	return &Repo{View: v, index: idx, store: store}
}

func (r *Repo) Index() *index.Index   { return r.index }
func (r *Repo) Store() objstore.Store { return r.store }

func (r *Repo) posOf(id objstore.Hash) (index.IndexPosition, bool) {
	return r.index.CommitIDToPos(id)
}

func (r *Repo) VisibleHeads() []index.IndexPosition {
	seen := map[index.IndexPosition]bool{}
	var out []index.IndexPosition
	add := func(id objstore.Hash) {
		if pos, ok := r.posOf(id); ok && !seen[pos] {
			seen[pos] = true
			out = append(out, pos)
		}
	}
	for _, id := range r.View.WorkspaceCommits {
		add(id)
	}
	for _, t := range r.View.LocalBookmarks {
		for _, id := range t.Heads() {
			add(id)
		}
	}
	for _, t := range r.View.Tags {
		for _, id := range t.Heads() {
			add(id)
		}
	}
	for _, t := range r.View.GitRefs {
		for _, id := range t.Heads() {
			add(id)
		}
	}
	if r.View.GitHead != nil {
		for _, id := range r.View.GitHead.Heads() {
			add(id)
		}
	}
	for id := range r.View.PublicHeads {
		add(id)
	}
	return out
}

func (r *Repo) PublicHeads() []index.IndexPosition {
	var out []index.IndexPosition
	for id := range r.View.PublicHeads {
		if pos, ok := r.posOf(id); ok {
			out = append(out, pos)
		}
	}
	return out
}

func (r *Repo) Branches(pattern string) []index.IndexPosition {
	var out []index.IndexPosition
	for name, t := range r.View.LocalBookmarks {
		if !matches(pattern, name) {
			continue
		}
		for _, id := range t.Heads() {
			if pos, ok := r.posOf(id); ok {
				out = append(out, pos)
			}
		}
	}
	return out
}

func (r *Repo) RemoteBranches(pattern, remote string) []index.IndexPosition {
	var out []index.IndexPosition
	for key, rr := range r.View.RemoteBookmarks {
		if remote != "" && key.Remote != remote {
			continue
		}
		if !matches(pattern, key.Name) {
			continue
		}
		for _, id := range rr.Target.Heads() {
			if pos, ok := r.posOf(id); ok {
				out = append(out, pos)
			}
		}
	}
	return out
}

func (r *Repo) Tags(pattern string) []index.IndexPosition {
	var out []index.IndexPosition
	for name, t := range r.View.Tags {
		if !matches(pattern, name) {
			continue
		}
		for _, id := range t.Heads() {
			if pos, ok := r.posOf(id); ok {
				out = append(out, pos)
			}
		}
	}
	return out
}

func (r *Repo) GitRefs() []index.IndexPosition {
	var out []index.IndexPosition
	for _, t := range r.View.GitRefs {
		for _, id := range t.Heads() {
			if pos, ok := r.posOf(id); ok {
				out = append(out, pos)
			}
		}
	}
	return out
}

func (r *Repo) GitHead() (index.IndexPosition, bool) {
	if r.View.GitHead == nil {
		return 0, false
	}
	heads := r.View.GitHead.Heads()
	if len(heads) == 0 {
		return 0, false
	}
	return r.posOf(heads[0])
}

func (r *Repo) Commit(pos index.IndexPosition) (*objstore.Commit, error) {
	e, ok := r.index.EntryByPos(pos)
	if !ok {
		return nil, &vcserrors.NoSuchRevision{Text: fmt.Sprintf("<position %d>", pos)}
	}
	return r.store.GetCommit(context.Background(), e.CommitID)
}

// matches reports whether name matches an optional revset pattern
// argument: an empty pattern (the function's argument omitted) matches
// everything, following branches()/tags()'s "all, by default" contract.
func matches(pattern, name string) bool {
	return pattern == "" || pattern == name
}

// ResolveSymbol implements the precedence order from spec.md §4.4:
// workspace sentinel > root > tag > local bookmark > remote bookmark >
// git ref > full commit id > short commit id prefix > change-id prefix.
func (r *Repo) ResolveSymbol(text string) (index.IndexPosition, error) {
	if id, ok := r.resolveWorkspaceSentinel(text); ok {
		return r.requirePos(text, id)
	}
	if text == "root" {
		return r.requirePos(text, r.store.RootCommitID())
	}
	if t, ok := r.View.Tags[text]; ok {
		return r.requireTarget(text, t)
	}
	if t, ok := r.View.LocalBookmarks[text]; ok {
		return r.requireTarget(text, t)
	}
	if name, remote, ok := splitRemote(text); ok {
		if rr, ok := r.View.RemoteBookmarks[RemoteBookmarkKey{Name: name, Remote: remote}]; ok {
			return r.requireTarget(text, rr.Target)
		}
	}
	if t, ok := r.View.GitRefs[text]; ok {
		return r.requireTarget(text, t)
	}
	if objstore.ValidateHashHex(text) {
		id := objstore.NewHash(text)
		if pos, ok := r.posOf(id); ok {
			return pos, nil
		}
	}
	if isHexPrefix(text) {
		if result, id := r.index.ResolvePrefix(text); result == index.Single {
			return r.requirePos(text, id)
		} else if result == index.Ambiguous {
			return 0, &vcserrors.AmbiguousIdPrefix{Text: text}
		}
		if result, id := r.index.ResolveChangeIDPrefix(text); result == index.Single {
			return r.requirePos(text, id)
		} else if result == index.Ambiguous {
			return 0, &vcserrors.AmbiguousIdPrefix{Text: text}
		}
	}
	return 0, &vcserrors.NoSuchRevision{Text: text}
}

// resolveWorkspaceSentinel handles `@` (the default workspace's working
// copy commit) and `name@` (another workspace's).
func (r *Repo) resolveWorkspaceSentinel(text string) (objstore.Hash, bool) {
	if text == "@" {
		id, ok := r.View.WorkspaceCommits[DefaultWorkspace]
		return id, ok
	}
	if strings.HasSuffix(text, "@") && !strings.Contains(text[:len(text)-1], "@") {
		name := text[:len(text)-1]
		if name == "" {
			return objstore.Hash{}, false
		}
		id, ok := r.View.WorkspaceCommits[name]
		return id, ok
	}
	return objstore.Hash{}, false
}

// splitRemote splits `name@remote` into its two components; ambiguous
// with the workspace sentinel `name@`, but ResolveSymbol only reaches
// this check after the (higher-precedence) workspace sentinel lookup has
// already failed to find a matching workspace.
func splitRemote(text string) (name, remote string, ok bool) {
	i := strings.LastIndexByte(text, '@')
	if i <= 0 || i == len(text)-1 {
		return "", "", false
	}
	return text[:i], text[i+1:], true
}

func isHexPrefix(text string) bool {
	if text == "" || len(text) > objstore.HashHexSize {
		return false
	}
	for _, b := range []byte(text) {
		if !((b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')) {
			return false
		}
	}
	return true
}

func (r *Repo) requirePos(text string, id objstore.Hash) (index.IndexPosition, error) {
	pos, ok := r.posOf(id)
	if !ok {
		return 0, &vcserrors.NoSuchRevision{Text: text}
	}
	return pos, nil
}

func (r *Repo) requireTarget(text string, t RefTarget) (index.IndexPosition, error) {
	heads := t.Heads()
	if len(heads) == 0 {
		return 0, &vcserrors.NoSuchRevision{Text: text}
	}
	if len(heads) > 1 {
		return 0, &vcserrors.AmbiguousIdPrefix{Text: text}
	}
	return r.requirePos(text, heads[0])
}

// ValidateBookmarkName rejects names Git-incompatible refs would reject,
// adapted from the teacher's reference-name validator.
func ValidateBookmarkName(name string) bool {
	return plumbing.ValidateBranchName([]byte(name))
}

// ValidateTagName rejects names Git-incompatible refs would reject.
func ValidateTagName(name string) bool {
	return plumbing.ValidateTagName([]byte(name))
}
