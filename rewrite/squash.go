package rewrite

import (
	"context"

	"github.com/chronovc/chronocore/objstore"
)

// Squash folds child's tree into a new revision of parent: parent's
// change-id survives (the squash is a new version of parent's change),
// child is abandoned, and callers are expected to follow up with
// RebaseDescendants over child's descendants (rewrites={parent.ID:
// [newParent.ID]}, abandoned={child.ID: true}) to relink anything built on
// top of child. Requires child.Parents to contain exactly parent.ID:
// squashing across an unrelated commit isn't a rewrite primitive, it's a
// user error the caller should reject before calling this.
func Squash(ctx context.Context, store objstore.Store, parent, child *objstore.Commit) (*objstore.Commit, error) {
	if !containsHash(child.Parents, parent.ID) {
		return nil, &NotAParent{Parent: parent.ID, Child: child.ID}
	}
	squashed := &objstore.Commit{
		ChangeID:     parent.ChangeID,
		Parents:      append([]objstore.Hash{}, parent.Parents...),
		Tree:         child.Tree,
		Author:       parent.Author,
		Committer:    child.Committer,
		Description:  parent.Description,
		Predecessors: append(append([]objstore.Hash{}, parent.Predecessors...), parent.ID, child.ID),
	}
	id, err := store.WriteCommit(ctx, squashed)
	if err != nil {
		return nil, err
	}
	squashed.ID = id
	return squashed, nil
}

// Split divides c into two commits along the caller-supplied firstTree (the
// partial tree the first commit should contain; typically a subset of c's
// changes relative to its parents). The first commit keeps c's change-id
// (it's the earlier part of the same change); the second is a fresh
// change stacked on top holding whatever c's full tree added beyond
// firstTree. Callers follow up with RebaseDescendants
// (rewrites={c.ID: [second.ID]}) to relink c's descendants onto second.
func Split(ctx context.Context, store objstore.Store, c *objstore.Commit, firstTree *objstore.Tree, firstDescription, secondDescription string, newChangeID objstore.Hash) (first, second *objstore.Commit, err error) {
	firstTreeID, err := store.WriteTree(ctx, firstTree)
	if err != nil {
		return nil, nil, err
	}
	first = &objstore.Commit{
		ChangeID:     c.ChangeID,
		Parents:      append([]objstore.Hash{}, c.Parents...),
		Tree:         firstTreeID,
		Author:       c.Author,
		Committer:    c.Committer,
		Description:  firstDescription,
		Predecessors: append([]objstore.Hash{}, c.Predecessors...),
	}
	firstID, err := store.WriteCommit(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	first.ID = firstID

	second = &objstore.Commit{
		ChangeID:     newChangeID,
		Parents:      []objstore.Hash{firstID},
		Tree:         c.Tree,
		Author:       c.Author,
		Committer:    c.Committer,
		Description:  secondDescription,
		Predecessors: append(append([]objstore.Hash{}, c.Predecessors...), c.ID),
	}
	secondID, err := store.WriteCommit(ctx, second)
	if err != nil {
		return nil, nil, err
	}
	second.ID = secondID
	return first, second, nil
}

// Unsquash is Split's mirror case: pulling part of a commit's tree back
// out into its own descendant commit, rather than folding a descendant
// in. It calls Split unchanged, so the change-id assignment is the same:
// the extracted (second) piece gets newChangeID and the remainder keeps
// c's identity.
func Unsquash(ctx context.Context, store objstore.Store, c *objstore.Commit, remainderTree *objstore.Tree, remainderDescription, extractedDescription string, newChangeID objstore.Hash) (remainder, extracted *objstore.Commit, err error) {
	return Split(ctx, store, c, remainderTree, remainderDescription, extractedDescription, newChangeID)
}

// Abandon marks ids as abandoned for a subsequent RebaseDescendants call:
// a thin constructor matching the shape RebaseDescendants expects,
// grounded on spec.md §4.7's wording that abandonment is recorded "in the
// pending transaction" rather than acted on immediately.
func Abandon(ids ...objstore.Hash) map[objstore.Hash]bool {
	out := make(map[objstore.Hash]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func containsHash(hs []objstore.Hash, h objstore.Hash) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}

// NotAParent is reported when Squash is asked to fold a commit into a
// commit that isn't actually one of its parents.
type NotAParent struct {
	Parent, Child objstore.Hash
}

func (e *NotAParent) Error() string {
	return "rewrite: " + e.Parent.String() + " is not a parent of " + e.Child.String()
}
