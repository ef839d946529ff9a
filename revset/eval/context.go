// Package eval evaluates an optimized revset AST into a Revset: a lazy
// iterator of index positions in descending order, per the evaluator
// contract. It is the only package that touches both the commit index and
// the object store while executing a revset.
package eval

import (
	"github.com/chronovc/chronocore/index"
	"github.com/chronovc/chronocore/objstore"
)

// Context is everything the evaluator needs from the surrounding repo: the
// index and store to walk and load commits from, and the view's symbol
// table to resolve bare names and built-in functions like branches()
// against. A concrete implementation lives in the view package, which
// depends on eval rather than the other way around.
type Context interface {
	Index() *index.Index
	Store() objstore.Store

	// ResolveSymbol resolves a bare symbol (workspace sentinel, root,
	// bookmark, tag, git ref, commit/change id or prefix) per the
	// precedence order: workspace sentinel > root > tag > local bookmark >
	// remote bookmark > git ref > full commit id > short commit id prefix
	// > change-id prefix.
	ResolveSymbol(name string) (index.IndexPosition, error)

	VisibleHeads() []index.IndexPosition
	PublicHeads() []index.IndexPosition

	Branches(pattern string) []index.IndexPosition
	RemoteBranches(pattern, remote string) []index.IndexPosition
	Tags(pattern string) []index.IndexPosition
	GitRefs() []index.IndexPosition
	GitHead() (index.IndexPosition, bool)

	// Commit loads the decoded commit at pos, for filter predicates that
	// inspect metadata (author, description, tree contents).
	Commit(pos index.IndexPosition) (*objstore.Commit, error)
}

// visibleSet materializes every position reachable from the view's visible
// heads; several node strategies (Negation, Children, DescendantsOf) need
// to know the full visible set rather than just an ancestor walk.
func visibleSet(ctx Context) []index.IndexPosition {
	return ctx.Index().WalkRevs(ctx.VisibleHeads(), nil).Collect()
}
