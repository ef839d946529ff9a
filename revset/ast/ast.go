// Package ast defines the revset expression tree: the surface grammar's
// parse result, before alias expansion, optimization, or evaluation.
package ast

// Node is a revset expression tree node. The concrete types below are the
// complete set the parser, optimizer, and evaluator agree on.
type Node interface {
	node()
}

// Symbol is a bare identifier: a bookmark, tag, git ref, workspace
// sentinel, or commit/change id prefix, resolved by the evaluator against
// the view's symbol table per the precedence order in resolve_symbol.
type Symbol struct {
	Name string
}

// StringLiteral is a quoted string, used as a function argument (e.g.
// description("fix") or a literal symbol forced via quoting.
type StringLiteral struct {
	Value string
}

// FuncCall is a built-in function invocation; Args may be positional
// expressions or Keyword-wrapped named arguments.
type FuncCall struct {
	Name string
	Args []Node
}

// Keyword wraps a named argument, e.g. remote=pat inside remote_branches(...).
type Keyword struct {
	Name  string
	Value Node
}

// Parents is `x-`: the parents of x.
type Parents struct{ X Node }

// Children is `x+`: the children of x within the visible set.
type Children struct{ X Node }

// AncestorsOf is `:x` / `..x`: ancestors of x, inclusive.
type AncestorsOf struct{ X Node }

// DescendantsOf is `x:`: descendants of x, inclusive.
type DescendantsOf struct{ X Node }

// DagRange is `x:y`: commits reachable from y that are also descendants of x.
type DagRange struct{ Roots, Heads Node }

// Range is `x..y`: ancestors of y that are not ancestors of x.
type Range struct{ Roots, Heads Node }

// Union is `x | y`.
type Union struct{ Left, Right Node }

// Intersection is `x & y`.
type Intersection struct{ Left, Right Node }

// Difference is `x ~ y`.
type Difference struct{ Left, Right Node }

// Negation is `~x`: complement within the visible set.
type Negation struct{ X Node }

// All is `all()`: every visible commit.
type All struct{}

// None is `none()`: the empty set.
type None struct{}

func (Symbol) node()        {}
func (StringLiteral) node() {}
func (FuncCall) node()      {}
func (Keyword) node()       {}
func (Parents) node()       {}
func (Children) node()      {}
func (AncestorsOf) node()   {}
func (DescendantsOf) node() {}
func (DagRange) node()      {}
func (Range) node()         {}
func (Union) node()         {}
func (Intersection) node()  {}
func (Difference) node()    {}
func (Negation) node()      {}
func (All) node()           {}
func (None) node()          {}
