// Package optimize rewrites a parsed revset tree, bottom-up until a fixed
// point, into a form the evaluator can execute more directly: differences
// unfolded into intersections with negation, redundant double-negations
// and all()-identities folded, nested ancestors() calls merged, and filter
// predicates rotated to the right of the sets they filter.
package optimize

import (
	"github.com/chronovc/chronocore/revset/ast"
)

// Optimize applies the rewrite rules bottom-up until no rule changes the
// tree, per the fixed-point requirement.
func Optimize(n ast.Node) ast.Node {
	for {
		next := rewrite(n)
		if equalShape(next, n) {
			return next
		}
		n = next
	}
}

func rewrite(n ast.Node) ast.Node {
	n = rewriteChildren(n)
	n = unfoldDifference(n)
	n = foldRedundant(n)
	n = foldAncestors(n)
	n = internalizeFilters(n)
	n = refoldDifference(n)
	return n
}

func rewriteChildren(n ast.Node) ast.Node {
	switch v := n.(type) {
	case ast.Union:
		return ast.Union{Left: rewrite(v.Left), Right: rewrite(v.Right)}
	case ast.Intersection:
		return ast.Intersection{Left: rewrite(v.Left), Right: rewrite(v.Right)}
	case ast.Difference:
		return ast.Difference{Left: rewrite(v.Left), Right: rewrite(v.Right)}
	case ast.Negation:
		return ast.Negation{X: rewrite(v.X)}
	case ast.Parents:
		return ast.Parents{X: rewrite(v.X)}
	case ast.Children:
		return ast.Children{X: rewrite(v.X)}
	case ast.AncestorsOf:
		return ast.AncestorsOf{X: rewrite(v.X)}
	case ast.DescendantsOf:
		return ast.DescendantsOf{X: rewrite(v.X)}
	case ast.DagRange:
		return ast.DagRange{Roots: rewrite(v.Roots), Heads: rewrite(v.Heads)}
	case ast.Range:
		return ast.Range{Roots: rewrite(v.Roots), Heads: rewrite(v.Heads)}
	case ast.FuncCall:
		args := make([]ast.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = rewrite(a)
		}
		return ast.FuncCall{Name: v.Name, Args: args}
	default:
		return n
	}
}

// Rule 1: unfold difference. x ~ y -> x & ~y; roots..heads ->
// ancestors(heads) & ~ancestors(roots).
func unfoldDifference(n ast.Node) ast.Node {
	switch v := n.(type) {
	case ast.Difference:
		return ast.Intersection{Left: v.Left, Right: ast.Negation{X: v.Right}}
	case ast.Range:
		return ast.Intersection{
			Left:  ast.AncestorsOf{X: v.Heads},
			Right: ast.Negation{X: ast.AncestorsOf{X: v.Roots}},
		}
	}
	return n
}

// Rule 2: fold redundant. ~~x -> x; x & all() -> x; all() & x -> x.
func foldRedundant(n ast.Node) ast.Node {
	switch v := n.(type) {
	case ast.Negation:
		if inner, ok := v.X.(ast.Negation); ok {
			return inner.X
		}
	case ast.Intersection:
		if _, ok := v.Right.(ast.All); ok {
			return v.Left
		}
		if _, ok := v.Left.(ast.All); ok {
			return v.Right
		}
	}
	return n
}

// Rule 3: fold nested ancestors(ancestors(h, g1), g2) -> ancestors(h,
// g1+g2) with saturating addition. Plain AncestorsOf nodes carry no
// explicit generation bound (unbounded == [0, +inf)), so nesting two plain
// AncestorsOf is already idempotent; the interesting case is the
// generation-bounded `ancestors(x, depth)` function form.
func foldAncestors(n ast.Node) ast.Node {
	v, ok := n.(ast.FuncCall)
	if !ok || v.Name != "ancestors" {
		return n
	}
	if len(v.Args) == 0 {
		return n
	}
	inner, ok := v.Args[0].(ast.FuncCall)
	if !ok || inner.Name != "ancestors" {
		return n
	}
	outerGen := generationArg(v.Args)
	innerGen := generationArg(inner.Args)
	if outerGen == nil || innerGen == nil {
		return n
	}
	sum := saturatingAdd(*outerGen, *innerGen)
	if sum == 0 {
		return ast.None{}
	}
	return ast.FuncCall{Name: "ancestors", Args: []ast.Node{inner.Args[0], genNode(sum)}}
}

func generationArg(args []ast.Node) *int {
	if len(args) < 2 {
		d := -1 // unbounded, treated as "no explicit limit" sentinel
		return &d
	}
	if lit, ok := args[1].(ast.StringLiteral); ok {
		n := parseIntSafe(lit.Value)
		return &n
	}
	return nil
}

func genNode(n int) ast.Node { return ast.StringLiteral{Value: itoa(n)} }

func saturatingAdd(a, b int) int {
	if a < 0 || b < 0 {
		return -1
	}
	sum := a + b
	if sum < a {
		return int(^uint(0) >> 1) // overflow: saturate to max int
	}
	return sum
}

func parseIntSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// filterFuncs are node kinds that must be evaluated as predicates over an
// already-materialized set rather than as a standalone reachability walk.
var filterFuncs = map[string]bool{
	"description": true, "author": true, "committer": true,
	"empty": true, "file": true, "merges": true,
}

// isFilter reports whether n is a filter predicate (rather than a set
// expression): one of the named filter functions, or a boolean combination
// of filters.
func isFilter(n ast.Node) bool {
	switch v := n.(type) {
	case ast.FuncCall:
		return filterFuncs[v.Name]
	case ast.Negation:
		return isFilter(v.X)
	case ast.Intersection:
		return isFilter(v.Left) && isFilter(v.Right)
	case ast.Union:
		return isFilter(v.Left) && isFilter(v.Right)
	default:
		return false
	}
}

// Rule 4: internalize filters. A filter on the left of a set is swapped to
// its right (f & c becomes c & f), and (c & f1) & f2 is regrouped as
// c & (f1 & f2), so the evaluator can run filters as a predicate pass over
// a materialized candidate set instead of a reachability walk. A filter is
// not moved past a set operand that follows it: c1 & f1 & c2 & f2 becomes
// ((c1 & f1) & c2) & f2.
func internalizeFilters(n ast.Node) ast.Node {
	v, ok := n.(ast.Intersection)
	if !ok {
		return n
	}
	if isFilter(v.Left) && !isFilter(v.Right) {
		return ast.Intersection{Left: v.Right, Right: v.Left}
	}
	if isFilter(v.Right) {
		// Already in c & f shape, or filter & filter (leave as-is: a pure
		// filter intersection is itself a valid filter, handled by isFilter).
		if setLeft, ok := v.Left.(ast.Intersection); ok && isFilter(setLeft.Right) && !isFilter(setLeft.Left) {
			return ast.Intersection{Left: setLeft.Left, Right: ast.Intersection{Left: setLeft.Right, Right: v.Right}}
		}
	}
	return n
}

// Rule 5: refold difference. After normalization, x & ~y where both are
// plain ancestor expressions becomes roots..heads again, recovering the
// range form the evaluator's walk primitive expects.
func refoldDifference(n ast.Node) ast.Node {
	v, ok := n.(ast.Intersection)
	if !ok {
		return n
	}
	neg, ok := v.Right.(ast.Negation)
	if !ok {
		return n
	}
	heads, ok := v.Left.(ast.AncestorsOf)
	if !ok {
		return n
	}
	roots, ok := neg.X.(ast.AncestorsOf)
	if !ok {
		return n
	}
	return ast.Range{Roots: roots.X, Heads: heads.X}
}

// equalShape is a cheap structural-equality check used to detect the
// rewrite fixed point; it does not need to be a full deep-equal, only
// stable enough that repeated rewriting of an unchanged tree reports equal.
func equalShape(a, b ast.Node) bool {
	return shapeString(a) == shapeString(b)
}

func shapeString(n ast.Node) string {
	if n == nil {
		return ""
	}
	switch v := n.(type) {
	case ast.Symbol:
		return "Symbol(" + v.Name + ")"
	case ast.StringLiteral:
		return "Str(" + v.Value + ")"
	case ast.All:
		return "All"
	case ast.None:
		return "None"
	case ast.Negation:
		return "Neg(" + shapeString(v.X) + ")"
	case ast.Parents:
		return "Parents(" + shapeString(v.X) + ")"
	case ast.Children:
		return "Children(" + shapeString(v.X) + ")"
	case ast.AncestorsOf:
		return "AncestorsOf(" + shapeString(v.X) + ")"
	case ast.DescendantsOf:
		return "DescendantsOf(" + shapeString(v.X) + ")"
	case ast.DagRange:
		return "DagRange(" + shapeString(v.Roots) + "," + shapeString(v.Heads) + ")"
	case ast.Range:
		return "Range(" + shapeString(v.Roots) + "," + shapeString(v.Heads) + ")"
	case ast.Union:
		return "Union(" + shapeString(v.Left) + "," + shapeString(v.Right) + ")"
	case ast.Intersection:
		return "Intersection(" + shapeString(v.Left) + "," + shapeString(v.Right) + ")"
	case ast.Difference:
		return "Difference(" + shapeString(v.Left) + "," + shapeString(v.Right) + ")"
	case ast.Keyword:
		return "Keyword(" + v.Name + "=" + shapeString(v.Value) + ")"
	case ast.FuncCall:
		s := "Call(" + v.Name
		for _, a := range v.Args {
			s += "," + shapeString(a)
		}
		return s + ")"
	default:
		return "?"
	}
}
