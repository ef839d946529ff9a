package eval

import (
	"fmt"

	"github.com/chronovc/chronocore/index"
	"github.com/chronovc/chronocore/revset/ast"
	"github.com/chronovc/chronocore/revset/optimize"
	"github.com/chronovc/chronocore/vcserrors"
)

// Evaluate optimizes then evaluates n against ctx, returning a Revset
// iterating matching commits in descending index-position order.
func Evaluate(ctx Context, n ast.Node) (Revset, error) {
	return evalNode(ctx, optimize.Optimize(n))
}

func evalNode(ctx Context, n ast.Node) (Revset, error) {
	switch v := n.(type) {
	case ast.All:
		return commitsRevset(visibleSet(ctx)), nil
	case ast.None:
		return commitsRevset(nil), nil
	case ast.Symbol:
		return evalSymbol(ctx, v.Name)
	case ast.StringLiteral:
		return evalSymbol(ctx, v.Value)
	case ast.Negation:
		return evalNegation(ctx, v)
	case ast.Union:
		left, err := evalNode(ctx, v.Left)
		if err != nil {
			return nil, err
		}
		right, err := evalNode(ctx, v.Right)
		if err != nil {
			return nil, err
		}
		return newUnion(left, right), nil
	case ast.Intersection:
		return evalIntersection(ctx, v)
	case ast.Difference:
		left, err := evalNode(ctx, v.Left)
		if err != nil {
			return nil, err
		}
		right, err := evalNode(ctx, v.Right)
		if err != nil {
			return nil, err
		}
		return newDifference(left, right), nil
	case ast.Parents:
		return evalParents(ctx, v.X)
	case ast.Children:
		return evalChildren(ctx, v.X)
	case ast.AncestorsOf:
		heads, err := positionsOf(ctx, v.X)
		if err != nil {
			return nil, err
		}
		return commitsRevset(ctx.Index().WalkRevs(heads, nil).Collect()), nil
	case ast.DescendantsOf:
		return evalDescendantsOf(ctx, v.X)
	case ast.DagRange:
		return evalDagRange(ctx, v)
	case ast.Range:
		roots, err := positionsOf(ctx, v.Roots)
		if err != nil {
			return nil, err
		}
		heads, err := positionsOf(ctx, v.Heads)
		if err != nil {
			return nil, err
		}
		return commitsRevset(ctx.Index().WalkRevs(heads, roots).Collect()), nil
	case ast.FuncCall:
		return evalFuncCall(ctx, v)
	case ast.Keyword:
		return evalNode(ctx, v.Value)
	}
	return nil, fmt.Errorf("revset: unhandled node type %T", n)
}

func positionsOf(ctx Context, n ast.Node) ([]index.IndexPosition, error) {
	rs, err := evalNode(ctx, n)
	if err != nil {
		return nil, err
	}
	return collect(rs)
}

func evalSymbol(ctx Context, name string) (Revset, error) {
	pos, err := ctx.ResolveSymbol(name)
	if err != nil {
		return nil, err
	}
	return commitsRevset([]index.IndexPosition{pos}), nil
}

// evalNegation implements the complement-within-the-visible-set strategy.
func evalNegation(ctx Context, v ast.Negation) (Revset, error) {
	x, err := positionsOf(ctx, v.X)
	if err != nil {
		return nil, err
	}
	excluded := make(map[index.IndexPosition]bool, len(x))
	for _, p := range x {
		excluded[p] = true
	}
	var out []index.IndexPosition
	for _, p := range visibleSet(ctx) {
		if !excluded[p] {
			out = append(out, p)
		}
	}
	return commitsRevset(out), nil
}

// evalIntersection detects the internalized filter shape (c & f) produced
// by the optimizer and runs f as a predicate pass over c instead of
// evaluating it as an independent set.
func evalIntersection(ctx Context, v ast.Intersection) (Revset, error) {
	if pred, ok, err := asPredicate(ctx, v.Right); err != nil {
		return nil, err
	} else if ok {
		candidates, err := evalNode(ctx, v.Left)
		if err != nil {
			return nil, err
		}
		return newFilter(candidates, pred), nil
	}
	left, err := evalNode(ctx, v.Left)
	if err != nil {
		return nil, err
	}
	right, err := evalNode(ctx, v.Right)
	if err != nil {
		return nil, err
	}
	return newIntersection(left, right), nil
}

// asPredicate reports whether n is a filter-shaped node and, if so,
// returns the Predicate it denotes instead of evaluating it as a set.
func asPredicate(ctx Context, n ast.Node) (Predicate, bool, error) {
	switch v := n.(type) {
	case ast.FuncCall:
		switch v.Name {
		case "author":
			s, err := stringArg(v.Args, 0)
			if err != nil {
				return nil, false, err
			}
			return authorPredicate(ctx, s), true, nil
		case "committer":
			s, err := stringArg(v.Args, 0)
			if err != nil {
				return nil, false, err
			}
			return committerPredicate(ctx, s), true, nil
		case "description":
			s, err := stringArg(v.Args, 0)
			if err != nil {
				return nil, false, err
			}
			return descriptionPredicate(ctx, s), true, nil
		case "merges":
			return mergesPredicate(ctx), true, nil
		case "empty":
			return emptyPredicate(ctx), true, nil
		case "file":
			patterns, err := stringArgs(v.Args)
			if err != nil {
				return nil, false, err
			}
			return filePredicate(ctx, patterns), true, nil
		}
	case ast.Negation:
		inner, ok, err := asPredicate(ctx, v.X)
		if err != nil || !ok {
			return nil, false, err
		}
		return func(pos index.IndexPosition) (bool, error) {
			keep, err := inner(pos)
			return !keep, err
		}, true, nil
	case ast.Intersection:
		lp, lok, err := asPredicate(ctx, v.Left)
		if err != nil {
			return nil, false, err
		}
		rp, rok, err := asPredicate(ctx, v.Right)
		if err != nil {
			return nil, false, err
		}
		if lok && rok {
			return func(pos index.IndexPosition) (bool, error) {
				a, err := lp(pos)
				if err != nil || !a {
					return false, err
				}
				return rp(pos)
			}, true, nil
		}
	}
	return nil, false, nil
}

func evalParents(ctx Context, x ast.Node) (Revset, error) {
	xs, err := positionsOf(ctx, x)
	if err != nil {
		return nil, err
	}
	var out []index.IndexPosition
	for _, p := range xs {
		e, ok := ctx.Index().EntryByPos(p)
		if !ok {
			continue
		}
		out = append(out, ctx.Index().ParentPositions(e)...)
	}
	return commitsRevset(out), nil
}

// evalChildren finds, within the visible set, every entry with a parent
// in x.
func evalChildren(ctx Context, x ast.Node) (Revset, error) {
	xs, err := positionsOf(ctx, x)
	if err != nil {
		return nil, err
	}
	xset := make(map[index.IndexPosition]bool, len(xs))
	for _, p := range xs {
		xset[p] = true
	}
	var out []index.IndexPosition
	for _, p := range visibleSet(ctx) {
		e, ok := ctx.Index().EntryByPos(p)
		if !ok {
			continue
		}
		for _, pp := range ctx.Index().ParentPositions(e) {
			if xset[pp] {
				out = append(out, p)
				break
			}
		}
	}
	return commitsRevset(out), nil
}

func evalDescendantsOf(ctx Context, x ast.Node) (Revset, error) {
	roots, err := positionsOf(ctx, x)
	if err != nil {
		return nil, err
	}
	rootSet := make(map[index.IndexPosition]bool, len(roots))
	minGen := ^uint32(0)
	for _, r := range roots {
		rootSet[r] = true
		if g, ok := ctx.Index().EntryByPos(r); ok && g.Generation < minGen {
			minGen = g.Generation
		}
	}
	var out []index.IndexPosition
	walker := ctx.Index().WalkRevs(ctx.VisibleHeads(), nil)
	included := make(map[index.IndexPosition]bool)
	for {
		p, ok := walker.Next()
		if !ok {
			break
		}
		g, ok := ctx.Index().EntryByPos(p)
		if !ok || g.Generation < minGen {
			continue
		}
		included[p] = true
	}
	for p := range included {
		if rootSet[p] {
			out = append(out, p)
			continue
		}
		for _, r := range roots {
			if ctx.Index().IsAncestor(r, p) {
				out = append(out, p)
				break
			}
		}
	}
	return commitsRevset(out), nil
}

// evalDagRange implements the DagRange(roots, heads) forward-reachability
// scan: walk ancestors of heads; include an entry iff it is in roots or
// any of its parents was included. Per invariant I1 a parent always has a
// strictly lower position than its child, so the inclusion pass must run
// in ascending position order (parents before children) for "any of its
// parents was included" to ever see a populated included set; the walk
// itself still yields descending, so that pass runs over a reversed copy
// and the final result is re-filtered back into descending order.
func evalDagRange(ctx Context, v ast.DagRange) (Revset, error) {
	roots, err := positionsOf(ctx, v.Roots)
	if err != nil {
		return nil, err
	}
	heads, err := positionsOf(ctx, v.Heads)
	if err != nil {
		return nil, err
	}
	rootSet := make(map[index.IndexPosition]bool, len(roots))
	for _, r := range roots {
		rootSet[r] = true
	}

	ancestors := ctx.Index().WalkRevs(heads, nil).Collect() // descending
	included := make(map[index.IndexPosition]bool)
	for i := len(ancestors) - 1; i >= 0; i-- {
		p := ancestors[i]
		isIncluded := rootSet[p]
		if !isIncluded {
			if g, ok := ctx.Index().EntryByPos(p); ok {
				for _, pp := range ctx.Index().ParentPositions(g) {
					if included[pp] {
						isIncluded = true
						break
					}
				}
			}
		}
		if isIncluded {
			included[p] = true
		}
	}

	var out []index.IndexPosition
	for _, p := range ancestors {
		if included[p] {
			out = append(out, p)
		}
	}
	return commitsRevset(out), nil
}

func stringArg(args []ast.Node, i int) (string, error) {
	if i >= len(args) {
		return "", &vcserrors.InvalidFunctionArguments{Reason: "missing argument"}
	}
	lit, ok := args[i].(ast.StringLiteral)
	if !ok {
		if sym, ok := args[i].(ast.Symbol); ok {
			return sym.Name, nil
		}
		return "", &vcserrors.InvalidFunctionArguments{Reason: "expected a string literal"}
	}
	return lit.Value, nil
}

func stringArgs(args []ast.Node) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := range args {
		s, err := stringArg(args, i)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
