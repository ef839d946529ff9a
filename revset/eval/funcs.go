package eval

import (
	"github.com/chronovc/chronocore/index"
	"github.com/chronovc/chronocore/revset/ast"
	"github.com/chronovc/chronocore/vcserrors"
)

func evalFuncCall(ctx Context, v ast.FuncCall) (Revset, error) {
	switch v.Name {
	case "all":
		return commitsRevset(visibleSet(ctx)), nil
	case "none":
		return commitsRevset(nil), nil
	case "parents":
		return evalParents(ctx, arg(v.Args, 0))
	case "children":
		return evalChildren(ctx, arg(v.Args, 0))
	case "ancestors":
		heads, err := positionsOf(ctx, arg(v.Args, 0))
		if err != nil {
			return nil, err
		}
		lo, hi, ok := generationRange(v.Args)
		if !ok {
			return commitsRevset(ctx.Index().WalkRevs(heads, nil).Collect()), nil
		}
		return commitsRevset(ctx.Index().FilterByGeneration(heads, nil, lo, hi)), nil
	case "descendants":
		return evalDescendantsOf(ctx, arg(v.Args, 0))
	case "connected":
		x := arg(v.Args, 0)
		return evalDagRange(ctx, ast.DagRange{Roots: x, Heads: x})
	case "heads":
		var xs []index.IndexPosition
		var err error
		if len(v.Args) == 0 {
			xs = ctx.VisibleHeads()
		} else {
			xs, err = positionsOf(ctx, v.Args[0])
			if err != nil {
				return nil, err
			}
		}
		return commitsRevset(ctx.Index().Heads(xs)), nil
	case "roots":
		xs, err := positionsOf(ctx, arg(v.Args, 0))
		if err != nil {
			return nil, err
		}
		return commitsRevset(rootsOf(ctx, xs)), nil
	case "visible_heads":
		return commitsRevset(ctx.VisibleHeads()), nil
	case "public_heads":
		return commitsRevset(ctx.PublicHeads()), nil
	case "branches":
		pattern, _ := optionalStringArg(v.Args, 0)
		return commitsRevset(ctx.Branches(pattern)), nil
	case "remote_branches":
		pattern, _ := optionalStringArg(v.Args, 0)
		remote := ""
		for _, a := range v.Args {
			if kw, ok := a.(ast.Keyword); ok && kw.Name == "remote" {
				if lit, ok := kw.Value.(ast.StringLiteral); ok {
					remote = lit.Value
				}
			}
		}
		return commitsRevset(ctx.RemoteBranches(pattern, remote)), nil
	case "tags":
		pattern, _ := optionalStringArg(v.Args, 0)
		return commitsRevset(ctx.Tags(pattern)), nil
	case "git_refs":
		return commitsRevset(ctx.GitRefs()), nil
	case "git_head":
		if pos, ok := ctx.GitHead(); ok {
			return commitsRevset([]index.IndexPosition{pos}), nil
		}
		return commitsRevset(nil), nil
	case "present":
		rs, err := evalNode(ctx, arg(v.Args, 0))
		if vcserrors.IsNoSuchRevision(err) {
			return commitsRevset(nil), nil
		}
		if err != nil {
			return nil, err
		}
		return rs, nil
	case "latest":
		if len(v.Args) < 2 {
			return nil, &vcserrors.InvalidFunctionArguments{Name: "latest", Reason: "expected (revset, n)"}
		}
		n, ok := intArg(v.Args[1])
		if !ok {
			return nil, &vcserrors.InvalidFunctionArguments{Name: "latest", Reason: "second argument must be an integer"}
		}
		xs, err := positionsOf(ctx, v.Args[0])
		if err != nil {
			return nil, err
		}
		return evalLatest(ctx, xs, n)
	case "author", "committer", "description", "merges", "empty", "file":
		pred, ok, err := asPredicate(ctx, v)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &vcserrors.InvalidFunctionArguments{Name: v.Name, Reason: "invalid arguments"}
		}
		return newFilter(commitsRevset(visibleSet(ctx)), pred), nil
	}
	return nil, &vcserrors.NoSuchFunction{Name: v.Name}
}

func arg(args []ast.Node, i int) ast.Node {
	if i >= len(args) {
		return ast.None{}
	}
	return args[i]
}

func optionalStringArg(args []ast.Node, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	s, err := stringArg(args, i)
	if err != nil {
		return "", false
	}
	return s, true
}

func intArg(n ast.Node) (int, bool) {
	var text string
	switch v := n.(type) {
	case ast.StringLiteral:
		text = v.Value
	case ast.Symbol:
		text = v.Name
	default:
		return 0, false
	}
	if text == "" {
		return 0, false
	}
	val := 0
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
		val = val*10 + int(r-'0')
	}
	return val, true
}

// generationRange extracts an optional second "lo..hi" argument for
// ancestors(x, lo..hi); absent means unbounded.
func generationRange(args []ast.Node) (lo, hi int, ok bool) {
	if len(args) < 2 {
		return 0, 0, false
	}
	rng, ok := args[1].(ast.Range)
	if !ok {
		return 0, 0, false
	}
	l, lok := intArg(rng.Roots)
	h, hok := intArg(rng.Heads)
	if !lok || !hok {
		return 0, 0, false
	}
	return l, h, true
}

func rootsOf(ctx Context, xs []index.IndexPosition) []index.IndexPosition {
	var out []index.IndexPosition
	for _, c := range xs {
		hasAncestorInSet := false
		for _, other := range xs {
			if other == c {
				continue
			}
			if ctx.Index().IsAncestor(other, c) {
				hasAncestorInSet = true
				break
			}
		}
		if !hasAncestorInSet {
			out = append(out, c)
		}
	}
	return out
}

// evalLatest loads every candidate in xs, ranks them by committer
// timestamp, tie-broken by descending position, and keeps the first n.
type scoredEntry struct {
	pos index.IndexPosition
	ts  int64
}

func (a scoredEntry) less(b scoredEntry) bool {
	if a.ts != b.ts {
		return a.ts > b.ts
	}
	return a.pos > b.pos
}

func evalLatest(ctx Context, xs []index.IndexPosition, n int) (Revset, error) {
	kept := make([]scoredEntry, 0, len(xs))
	for _, p := range xs {
		c, err := ctx.Commit(p)
		if err != nil {
			return nil, err
		}
		kept = append(kept, scoredEntry{pos: p, ts: c.Committer.When.Unix()})
	}
	// Insertion sort of every candidate by (ts, pos) descending.
	for i := 1; i < len(kept); i++ {
		for j := i; j > 0 && kept[j].less(kept[j-1]); j-- {
			kept[j], kept[j-1] = kept[j-1], kept[j]
		}
	}
	if n < len(kept) {
		kept = kept[:n]
	}
	out := make([]index.IndexPosition, len(kept))
	for i, s := range kept {
		out[i] = s.pos
	}
	return commitsRevset(out), nil
}
