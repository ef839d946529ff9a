package optimize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronovc/chronocore/revset/ast"
	"github.com/chronovc/chronocore/revset/parser"
)

func mustParse(t *testing.T, src string) ast.Node {
	t.Helper()
	n, err := parser.Parse(src, nil)
	require.NoError(t, err)
	return n
}

func TestUnfoldDifferenceOnPlainSymbols(t *testing.T) {
	got := Optimize(ast.Difference{Left: ast.Symbol{Name: "a"}, Right: ast.Symbol{Name: "b"}})
	want := ast.Intersection{Left: ast.Symbol{Name: "a"}, Right: ast.Negation{X: ast.Symbol{Name: "b"}}}
	require.Equal(t, want, got)
}

func TestRangeRoundTripsThroughUnfoldAndRefold(t *testing.T) {
	in := ast.Range{Roots: ast.Symbol{Name: "a"}, Heads: ast.Symbol{Name: "b"}}
	got := Optimize(in)
	require.Equal(t, in, got)
}

func TestFoldDoubleNegation(t *testing.T) {
	got := Optimize(ast.Negation{X: ast.Negation{X: ast.Symbol{Name: "a"}}})
	require.Equal(t, ast.Symbol{Name: "a"}, got)
}

func TestFoldIntersectionWithAll(t *testing.T) {
	got := Optimize(ast.Intersection{Left: ast.Symbol{Name: "a"}, Right: ast.All{}})
	require.Equal(t, ast.Symbol{Name: "a"}, got)

	got2 := Optimize(ast.Intersection{Left: ast.All{}, Right: ast.Symbol{Name: "a"}})
	require.Equal(t, ast.Symbol{Name: "a"}, got2)
}

func TestFoldNestedAncestorsGeneration(t *testing.T) {
	inner := ast.FuncCall{Name: "ancestors", Args: []ast.Node{ast.Symbol{Name: "a"}, ast.StringLiteral{Value: "3"}}}
	outer := ast.FuncCall{Name: "ancestors", Args: []ast.Node{inner, ast.StringLiteral{Value: "2"}}}
	got := Optimize(outer)
	want := ast.FuncCall{Name: "ancestors", Args: []ast.Node{ast.Symbol{Name: "a"}, ast.StringLiteral{Value: "5"}}}
	require.Equal(t, want, got)
}

// TestInternalizeFiltersRotatesToTheRight exercises the documented scenario
// author("x") & foo & ~bar, which should settle into (foo & author("x")) &
// ~bar: the non-filter candidate set foo ends up innermost, with the
// author() predicate and the outer negation applied around it.
func TestInternalizeFiltersRotatesToTheRight(t *testing.T) {
	n := mustParse(t, `author("x") & foo & ~bar`)
	got := Optimize(n)

	top, ok := got.(ast.Intersection)
	require.True(t, ok, "expected top-level intersection, got %T", got)
	require.Equal(t, ast.Negation{X: ast.Symbol{Name: "bar"}}, top.Right)

	inner, ok := top.Left.(ast.Intersection)
	require.True(t, ok, "expected inner intersection, got %T", top.Left)
	require.Equal(t, ast.Symbol{Name: "foo"}, inner.Left)

	call, ok := inner.Right.(ast.FuncCall)
	require.True(t, ok)
	require.Equal(t, "author", call.Name)
}

func TestOptimizeIsIdempotent(t *testing.T) {
	n := mustParse(t, `author("x") & foo & ~bar | (baz:qux)`)
	once := Optimize(n)
	twice := Optimize(once)
	require.Equal(t, once, twice)
}
