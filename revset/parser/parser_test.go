package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronovc/chronocore/revset/ast"
	"github.com/chronovc/chronocore/vcserrors"
)

func parse(t *testing.T, src string) ast.Node {
	t.Helper()
	n, err := Parse(src, nil)
	require.NoError(t, err)
	return n
}

func TestParsePrecedenceUnionAndDiff(t *testing.T) {
	n := parse(t, "a | b & c ~ d")
	union, ok := n.(ast.Union)
	require.True(t, ok)
	require.Equal(t, ast.Symbol{Name: "a"}, union.Left)
	diff, ok := union.Right.(ast.Intersection).Right.(ast.Difference)
	require.True(t, ok)
	require.Equal(t, ast.Symbol{Name: "d"}, diff.Right)
}

func TestParseParentsChildren(t *testing.T) {
	n := parse(t, "a-+")
	children, ok := n.(ast.Children)
	require.True(t, ok)
	parents, ok := children.X.(ast.Parents)
	require.True(t, ok)
	require.Equal(t, ast.Symbol{Name: "a"}, parents.X)
}

func TestParsePrefixAncestors(t *testing.T) {
	n := parse(t, ":a")
	require.Equal(t, ast.AncestorsOf{X: ast.Symbol{Name: "a"}}, n)
}

func TestParseDagRangeAndDescendants(t *testing.T) {
	n := parse(t, "a:b")
	require.Equal(t, ast.DagRange{Roots: ast.Symbol{Name: "a"}, Heads: ast.Symbol{Name: "b"}}, n)

	n2 := parse(t, "a:")
	require.Equal(t, ast.DescendantsOf{X: ast.Symbol{Name: "a"}}, n2)
}

func TestParseRange(t *testing.T) {
	n := parse(t, "a..b")
	require.Equal(t, ast.Range{Roots: ast.Symbol{Name: "a"}, Heads: ast.Symbol{Name: "b"}}, n)
}

func TestParseFuncCallWithStringAndKeywordArgs(t *testing.T) {
	n := parse(t, `remote_branches("release", remote="origin")`)
	call, ok := n.(ast.FuncCall)
	require.True(t, ok)
	require.Equal(t, "remote_branches", call.Name)
	require.Len(t, call.Args, 2)
	require.Equal(t, ast.StringLiteral{Value: "release"}, call.Args[0])
	kw, ok := call.Args[1].(ast.Keyword)
	require.True(t, ok)
	require.Equal(t, "remote", kw.Name)
	require.Equal(t, ast.StringLiteral{Value: "origin"}, kw.Value)
}

func TestParseUnknownFunctionIsNoSuchFunction(t *testing.T) {
	_, err := Parse("bogus(a)", nil)
	require.Error(t, err)
	require.True(t, vcserrors.IsNoSuchFunction(err))
}

func TestParseCaretGivesHint(t *testing.T) {
	_, err := Parse("a^", nil)
	require.Error(t, err)
	require.True(t, vcserrors.IsSyntax(err))
}

type mapResolver map[string]AliasDef

func (m mapResolver) Lookup(name string) (AliasDef, bool) {
	def, ok := m[name]
	return def, ok
}

func TestAliasExpansionSimple(t *testing.T) {
	resolver := mapResolver{
		"mine": {Name: "mine", Body: `author("me@example.com")`},
	}
	n, err := Parse("mine", resolver)
	require.NoError(t, err)
	call, ok := n.(ast.FuncCall)
	require.True(t, ok)
	require.Equal(t, "author", call.Name)
}

func TestAliasExpansionWithParametersIsHygienic(t *testing.T) {
	resolver := mapResolver{
		"closest": {Name: "closest", Params: []string{"x"}, Body: "heads(x)"},
	}
	n, err := Parse("closest(a | b)", resolver)
	require.NoError(t, err)
	call, ok := n.(ast.FuncCall)
	require.True(t, ok)
	require.Equal(t, "heads", call.Name)
	require.Len(t, call.Args, 1)
	require.Equal(t, ast.Union{Left: ast.Symbol{Name: "a"}, Right: ast.Symbol{Name: "b"}}, call.Args[0])
}

func TestAliasRecursionIsDetected(t *testing.T) {
	resolver := mapResolver{
		"loop": {Name: "loop", Body: "loop"},
	}
	_, err := Parse("loop", resolver)
	require.Error(t, err)
	require.True(t, vcserrors.IsRecursiveAlias(err))
}

func TestAliasArityMismatch(t *testing.T) {
	resolver := mapResolver{
		"two": {Name: "two", Params: []string{"x", "y"}, Body: "x | y"},
	}
	_, err := Parse("two(a)", resolver)
	require.Error(t, err)
	require.True(t, vcserrors.IsInvalidFunctionArguments(err))
}
