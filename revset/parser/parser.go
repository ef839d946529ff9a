// Package parser turns revset surface syntax into an ast.Node tree and
// expands aliases, detecting recursive alias expansion and substituting
// formal parameters hygienically (parameters shadow outer aliases; string
// literals are never substituted).
package parser

import (
	"fmt"

	"github.com/chronovc/chronocore/revset/ast"
	"github.com/chronovc/chronocore/vcserrors"
)

// AliasDef is a named substitution, optionally parameterized, e.g.
// `mine = author("me@example.com")` or `tips(x) = heads(x:)`.
type AliasDef struct {
	Name   string
	Params []string
	Body   string
}

// AliasResolver looks up an alias definition by name.
type AliasResolver interface {
	Lookup(name string) (AliasDef, bool)
}

type parser struct {
	toks    []token
	pos     int
	aliases AliasResolver
	// expanding tracks the alias names currently being expanded, to detect
	// recursive expansion; bound is the set of formal-parameter names in
	// scope, which shadow alias lookups of the same bare name.
	expanding map[string]bool
	bound     map[string]ast.Node
}

// Parse parses a complete revset expression, expanding any aliases known to
// resolver (pass nil for no aliases).
func Parse(src string, resolver AliasResolver) (ast.Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, aliases: resolver, expanding: map[string]bool{}, bound: map[string]ast.Node{}}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, &vcserrors.Syntax{
			Message: fmt.Sprintf("unexpected trailing input %q", p.cur().text),
			Span:    vcserrors.Span{Start: p.cur().start, End: p.cur().end},
		}
	}
	return n, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance()    { p.pos++ }
func (p *parser) at(k tokenKind) bool { return p.cur().kind == k }

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if !p.at(k) {
		return token{}, &vcserrors.Syntax{
			Message: "expected " + what,
			Span:    vcserrors.Span{Start: p.cur().start, End: p.cur().end},
		}
	}
	t := p.cur()
	p.advance()
	return t, nil
}

// expr := or_expr
func (p *parser) parseExpr() (ast.Node, error) { return p.parseOr() }

func (p *parser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(tokPipe) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Union{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Node, error) {
	left, err := p.parseDiff()
	if err != nil {
		return nil, err
	}
	for p.at(tokAmp) {
		p.advance()
		right, err := p.parseDiff()
		if err != nil {
			return nil, err
		}
		left = ast.Intersection{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseDiff() (ast.Node, error) {
	left, err := p.parseNeg()
	if err != nil {
		return nil, err
	}
	for p.at(tokTilde) {
		p.advance()
		right, err := p.parseNeg()
		if err != nil {
			return nil, err
		}
		left = ast.Difference{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNeg() (ast.Node, error) {
	if p.at(tokTilde) {
		p.advance()
		x, err := p.parseNeg()
		if err != nil {
			return nil, err
		}
		return ast.Negation{X: x}, nil
	}
	return p.parseRange()
}

func (p *parser) parseRange() (ast.Node, error) {
	// Prefix ':' / '..' : ancestors of following unary.
	if p.at(tokColon) || p.at(tokDotDot) {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.AncestorsOf{X: x}, nil
	}

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	if p.at(tokColon) {
		p.advance()
		if p.isUnaryStart() {
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return ast.DagRange{Roots: left, Heads: right}, nil
		}
		return ast.DescendantsOf{X: left}, nil
	}
	if p.at(tokDotDot) {
		p.advance()
		if p.isUnaryStart() {
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return ast.Range{Roots: left, Heads: right}, nil
		}
		return ast.DescendantsOf{X: left}, nil
	}
	return left, nil
}

func (p *parser) isUnaryStart() bool {
	switch p.cur().kind {
	case tokIdent, tokString, tokLParen:
		return true
	default:
		return false
	}
}

func (p *parser) parseUnary() (ast.Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().kind {
		case tokMinus:
			p.advance()
			x = ast.Parents{X: x}
		case tokPlus:
			p.advance()
			x = ast.Children{X: x}
		case tokCaret:
			return nil, &vcserrors.Syntax{
				Message: "'^' is not a revset operator here; did you mean 'x-' for parents?",
				Span:    vcserrors.Span{Start: p.cur().start, End: p.cur().end},
			}
		default:
			return x, nil
		}
	}
}

func (p *parser) parsePrimary() (ast.Node, error) {
	switch p.cur().kind {
	case tokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokString:
		t := p.cur()
		p.advance()
		return ast.StringLiteral{Value: t.text}, nil
	case tokIdent:
		return p.parseIdentOrCall()
	}
	return nil, &vcserrors.Syntax{
		Message: "expected an expression",
		Span:    vcserrors.Span{Start: p.cur().start, End: p.cur().end},
	}
}

func (p *parser) parseIdentOrCall() (ast.Node, error) {
	name := p.cur().text
	start := p.cur().start
	p.advance()

	if !p.at(tokLParen) {
		return p.resolveSymbolOrAlias(name, start)
	}

	p.advance() // consume '('
	var args []ast.Node
	if !p.at(tokRParen) {
		for {
			arg, err := p.parseArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.at(tokComma) {
				p.advance()
				if p.at(tokRParen) {
					break
				}
				continue
			}
			break
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return p.resolveCallOrAlias(name, args, start)
}

func (p *parser) parseArg() (ast.Node, error) {
	if p.at(tokIdent) && p.peekIsEquals() {
		name := p.cur().text
		p.advance()
		p.advance() // '='
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.Keyword{Name: name, Value: val}, nil
	}
	return p.parseExpr()
}

func (p *parser) peekIsEquals() bool {
	return p.pos+1 < len(p.toks) && p.toks[p.pos+1].kind == tokEquals
}

// builtinFuncs is the set of recognized built-in function names; anything
// else that looks like a call is either a user alias or NoSuchFunction.
var builtinFuncs = map[string]bool{
	"all": true, "none": true, "parents": true, "children": true,
	"ancestors": true, "descendants": true, "connected": true, "heads": true,
	"roots": true, "visible_heads": true, "public_heads": true,
	"branches": true, "remote_branches": true, "tags": true, "git_refs": true,
	"git_head": true, "merges": true, "description": true, "author": true,
	"committer": true, "empty": true, "file": true, "present": true,
	"latest": true,
}

func (p *parser) resolveCallOrAlias(name string, args []ast.Node, start int) (ast.Node, error) {
	if bound, ok := p.bound[name]; ok && len(args) == 0 {
		return bound, nil
	}
	if builtinFuncs[name] {
		return ast.FuncCall{Name: name, Args: args}, nil
	}
	if p.aliases != nil {
		if def, ok := p.aliases.Lookup(name); ok {
			return p.expandAlias(def, args, start)
		}
	}
	return nil, &vcserrors.NoSuchFunction{Name: name}
}

func (p *parser) resolveSymbolOrAlias(name string, start int) (ast.Node, error) {
	if bound, ok := p.bound[name]; ok {
		return bound, nil
	}
	if name == "all" {
		return ast.All{}, nil
	}
	if name == "none" {
		return ast.None{}, nil
	}
	if p.aliases != nil {
		if def, ok := p.aliases.Lookup(name); ok && len(def.Params) == 0 {
			return p.expandAlias(def, nil, start)
		}
	}
	return ast.Symbol{Name: name}, nil
}

func (p *parser) expandAlias(def AliasDef, args []ast.Node, start int) (ast.Node, error) {
	if p.expanding[def.Name] {
		return nil, &vcserrors.RecursiveAlias{Name: def.Name}
	}
	if len(args) != len(def.Params) {
		return nil, &vcserrors.InvalidFunctionArguments{
			Name:   def.Name,
			Reason: fmt.Sprintf("expected %d argument(s), got %d", len(def.Params), len(args)),
		}
	}

	toks, err := lex(def.Body)
	if err != nil {
		return nil, &vcserrors.BadAliasExpansion{Name: def.Name, Span: vcserrors.Span{Start: start, End: start}, Err: err}
	}

	childBound := map[string]ast.Node{}
	for k, v := range p.bound {
		childBound[k] = v // outer bindings stay visible unless shadowed below
	}
	for i, param := range def.Params {
		childBound[param] = args[i]
	}

	childExpanding := map[string]bool{}
	for k, v := range p.expanding {
		childExpanding[k] = v
	}
	childExpanding[def.Name] = true

	child := &parser{toks: toks, aliases: p.aliases, expanding: childExpanding, bound: childBound}
	n, err := child.parseExpr()
	if err != nil {
		if vcserrors.IsSyntax(err) {
			return nil, &vcserrors.BadAliasExpansion{Name: def.Name, Span: vcserrors.Span{Start: start, End: start}, Err: err}
		}
		return nil, err
	}
	if child.cur().kind != tokEOF {
		return nil, &vcserrors.BadAliasExpansion{
			Name: def.Name,
			Span: vcserrors.Span{Start: start, End: start},
			Err:  fmt.Errorf("trailing input in alias body"),
		}
	}
	return n, nil
}
