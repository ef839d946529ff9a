// Package vcserrors defines the typed error kinds surfaced by the parser,
// optimizer, evaluator, index, and rewrite engine. Kinds with no payload
// are plain sentinel errors; kinds that carry data (a symbol, a source
// span, an alias name) are small structs with an IsX predicate, in
// the style of the teacher's modules/zeta/error.go.
package vcserrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds with no payload.
var (
	ErrCannotMergeRootRevision     = errors.New("cannot merge with root revision")
	ErrCannotRebaseOntoDescendant  = errors.New("cannot rebase commit onto descendant")
	ErrConcurrentWorkingCopyOp     = errors.New("concurrent working copy operation")
	ErrNotPostfixOperator          = errors.New("not a postfix operator")
	ErrNotInfixOperator            = errors.New("not an infix operator")
	ErrIndexCorrupt                = errors.New("commit index is corrupt")
)

// NoSuchRevision is reported when a symbol fails to resolve to any
// commit. present(expr) suppresses it into an empty set (P5).
type NoSuchRevision struct {
	Text string
}

func (e *NoSuchRevision) Error() string {
	return fmt.Sprintf("no such revision: '%s'", e.Text)
}

func IsNoSuchRevision(err error) bool {
	var e *NoSuchRevision
	return errors.As(err, &e)
}

// AmbiguousIdPrefix is reported when a hex or change-id prefix matches
// more than one commit.
type AmbiguousIdPrefix struct {
	Text string
}

func (e *AmbiguousIdPrefix) Error() string {
	return fmt.Sprintf("prefix '%s' is ambiguous", e.Text)
}

func IsAmbiguousIdPrefix(err error) bool {
	var e *AmbiguousIdPrefix
	return errors.As(err, &e)
}

// Span is a half-open byte range into the original revset text.
type Span struct {
	Start, End int
}

// Syntax is a grammar-level parse failure with a source span.
type Syntax struct {
	Message string
	Span    Span
}

func (e *Syntax) Error() string {
	return fmt.Sprintf("syntax error at %d..%d: %s", e.Span.Start, e.Span.End, e.Message)
}

func IsSyntax(err error) bool {
	var e *Syntax
	return errors.As(err, &e)
}

// NoSuchFunction is reported for an unknown function name in a funcall.
type NoSuchFunction struct {
	Name string
}

func (e *NoSuchFunction) Error() string {
	return fmt.Sprintf("no such revset function: '%s'", e.Name)
}

func IsNoSuchFunction(err error) bool {
	var e *NoSuchFunction
	return errors.As(err, &e)
}

// InvalidFunctionArguments is reported for an arity or keyword mismatch.
type InvalidFunctionArguments struct {
	Name   string
	Reason string
}

func (e *InvalidFunctionArguments) Error() string {
	return fmt.Sprintf("invalid arguments to '%s': %s", e.Name, e.Reason)
}

func IsInvalidFunctionArguments(err error) bool {
	var e *InvalidFunctionArguments
	return errors.As(err, &e)
}

// RecursiveAlias is reported when alias expansion revisits an alias id
// already active on the expansion stack.
type RecursiveAlias struct {
	Name string
}

func (e *RecursiveAlias) Error() string {
	return fmt.Sprintf("alias '%s' expands recursively", e.Name)
}

func IsRecursiveAlias(err error) bool {
	var e *RecursiveAlias
	return errors.As(err, &e)
}

// BadAliasExpansion wraps a parse error produced while expanding an
// alias's body, tagged with the outer alias name and span.
type BadAliasExpansion struct {
	Name string
	Span Span
	Err  error
}

func (e *BadAliasExpansion) Error() string {
	return fmt.Sprintf("in alias '%s': %s", e.Name, e.Err)
}

func (e *BadAliasExpansion) Unwrap() error { return e.Err }

func IsBadAliasExpansion(err error) bool {
	var e *BadAliasExpansion
	return errors.As(err, &e)
}

// StoreError wraps a failure from the object store. Always fatal to the
// current operation; never recovered locally.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("object store: %s: %s", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func IsStoreError(err error) bool {
	var e *StoreError
	return errors.As(err, &e)
}

// IndexIO wraps a low-level IO failure reading or writing an index
// segment file.
type IndexIO struct {
	Path string
	Err  error
}

func (e *IndexIO) Error() string {
	return fmt.Sprintf("index io: %s: %s", e.Path, e.Err)
}

func (e *IndexIO) Unwrap() error { return e.Err }

func NewIndexIO(path string, err error) error {
	if err == nil {
		return nil
	}
	return &IndexIO{Path: path, Err: err}
}

func IsIndexIO(err error) bool {
	var e *IndexIO
	return errors.As(err, &e)
}
