package eval

import (
	"context"
	"strings"

	"github.com/chronovc/chronocore/index"
	"github.com/chronovc/chronocore/objstore"
	"github.com/chronovc/chronocore/revset/internal/wildmatch"
)

// authorPredicate, committerPredicate, descriptionPredicate implement
// substring-by-default, case-sensitive string matching against commit
// metadata, per the base contract's matching rule (no regex).
func authorPredicate(ctx Context, needle string) Predicate {
	return func(pos index.IndexPosition) (bool, error) {
		c, err := ctx.Commit(pos)
		if err != nil {
			return false, err
		}
		return strings.Contains(c.Author.Name, needle) || strings.Contains(c.Author.Email, needle), nil
	}
}

func committerPredicate(ctx Context, needle string) Predicate {
	return func(pos index.IndexPosition) (bool, error) {
		c, err := ctx.Commit(pos)
		if err != nil {
			return false, err
		}
		return strings.Contains(c.Committer.Name, needle) || strings.Contains(c.Committer.Email, needle), nil
	}
}

func descriptionPredicate(ctx Context, needle string) Predicate {
	return func(pos index.IndexPosition) (bool, error) {
		c, err := ctx.Commit(pos)
		if err != nil {
			return false, err
		}
		return strings.Contains(c.Description, needle), nil
	}
}

// mergesPredicate matches exactly commits with >= 2 parents.
func mergesPredicate(ctx Context) Predicate {
	return func(pos index.IndexPosition) (bool, error) {
		e, ok := ctx.Index().EntryByPos(pos)
		if !ok {
			return false, nil
		}
		return e.NumParents >= 2, nil
	}
}

// emptyPredicate matches commits whose tree is identical to their first
// parent's tree (no file changes), equivalent to ~file(*).
func emptyPredicate(ctx Context) Predicate {
	return func(pos index.IndexPosition) (bool, error) {
		e, ok := ctx.Index().EntryByPos(pos)
		if !ok {
			return false, nil
		}
		c, err := ctx.Commit(pos)
		if err != nil {
			return false, err
		}
		if e.NumParents == 0 {
			emptyID, err := objstore.EmptyTree.CanonicalID()
			if err != nil {
				return false, err
			}
			return c.Tree == emptyID, nil
		}
		parents := ctx.Index().ParentPositions(e)
		pc, err := ctx.Commit(parents[0])
		if err != nil {
			return false, err
		}
		return c.Tree == pc.Tree, nil
	}
}

// filePredicate matches commits that touch any path (relative to the
// first parent) matching one of patterns: a first-parent tree diff
// grounded on the teacher's tree-walk primitives (modules/zeta/object),
// generalized to arbitrary glob patterns via the wildmatch port.
func filePredicate(ctx Context, patterns []string) Predicate {
	return func(pos index.IndexPosition) (bool, error) {
		changed, err := changedPaths(ctx, pos)
		if err != nil {
			return false, err
		}
		for _, p := range changed {
			for _, pat := range patterns {
				if wildmatch.Match(pat, p) {
					return true, nil
				}
			}
		}
		return false, nil
	}
}

// changedPaths returns every file path whose blob id differs between pos
// and its first parent (or every path, for a root commit).
func changedPaths(ctx Context, pos index.IndexPosition) ([]string, error) {
	c, err := ctx.Commit(pos)
	if err != nil {
		return nil, err
	}
	after, err := flattenTree(ctx, c.Tree, "")
	if err != nil {
		return nil, err
	}

	e, ok := ctx.Index().EntryByPos(pos)
	if !ok || e.NumParents == 0 {
		out := make([]string, 0, len(after))
		for p := range after {
			out = append(out, p)
		}
		return out, nil
	}
	parents := ctx.Index().ParentPositions(e)
	pc, err := ctx.Commit(parents[0])
	if err != nil {
		return nil, err
	}
	before, err := flattenTree(ctx, pc.Tree, "")
	if err != nil {
		return nil, err
	}

	var out []string
	for p, id := range after {
		if before[p] != id {
			out = append(out, p)
		}
	}
	for p := range before {
		if _, ok := after[p]; !ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func flattenTree(ctx Context, id objstore.Hash, prefix string) (map[string]objstore.Hash, error) {
	out := make(map[string]objstore.Hash)
	t, err := ctx.Store().GetTree(context.Background(), id)
	if err != nil {
		return nil, err
	}
	for _, entry := range t.Entries {
		path := entry.Name
		if prefix != "" {
			path = prefix + "/" + entry.Name
		}
		switch entry.Value.Kind {
		case objstore.KindTree:
			sub, err := flattenTree(ctx, entry.Value.ID, path)
			if err != nil {
				return nil, err
			}
			for k, v := range sub {
				out[k] = v
			}
		default:
			out[path] = entry.Value.ID
		}
	}
	return out, nil
}
