package rewrite

import (
	"context"
	"sort"

	"github.com/chronovc/chronocore/objstore"
)

// mergeParentTrees folds a list of parent trees into the single "merge(P)"
// tree spec.md §4.7 calls out for rebasing onto more than one new parent:
// the first parent is the pivot and later parents are merged into it one
// at a time against an empty base (there is no natural common ancestor
// between sibling parents), so paths present on only one side are kept,
// identical paths merge, and a path both sides hold with different
// values becomes an add/add conflict.
func mergeParentTrees(ctx context.Context, store objstore.Store, parents []*objstore.Tree) (*objstore.Tree, error) {
	if len(parents) == 0 {
		return objstore.EmptyTree, nil
	}
	acc := parents[0]
	for _, p := range parents[1:] {
		merged, err := threeWayMergeTree(ctx, store, objstore.EmptyTree, acc, p)
		if err != nil {
			return nil, err
		}
		acc = merged
	}
	return acc, nil
}

// threeWayMergeTree merges left and right against base, per path: unchanged
// sides take the other side's value, both-changed-to-the-same-value takes
// that value, both-changed-differently records a Conflict, and directory
// entries recurse before falling back to a conflict at that path.
func threeWayMergeTree(ctx context.Context, store objstore.Store, base, left, right *objstore.Tree) (*objstore.Tree, error) {
	names := unionNames(base, left, right)
	out := objstore.EmptyTree
	for _, name := range names {
		bv, bok := base.Find(name)
		lv, lok := left.Find(name)
		rv, rok := right.Find(name)

		merged, present, err := mergeValue(ctx, store, bv, bok, lv, lok, rv, rok)
		if err != nil {
			return nil, err
		}
		if present {
			out = out.WithEntry(name, merged)
		}
	}
	return out, nil
}

func mergeValue(ctx context.Context, store objstore.Store, base objstore.TreeValue, baseOK bool, left objstore.TreeValue, leftOK bool, right objstore.TreeValue, rightOK bool) (objstore.TreeValue, bool, error) {
	sameOrAbsent := func(a objstore.TreeValue, aok bool, b objstore.TreeValue, bok bool) bool {
		return aok == bok && (!aok || valuesEqual(a, b))
	}

	if sameOrAbsent(left, leftOK, right, rightOK) {
		return left, leftOK, nil
	}
	if sameOrAbsent(left, leftOK, base, baseOK) {
		// left didn't change from base; take right.
		return right, rightOK, nil
	}
	if sameOrAbsent(right, rightOK, base, baseOK) {
		// right didn't change from base; take left.
		return left, leftOK, nil
	}

	// Both sides changed, and not to the same value. If both sides are
	// still directories, recurse: most of a conflict's paths usually live
	// deeper than the directory that contains them.
	if baseOK && leftOK && rightOK && base.Kind == objstore.KindTree && left.Kind == objstore.KindTree && right.Kind == objstore.KindTree {
		bt, err := store.GetTree(ctx, base.ID)
		if err != nil {
			return objstore.TreeValue{}, false, err
		}
		lt, err := store.GetTree(ctx, left.ID)
		if err != nil {
			return objstore.TreeValue{}, false, err
		}
		rt, err := store.GetTree(ctx, right.ID)
		if err != nil {
			return objstore.TreeValue{}, false, err
		}
		merged, err := threeWayMergeTree(ctx, store, bt, lt, rt)
		if err != nil {
			return objstore.TreeValue{}, false, err
		}
		mergedID, err := store.WriteTree(ctx, merged)
		if err != nil {
			return objstore.TreeValue{}, false, err
		}
		return objstore.TreeValue{Kind: objstore.KindTree, ID: mergedID}, true, nil
	}

	return conflictValue(base, baseOK, left, leftOK, right, rightOK), true, nil
}

// conflictValue builds the structured Conflict representation: adds at
// even indices, the base remove at the odd index, per objstore.TreeValue's
// doc comment. An add/add conflict with no base present (both sides
// introduced the same-named path fresh) omits the remove side.
func conflictValue(base objstore.TreeValue, baseOK bool, left objstore.TreeValue, leftOK bool, right objstore.TreeValue, rightOK bool) objstore.TreeValue {
	var ids []objstore.Hash
	if leftOK {
		ids = append(ids, left.ID)
	}
	if baseOK {
		ids = append(ids, base.ID)
	}
	if rightOK {
		ids = append(ids, right.ID)
	}
	return objstore.TreeValue{Kind: objstore.KindConflict, Conflict: ids}
}

func valuesEqual(a, b objstore.TreeValue) bool {
	return a.Kind == b.Kind && a.ID == b.ID && a.Executable == b.Executable
}

func unionNames(trees ...*objstore.Tree) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range trees {
		for _, e := range t.Entries {
			if !seen[e.Name] {
				seen[e.Name] = true
				out = append(out, e.Name)
			}
		}
	}
	sort.Strings(out)
	return out
}
