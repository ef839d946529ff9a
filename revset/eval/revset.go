package eval

import (
	"sort"

	"github.com/chronovc/chronocore/index"
)

// Revset is a lazy iterator of index positions in descending order, the
// common currency every node strategy in this package produces and
// consumes. A non-nil error is terminal: callers must stop iterating and
// propagate it rather than treat it as end-of-stream, since it signals an
// object load that failed underneath the iterator (a StoreError or
// IndexCorrupt), not an empty result.
type Revset interface {
	Next() (pos index.IndexPosition, ok bool, err error)
}

// Predicate is invoked once per position in a descending-position stream;
// implementations may keep mutable state that assumes monotonically
// non-increasing positions, per the predicate contract.
type Predicate func(pos index.IndexPosition) (bool, error)

// ToPredicateFn adapts a materialized Revset into a Predicate: true iff
// pos was present in the set when the predicate was built. An error
// encountered while materializing is remembered and returned from every
// call to the resulting Predicate, rather than silently truncating the
// set.
func ToPredicateFn(rs Revset) Predicate {
	set := make(map[index.IndexPosition]bool)
	var materializeErr error
	for {
		p, ok, err := rs.Next()
		if err != nil {
			materializeErr = err
			break
		}
		if !ok {
			break
		}
		set[p] = true
	}
	return func(pos index.IndexPosition) (bool, error) {
		if materializeErr != nil {
			return false, materializeErr
		}
		return set[pos], nil
	}
}

// sliceRevset streams a pre-sorted, deduplicated, descending slice.
type sliceRevset struct {
	positions []index.IndexPosition
	i         int
}

func (s *sliceRevset) Next() (index.IndexPosition, bool, error) {
	if s.i >= len(s.positions) {
		return 0, false, nil
	}
	p := s.positions[s.i]
	s.i++
	return p, true, nil
}

// commitsRevset sorts positions descending, dedups, and yields in order,
// per the Commits(ids[]) node strategy.
func commitsRevset(positions []index.IndexPosition) Revset {
	return &sliceRevset{positions: sortDescendingDedup(positions)}
}

func sortDescendingDedup(positions []index.IndexPosition) []index.IndexPosition {
	cp := append([]index.IndexPosition{}, positions...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] > cp[j] })
	out := cp[:0]
	var last index.IndexPosition
	hasLast := false
	for _, p := range cp {
		if hasLast && p == last {
			continue
		}
		out = append(out, p)
		last, hasLast = p, true
	}
	return out
}

func collect(rs Revset) ([]index.IndexPosition, error) {
	var out []index.IndexPosition
	for {
		p, ok, err := rs.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, p)
	}
}

// unionRevset merges two descending streams, deduping at equal position.
type unionRevset struct {
	a, b     Revset
	av, bv   index.IndexPosition
	aok, bok bool
	started  bool
	err      error
}

func newUnion(a, b Revset) Revset { return &unionRevset{a: a, b: b} }

func (u *unionRevset) prime() error {
	if u.started {
		return nil
	}
	var err error
	u.av, u.aok, err = u.a.Next()
	if err != nil {
		return err
	}
	u.bv, u.bok, err = u.b.Next()
	if err != nil {
		return err
	}
	u.started = true
	return nil
}

func (u *unionRevset) Next() (index.IndexPosition, bool, error) {
	if u.err != nil {
		return 0, false, u.err
	}
	if err := u.prime(); err != nil {
		u.err = err
		return 0, false, err
	}
	var v index.IndexPosition
	var err error
	switch {
	case !u.aok && !u.bok:
		return 0, false, nil
	case !u.aok:
		v = u.bv
		u.bv, u.bok, err = u.b.Next()
	case !u.bok:
		v = u.av
		u.av, u.aok, err = u.a.Next()
	case u.av == u.bv:
		v = u.av
		u.av, u.aok, err = u.a.Next()
		if err == nil {
			u.bv, u.bok, err = u.b.Next()
		}
	case u.av > u.bv:
		v = u.av
		u.av, u.aok, err = u.a.Next()
	default:
		v = u.bv
		u.bv, u.bok, err = u.b.Next()
	}
	if err != nil {
		u.err = err
		return 0, false, err
	}
	return v, true, nil
}

// intersectionRevset advances whichever side has the higher position,
// emitting only on equal.
type intersectionRevset struct {
	a, b     Revset
	av, bv   index.IndexPosition
	aok, bok bool
	started  bool
	err      error
}

func newIntersection(a, b Revset) Revset { return &intersectionRevset{a: a, b: b} }

func (x *intersectionRevset) prime() error {
	if x.started {
		return nil
	}
	var err error
	x.av, x.aok, err = x.a.Next()
	if err != nil {
		return err
	}
	x.bv, x.bok, err = x.b.Next()
	if err != nil {
		return err
	}
	x.started = true
	return nil
}

func (x *intersectionRevset) Next() (index.IndexPosition, bool, error) {
	if x.err != nil {
		return 0, false, x.err
	}
	if err := x.prime(); err != nil {
		x.err = err
		return 0, false, err
	}
	for x.aok && x.bok {
		switch {
		case x.av == x.bv:
			v := x.av
			var err error
			x.av, x.aok, err = x.a.Next()
			if err == nil {
				x.bv, x.bok, err = x.b.Next()
			}
			if err != nil {
				x.err = err
				return 0, false, err
			}
			return v, true, nil
		case x.av > x.bv:
			var err error
			x.av, x.aok, err = x.a.Next()
			if err != nil {
				x.err = err
				return 0, false, err
			}
		default:
			var err error
			x.bv, x.bok, err = x.b.Next()
			if err != nil {
				x.err = err
				return 0, false, err
			}
		}
	}
	return 0, false, nil
}

// differenceRevset emits a's entries that never equal b's, advancing
// whichever side has the higher position.
type differenceRevset struct {
	a, b     Revset
	av, bv   index.IndexPosition
	aok, bok bool
	started  bool
	err      error
}

func newDifference(a, b Revset) Revset { return &differenceRevset{a: a, b: b} }

func (d *differenceRevset) prime() error {
	if d.started {
		return nil
	}
	var err error
	d.av, d.aok, err = d.a.Next()
	if err != nil {
		return err
	}
	d.bv, d.bok, err = d.b.Next()
	if err != nil {
		return err
	}
	d.started = true
	return nil
}

func (d *differenceRevset) Next() (index.IndexPosition, bool, error) {
	if d.err != nil {
		return 0, false, d.err
	}
	if err := d.prime(); err != nil {
		d.err = err
		return 0, false, err
	}
	for d.aok {
		if !d.bok || d.av > d.bv {
			v := d.av
			var err error
			d.av, d.aok, err = d.a.Next()
			if err != nil {
				d.err = err
				return 0, false, err
			}
			return v, true, nil
		}
		if d.av == d.bv {
			var err error
			d.av, d.aok, err = d.a.Next()
			if err == nil {
				d.bv, d.bok, err = d.b.Next()
			}
			if err != nil {
				d.err = err
				return 0, false, err
			}
			continue
		}
		var err error
		d.bv, d.bok, err = d.b.Next()
		if err != nil {
			d.err = err
			return 0, false, err
		}
	}
	return 0, false, nil
}

// filterRevset applies pred to each candidate entry in order. A predicate
// error is remembered and returned on every subsequent call, so it can
// never be mistaken for end-of-stream once it has surfaced once.
type filterRevset struct {
	candidates Revset
	pred       Predicate
	err        error
}

func newFilter(candidates Revset, pred Predicate) Revset {
	return &filterRevset{candidates: candidates, pred: pred}
}

func (f *filterRevset) Next() (index.IndexPosition, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	for {
		p, ok, err := f.candidates.Next()
		if err != nil {
			f.err = err
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		keep, err := f.pred(p)
		if err != nil {
			f.err = err
			return 0, false, err
		}
		if keep {
			return p, true, nil
		}
	}
}
