package bplustree

// DiffResult is what a DiffAgainst callback returns: keep scanning (the
// zero value, DiffContinue) or stop and report a value (DiffBreak), per
// spec.md §8 property 8 ("if any callback returns {break: R}, diffAgainst
// returns exactly R").
type DiffResult[R any] struct {
	Break bool
	Value R
}

// DiffContinue keeps the scan going.
func DiffContinue[R any]() DiffResult[R] { return DiffResult[R]{} }

// DiffBreak stops the scan immediately; DiffAgainst returns r.
func DiffBreak[R any](r R) DiffResult[R] { return DiffResult[R]{Break: true, Value: r} }

// DiffAgainst reports every key present only in a ("this"), only in b
// ("other"), or in both with a value that differs under a's ValueEqual (if
// none was configured, every co-present key is reported as different,
// since there is then no way to tell). Any of the three callbacks may be
// nil to skip that event class. a and b must share a comparator
// (ErrComparatorMismatch otherwise); a pointer-identical root is a known
// no-op shortcut since every key is then present on both sides with the
// same value.
func DiffAgainst[K any, V any, R any](
	a, b *Tree[K, V],
	onlyThis func(key K, value V) DiffResult[R],
	onlyOther func(key K, value V) DiffResult[R],
	different func(key K, thisValue, otherValue V) DiffResult[R],
) (breakValue R, broke bool, err error) {
	if !sameComparator(a.compare, b.compare) {
		return breakValue, false, ErrComparatorMismatch
	}
	if a.size == 0 && b.size == 0 {
		return breakValue, false, nil
	}
	if a.size == 0 {
		if onlyOther != nil {
			c := b.Iterator()
			for c.Next() {
				if res := onlyOther(c.Key(), c.Value()); res.Break {
					return res.Value, true, nil
				}
			}
		}
		return breakValue, false, nil
	}
	if b.size == 0 {
		if onlyThis != nil {
			c := a.Iterator()
			for c.Next() {
				if res := onlyThis(c.Key(), c.Value()); res.Break {
					return res.Value, true, nil
				}
			}
		}
		return breakValue, false, nil
	}

	broken := false
	var brk R
	walkSubtreePairs := func(n *node[K, V], cb func(key K, value V) DiffResult[R]) {
		if broken || cb == nil {
			return
		}
		c := subtreeCursor(n)
		for c.Next() {
			if res := cb(c.Key(), c.Value()); res.Break {
				broken, brk = true, res.Value
				return
			}
		}
	}
	mergeWalk(a.root, b.root, a.compare,
		func(n *node[K, V]) { /* identical subtree: no differences possible */ },
		func(n *node[K, V]) { walkSubtreePairs(n, onlyThis) },
		func(n *node[K, V]) { walkSubtreePairs(n, onlyOther) },
		func(key K, av, bv V, hasA, hasB bool) {
			if broken {
				return
			}
			switch {
			case hasA && !hasB:
				if onlyThis != nil {
					if res := onlyThis(key, av); res.Break {
						broken, brk = true, res.Value
					}
				}
			case hasB && !hasA:
				if onlyOther != nil {
					if res := onlyOther(key, bv); res.Break {
						broken, brk = true, res.Value
					}
				}
			default:
				if different == nil {
					return
				}
				if a.valueEqual != nil && a.valueEqual(av, bv) {
					return
				}
				if res := different(key, av, bv); res.Break {
					broken, brk = true, res.Value
				}
			}
		})
	return brk, broken, nil
}
