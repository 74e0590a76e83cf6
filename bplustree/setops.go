package bplustree

// Union builds a new tree containing every key of a and b. A key present
// in only one tree keeps that tree's value; a key present in both is
// resolved by mergeValues. a and b must share a comparator
// (ErrComparatorMismatch) and max node size (ErrBranchingMismatch).
func Union[K any, V any](a, b *Tree[K, V], mergeValues func(key K, aValue, bValue V) V) (*Tree[K, V], error) {
	if !sameComparator(a.compare, b.compare) {
		return nil, ErrComparatorMismatch
	}
	if a.maxNodeSize != b.maxNodeSize {
		return nil, ErrBranchingMismatch
	}
	if a.size == 0 {
		return b.Clone(), nil
	}
	if b.size == 0 {
		return a.Clone(), nil
	}
	if a.root == b.root {
		return a.Clone(), nil
	}

	var pieces []piece[K, V]
	var pending []Pair[K, V]
	flushPending := func() {
		if len(pending) > 0 {
			pieces = append(pieces, piece[K, V]{pairs: pending})
			pending = nil
		}
	}
	mergeWalk(a.root, b.root, a.compare,
		func(n *node[K, V]) { flushPending(); pieces = append(pieces, piece[K, V]{node: n}) },
		func(n *node[K, V]) { flushPending(); pieces = append(pieces, piece[K, V]{node: n}) },
		func(n *node[K, V]) { flushPending(); pieces = append(pieces, piece[K, V]{node: n}) },
		func(key K, av, bv V, hasA, hasB bool) {
			var v V
			switch {
			case hasA && hasB:
				v = mergeValues(key, av, bv)
			case hasA:
				v = av
			default:
				v = bv
			}
			pending = append(pending, Pair[K, V]{Key: key, Value: v})
		})
	flushPending()
	root := buildFromDecomposition(pieces, a.maxNodeSize)
	return &Tree[K, V]{root: root, compare: a.compare, valueEqual: a.valueEqual, maxNodeSize: a.maxNodeSize, size: root.subtreeSize()}, nil
}

// Subtract builds a new tree containing every key of target that is absent
// from remove, keeping target's values. target and remove must share a
// comparator and max node size.
func Subtract[K any, V any](target, remove *Tree[K, V]) (*Tree[K, V], error) {
	if !sameComparator(target.compare, remove.compare) {
		return nil, ErrComparatorMismatch
	}
	if target.maxNodeSize != remove.maxNodeSize {
		return nil, ErrBranchingMismatch
	}
	empty := func() *Tree[K, V] {
		return New[K, V](Options[K, V]{Compare: target.compare, ValueEqual: target.valueEqual, MaxNodeSize: target.maxNodeSize})
	}
	if target.size == 0 {
		return target.Clone(), nil
	}
	if remove.size == 0 {
		return target.Clone(), nil
	}
	if target.root == remove.root {
		return empty(), nil
	}

	var pieces []piece[K, V]
	var pending []Pair[K, V]
	flushPending := func() {
		if len(pending) > 0 {
			pieces = append(pieces, piece[K, V]{pairs: pending})
			pending = nil
		}
	}
	mergeWalk(target.root, remove.root, target.compare,
		func(n *node[K, V]) { /* identical subtree: every key is also in remove, cancel entirely */ },
		func(n *node[K, V]) { flushPending(); pieces = append(pieces, piece[K, V]{node: n}) },
		func(n *node[K, V]) { /* remove-only region, irrelevant to target */ },
		func(key K, av, _ V, hasA, hasB bool) {
			if hasA && !hasB {
				pending = append(pending, Pair[K, V]{Key: key, Value: av})
			}
		})
	flushPending()
	if len(pieces) == 0 {
		return empty(), nil
	}
	root := buildFromDecomposition(pieces, target.maxNodeSize)
	return &Tree[K, V]{root: root, compare: target.compare, valueEqual: target.valueEqual, maxNodeSize: target.maxNodeSize, size: root.subtreeSize()}, nil
}

// Intersect builds a new tree containing every key present in both a and
// b, with the value produced by combine(key, aValue, bValue). Per spec.md
// §4.6.5, combine must still run at every equal-key pair — including keys
// inside a subtree the two trees happen to share, since combine(v, v) is
// not guaranteed to be the identity — but every disjoint subtree, at
// whatever depth mergeWalk finds one, is skipped outright without being
// visited at all.
func Intersect[K any, V any](a, b *Tree[K, V], combine func(key K, aValue, bValue V) V) (*Tree[K, V], error) {
	if !sameComparator(a.compare, b.compare) {
		return nil, ErrComparatorMismatch
	}
	if a.maxNodeSize != b.maxNodeSize {
		return nil, ErrBranchingMismatch
	}
	empty := func() *Tree[K, V] {
		return New[K, V](Options[K, V]{Compare: a.compare, ValueEqual: a.valueEqual, MaxNodeSize: a.maxNodeSize})
	}
	if a.size == 0 || b.size == 0 {
		return empty(), nil
	}

	var pairs []Pair[K, V]
	mergeWalk(a.root, b.root, a.compare,
		func(n *node[K, V]) {
			c := subtreeCursor(n)
			for c.Next() {
				pairs = append(pairs, Pair[K, V]{Key: c.Key(), Value: combine(c.Key(), c.Value(), c.Value())})
			}
		},
		func(n *node[K, V]) { /* a-only subtree: outside the intersection, skipped without a visit */ },
		func(n *node[K, V]) { /* b-only subtree: outside the intersection, skipped without a visit */ },
		func(key K, av, bv V, hasA, hasB bool) {
			if hasA && hasB {
				pairs = append(pairs, Pair[K, V]{Key: key, Value: combine(key, av, bv)})
			}
		})
	if len(pairs) == 0 {
		return empty(), nil
	}
	root := bulkLoad(pairs, a.maxNodeSize)
	return &Tree[K, V]{root: root, compare: a.compare, valueEqual: a.valueEqual, maxNodeSize: a.maxNodeSize, size: len(pairs)}, nil
}
