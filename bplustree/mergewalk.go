package bplustree

import "reflect"

// sameComparator reports whether two comparators are the literal same
// function, compared by code pointer (reflect.ValueOf(fn).Pointer()) since
// Go function values are not comparable with ==. This is the idiomatic
// workaround for identity-comparing funcs; it is conservative (two
// differently-constructed closures that happen to compute the same
// ordering compare unequal), matching spec.md's own "same comparator
// reference" wording for ComparatorMismatch.
func sameComparator[K any](a, b Compare[K]) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// piece is one wholesale, wholly-reusable chunk of keys assembled by the
// set-algebra operations in setops.go: either an untouched subtree
// (possibly still shared with some other tree) or an explicit run of
// already-resolved pairs for a region where the two input subtrees
// overlapped without being pointer-identical.
type piece[K any, V any] struct {
	node  *node[K, V]
	pairs []Pair[K, V]
}

// chunk is one not-yet-classified portion of a mergeWalk input. Almost
// always a whole node; once a leaf has been partially consumed against a
// shorter run on the other side, it becomes the remaining [lo, hi) slice
// of that leaf's keys. Internal nodes are never sliced — when one needs
// restricting to a narrower range, it is expanded into its children
// instead, and the irrelevant children fall out via the disjoint check.
type chunk[K any, V any] struct {
	n      *node[K, V]
	lo, hi int // meaningful only when n.isLeaf()
}

func wholeChunk[K any, V any](n *node[K, V]) chunk[K, V] {
	if n.isLeaf() {
		return chunk[K, V]{n: n, lo: 0, hi: len(n.keys)}
	}
	return chunk[K, V]{n: n}
}

func (c chunk[K, V]) isWhole() bool {
	return !c.n.isLeaf() || (c.lo == 0 && c.hi == len(c.n.keys))
}

func (c chunk[K, V]) minKey() K {
	if c.n.isLeaf() {
		return c.n.keys[c.lo]
	}
	return c.n.minKey()
}

func (c chunk[K, V]) maxKey() K {
	if c.n.isLeaf() {
		return c.n.keys[c.hi-1]
	}
	return c.n.maxKey()
}

// mergeWalk classifies the relationship between subtrees a and b against
// comparator cmp and reports it, in ascending key order, via four
// callbacks:
//
//   - onIdentical: a run of keys backed by the literal same node on both
//     sides (pointer-equal) — every key in it has the same value on both
//     sides. Fired not just when the two whole roots happen to be
//     identical, but for any nested subtree discovered identical while
//     descending — the common case right after `b := a.Clone();
//     b.Set(k, v, true)`, where only the root-to-k spine differs and every
//     untouched sibling subtree is still the literal same object.
//   - onOnlyA / onOnlyB: a subtree present on only one side with no overlap
//     at all against anything remaining on the other side. Reported
//     wholesale, by node pointer, without visiting its keys — this, too,
//     fires at whatever depth the disjoint boundary is actually found, not
//     only at the two top-level roots.
//   - onOverlap: one key inside a region where the two sides overlap
//     without being pointer-identical, resolved once the comparison has
//     descended to leaf granularity on both sides.
//
// Implementation: two FIFO worklists of chunks, seeded with the whole
// roots, compared pairwise at their heads (spec.md §4.6.2's alternating
// dual-cursor decompose walk, generalized to arbitrary nesting). A pair of
// whole chunks that are pointer-identical, or whose key ranges are
// disjoint, resolves in O(1) without looking inside either one; otherwise
// whichever side is still composite (an internal node) is expanded one
// level into its children, and the comparison repeats against the new,
// finer-grained heads. Once both heads are leaves, keys are merge-joined
// two pointers at a time; if one leaf's run extends further than the
// other's, the unconsumed remainder is requeued as a partial chunk and
// compared against whatever the other queue's next chunk is. Every node
// handed to onIdentical/onOnlyA/onOnlyB is marked shared before the
// callback runs: the moment a subtree is reused wholesale into a result
// tree it is referenced by two trees, regardless of what its shared flag
// said a moment ago.
func mergeWalk[K any, V any](
	a, b *node[K, V],
	cmp Compare[K],
	onIdentical func(n *node[K, V]),
	onOnlyA func(n *node[K, V]),
	onOnlyB func(n *node[K, V]),
	onOverlap func(key K, aVal, bVal V, hasA, hasB bool),
) {
	queueA := []chunk[K, V]{wholeChunk(a)}
	queueB := []chunk[K, V]{wholeChunk(b)}

	emitA := func(c chunk[K, V]) {
		if c.isWhole() {
			c.n.shared = true
			onOnlyA(c.n)
			return
		}
		for i := c.lo; i < c.hi; i++ {
			onOverlap(c.n.keys[i], c.n.valueAt(i), zeroOf[V](), true, false)
		}
	}
	emitB := func(c chunk[K, V]) {
		if c.isWhole() {
			c.n.shared = true
			onOnlyB(c.n)
			return
		}
		for i := c.lo; i < c.hi; i++ {
			onOverlap(c.n.keys[i], zeroOf[V](), c.n.valueAt(i), false, true)
		}
	}

	for len(queueA) > 0 && len(queueB) > 0 {
		ca, cb := queueA[0], queueB[0]

		if ca.isWhole() && cb.isWhole() && ca.n == cb.n {
			ca.n.shared = true
			onIdentical(ca.n)
			queueA = queueA[1:]
			queueB = queueB[1:]
			continue
		}

		caLo, caHi := ca.minKey(), ca.maxKey()
		cbLo, cbHi := cb.minKey(), cb.maxKey()
		if cmp(caHi, cbLo) < 0 {
			emitA(ca)
			queueA = queueA[1:]
			continue
		}
		if cmp(cbHi, caLo) < 0 {
			emitB(cb)
			queueB = queueB[1:]
			continue
		}

		switch {
		case !ca.n.isLeaf():
			children := make([]chunk[K, V], len(ca.n.children))
			for i, c := range ca.n.children {
				children[i] = wholeChunk(c)
			}
			queueA = append(children, queueA[1:]...)
		case !cb.n.isLeaf():
			children := make([]chunk[K, V], len(cb.n.children))
			for i, c := range cb.n.children {
				children[i] = wholeChunk(c)
			}
			queueB = append(children, queueB[1:]...)
		default:
			i, j := ca.lo, cb.lo
			for i < ca.hi && j < cb.hi {
				ka, kb := ca.n.keys[i], cb.n.keys[j]
				switch c := cmp(ka, kb); {
				case c < 0:
					onOverlap(ka, ca.n.valueAt(i), zeroOf[V](), true, false)
					i++
				case c > 0:
					onOverlap(kb, zeroOf[V](), cb.n.valueAt(j), false, true)
					j++
				default:
					onOverlap(ka, ca.n.valueAt(i), cb.n.valueAt(j), true, true)
					i++
					j++
				}
			}
			if i == ca.hi {
				queueA = queueA[1:]
			} else {
				queueA[0] = chunk[K, V]{n: ca.n, lo: i, hi: ca.hi}
			}
			if j == cb.hi {
				queueB = queueB[1:]
			} else {
				queueB[0] = chunk[K, V]{n: cb.n, lo: j, hi: cb.hi}
			}
		}
	}
	for _, c := range queueA {
		emitA(c)
	}
	for _, c := range queueB {
		emitB(c)
	}
}

func zeroOf[V any]() V {
	var z V
	return z
}

// subtreeCursor returns a forward cursor rooted at n, reusing Cursor's
// frame mechanics via a throwaway Tree wrapper rather than duplicating the
// walk logic for "iterate a subtree, not a whole tree".
func subtreeCursor[K any, V any](n *node[K, V]) *Cursor[K, V] {
	fake := &Tree[K, V]{root: n, size: n.subtreeSize()}
	return fake.Iterator()
}
