package bplustree

// RangeResult is what a forRange/editRange callback returns: spec.md §4.3's
// `{value}` / `{delete}` / `{break: R}` edit-mode sum type, modelled as a
// Go struct since a generic callback can't return a literal union. R is the
// type a Break carries; callers that never break can instantiate R as
// struct{}.
type RangeResult[V any, R any] struct {
	SetValue   bool
	Value      V
	Delete     bool
	Break      bool
	BreakValue R
}

// ContinueScan is the zero RangeResult: keep going, no edit.
func ContinueScan[V any, R any]() RangeResult[V, R] {
	return RangeResult[V, R]{}
}

// SetAndContinue edits the current pair's value and keeps scanning.
func SetAndContinue[V any, R any](v V) RangeResult[V, R] {
	return RangeResult[V, R]{SetValue: true, Value: v}
}

// DeleteAndContinue removes the current pair and keeps scanning.
func DeleteAndContinue[V any, R any]() RangeResult[V, R] {
	return RangeResult[V, R]{Delete: true}
}

// BreakWith stops the scan, returning r from ForRange/EditRange.
func BreakWith[V any, R any](r R) RangeResult[V, R] {
	return RangeResult[V, R]{Break: true, BreakValue: r}
}

type walkState[V any, R any] struct {
	broke      bool
	breakValue R
	deltaSize  int
}

// ForRange walks every pair with low <= key < high (or <= high if
// includeHigh) in ascending order without mutating the tree. A nil bound is
// unbounded on that side. It returns the final counter value (number of
// pairs visited, continuing from initialCounter), the value passed to
// BreakWith if the callback broke, and whether it broke.
//
// ForRange is a package-level function, not a Tree method, because it needs
// a third type parameter (R, the break-value type) that a generic method
// cannot carry on top of Tree[K, V]'s own two.
func ForRange[K any, V any, R any](
	t *Tree[K, V],
	low, high *K,
	includeHigh bool,
	initialCounter int,
	visit func(key K, value V, counter int) RangeResult[V, R],
) (counter int, breakValue R, broke bool) {
	t.beginScan()
	defer t.endScan()
	state := &walkState[V, R]{}
	counter = initialCounter
	walkRange(t.root, t.compare, t.maxNodeSize, low, high, includeHigh, false, &counter, visit, state)
	return counter, state.breakValue, state.broke
}

// EditRange walks every pair with low <= key < high (or <= high if
// includeHigh) in ascending order, applying the SetValue/Delete edits the
// callback requests and rebalancing underflowed nodes on the way back up
// (spec.md §4.3). Only the path actually touched is cloned away from any
// shared ancestor.
func EditRange[K any, V any, R any](
	t *Tree[K, V],
	low, high *K,
	includeHigh bool,
	initialCounter int,
	visit func(key K, value V, counter int) RangeResult[V, R],
) (counter int, breakValue R, broke bool) {
	t.guardMutation()
	t.beginScan()
	defer t.endScan()
	if t.root.shared {
		t.root = t.root.clone()
	}
	state := &walkState[V, R]{}
	counter = initialCounter
	t.root = walkRange(t.root, t.compare, t.maxNodeSize, low, high, includeHigh, true, &counter, visit, state)
	t.size += state.deltaSize
	t.collapseRoot()
	return counter, state.breakValue, state.broke
}

func (t *Tree[K, V]) collapseRoot() {
	if !t.root.isLeaf() && len(t.root.children) == 0 {
		t.root = newEmptyLeaf[K, V]()
		return
	}
	for !t.root.isLeaf() && len(t.root.children) == 1 {
		child := t.root.children[0]
		if t.root.shared {
			child.shared = true
		}
		t.root = child
	}
}

func walkRange[K any, V any, R any](
	n *node[K, V],
	cmp Compare[K],
	maxNodeSize int,
	low, high *K,
	includeHigh bool,
	editable bool,
	counter *int,
	visit func(K, V, int) RangeResult[V, R],
	state *walkState[V, R],
) *node[K, V] {
	if state.broke {
		return n
	}
	if n.isLeaf() {
		return walkLeaf(n, cmp, low, high, includeHigh, editable, counter, visit, state)
	}

	startIdx := 0
	if low != nil {
		startIdx = n.indexOfChild(*low, cmp)
	}
	endIdx := len(n.children) - 1
	if high != nil {
		endIdx = n.indexOfChild(*high, cmp)
	}

	for i := startIdx; i <= endIdx && i < len(n.children); i++ {
		if state.broke {
			break
		}
		child := n.children[i]
		if editable {
			child = child.cloneIfShared()
		}
		var childLow, childHigh *K
		if i == startIdx {
			childLow = low
		}
		if i == endIdx {
			childHigh = high
		}
		newChild := walkRange(child, cmp, maxNodeSize, childLow, childHigh, includeHigh, editable, counter, visit, state)
		n.children[i] = newChild
		if editable && !newChild.isEmpty() {
			n.childMaxKeys[i] = newChild.maxKey()
		}
	}

	if editable {
		n.rebalanceAfterEdit(maxNodeSize)
	}
	return n
}

func walkLeaf[K any, V any, R any](
	n *node[K, V],
	cmp Compare[K],
	low, high *K,
	includeHigh bool,
	editable bool,
	counter *int,
	visit func(K, V, int) RangeResult[V, R],
	state *walkState[V, R],
) *node[K, V] {
	if editable {
		n = n.cloneIfShared()
	}

	startIdx := 0
	if low != nil {
		startIdx = n.indexOfKey(*low, 0, cmp)
	}
	endIdx := len(n.keys) - 1
	if high != nil {
		hi := n.indexOfKey(*high, -1, cmp)
		if hi >= 0 {
			if includeHigh {
				endIdx = hi
			} else {
				endIdx = hi - 1
			}
		} else {
			endIdx = ^hi - 1
		}
	}

	for i := startIdx; i <= endIdx && i < len(n.keys); i++ {
		if state.broke {
			break
		}
		k := n.keys[i]
		v := n.valueAt(i)
		res := visit(k, v, *counter)
		*counter++
		if !editable && (res.SetValue || res.Delete) {
			panic(ErrIllegalMutation)
		}
		if res.SetValue {
			n.materializeValues()
			n.values[i] = res.Value
		}
		if res.Delete {
			n.removeKV(i)
			i--
			endIdx--
			state.deltaSize--
		}
		if res.Break {
			state.broke = true
			state.breakValue = res.BreakValue
		}
	}
	return n
}

// mergeNodes concatenates two same-kind (both leaf or both internal)
// siblings into one freshly allocated node, never mutating either input.
// When a sibling being merged away is itself shared (still reachable from
// some other tree), its children are moved into the new parent without
// being copied, so they become doubly-owned: they must be marked shared to
// preserve the invariant, exactly the case spec.md §4.3 calls out for
// "merge-sibling that attaches a shared subtree into an unshared parent".
func mergeNodes[K any, V any](left, right *node[K, V]) *node[K, V] {
	if left.isLeaf() {
		keys := make([]K, 0, len(left.keys)+len(right.keys))
		keys = append(keys, left.keys...)
		keys = append(keys, right.keys...)
		merged := &node[K, V]{keys: keys}
		if left.values != nil || right.values != nil {
			merged.materializeValues()
			for i := range left.keys {
				merged.values[i] = left.valueAt(i)
			}
			for i := range right.keys {
				merged.values[len(left.keys)+i] = right.valueAt(i)
			}
		}
		return merged
	}
	if left.shared {
		for _, c := range left.children {
			c.shared = true
		}
	}
	if right.shared {
		for _, c := range right.children {
			c.shared = true
		}
	}
	children := make([]*node[K, V], 0, len(left.children)+len(right.children))
	children = append(children, left.children...)
	children = append(children, right.children...)
	maxKeys := make([]K, 0, len(children))
	maxKeys = append(maxKeys, left.childMaxKeys...)
	maxKeys = append(maxKeys, right.childMaxKeys...)
	merged := &node[K, V]{children: children, childMaxKeys: maxKeys}
	merged.recomputeSize()
	return merged
}

// rebalanceAfterEdit is run on an internal node once all the children that
// fell in the scanned range have already been (possibly) edited in place:
// it drops children left empty by deletion, refreshes cached maxKeys, and
// merges any child whose size dropped to or below half the branching factor
// into its right sibling when the combined size still fits one node
// (spec.md §4.3's post-edit rebalance, grounded on the teacher's
// handleNodeUnderflow/mergeNodes pass over `bplus-tree/btree.go`).
//
// A child that still has fewer than two grandchildren after the drop pass
// is structurally invalid, not merely underfull, and must be fixed
// regardless of its subtree size: it is merged with a sibling when the
// combined length still fits, or otherwise repaired by borrowing a single
// grandchild from the sibling.
func (n *node[K, V]) rebalanceAfterEdit(maxNodeSize int) {
	kept := n.children[:0]
	keptKeys := n.childMaxKeys[:0]
	for _, c := range n.children {
		if c.isEmpty() {
			continue
		}
		kept = append(kept, c)
		keptKeys = append(keptKeys, c.maxKey())
	}
	n.children = kept
	n.childMaxKeys = keptKeys

	half := maxNodeSize / 2
	underfull := func(c *node[K, V]) bool {
		return c.subtreeSize() <= half || (!c.isLeaf() && len(c.children) < 2)
	}
	i := 0
	for i < len(n.children)-1 {
		c := n.children[i]
		right := n.children[i+1]
		if !underfull(c) && !underfull(right) {
			i++
			continue
		}
		if c.length()+right.length() <= maxNodeSize {
			merged := mergeNodes(c, right)
			n.children[i] = merged
			n.childMaxKeys[i] = merged.maxKey()
			n.removeChild(i + 1)
			continue
		}
		if !c.isLeaf() && len(c.children) < 2 {
			c, right = c.cloneIfShared(), right.cloneIfShared()
			n.children[i], n.children[i+1] = c, right
			borrowFromRight(c, right)
			n.childMaxKeys[i] = c.maxKey()
		} else if !right.isLeaf() && len(right.children) < 2 {
			c, right = c.cloneIfShared(), right.cloneIfShared()
			n.children[i], n.children[i+1] = c, right
			moveLastChild(c, right)
			n.childMaxKeys[i] = c.maxKey()
		}
		i++
	}
	n.recomputeSize()
}

// borrowFromRight moves right's first grandchild onto the end of left,
// used to repair a left node that dropped below two children when merging
// it with right would overflow maxNodeSize. Both left and right are mutated
// in place, so callers must cloneIfShared() each one first; rebalanceAfterEdit
// does this before every call since siblings outside the edited range may
// still be shared with another tree.
func borrowFromRight[K any, V any](left, right *node[K, V]) {
	c := right.children[0]
	mk := right.childMaxKeys[0]
	right.children = right.children[1:]
	right.childMaxKeys = right.childMaxKeys[1:]
	right.recomputeSize()
	left.children = append(left.children, c)
	left.childMaxKeys = append(left.childMaxKeys, mk)
	left.recomputeSize()
}
