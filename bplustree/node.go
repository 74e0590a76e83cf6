package bplustree

import "bptree/common"

// node is the B+ tree node sum type described in spec.md §3/§4.1: a leaf
// (parallel keys/values arrays) or an internal node (parallel children/
// cached-max-key arrays plus a cached subtree size). children == nil
// identifies a leaf, mirroring the teacher's bplus-tree.Node.IsLeaf check
// (len(children) == 0) but distinguishing "leaf" from "empty internal node",
// which the teacher's repo never had to since it had no CoW-shared empty
// sentinel.
//
// shared is the CoW marker (spec.md §3 "Invariants"): a shared node must
// never be mutated in place. cloneIfShared is the single choke point every
// mutator calls before writing.
type node[K any, V any] struct {
	shared bool

	keys   []K
	values []V // nil means every value in this leaf is the zero value of V (the undefVals sentinel, spec.md §3/§9)

	children     []*node[K, V]
	childMaxKeys []K // childMaxKeys[i] == children[i].maxKey()
	size         int // cached subtree size; internal nodes only
}

func newEmptyLeaf[K any, V any]() *node[K, V] {
	return &node[K, V]{shared: true}
}

func (n *node[K, V]) isLeaf() bool {
	return n.children == nil
}

// length is the node's key count (leaf) or child count (internal).
func (n *node[K, V]) length() int {
	if n.isLeaf() {
		return len(n.keys)
	}
	return len(n.children)
}

func (n *node[K, V]) isEmpty() bool {
	return n.subtreeSize() == 0
}

func (n *node[K, V]) subtreeSize() int {
	if n.isLeaf() {
		return len(n.keys)
	}
	return n.size
}

func (n *node[K, V]) maxKey() K {
	if n.isLeaf() {
		return n.keys[len(n.keys)-1]
	}
	return n.childMaxKeys[len(n.childMaxKeys)-1]
}

func (n *node[K, V]) minKey() K {
	cur := n
	for !cur.isLeaf() {
		cur = cur.children[0]
	}
	return cur.keys[0]
}

func (n *node[K, V]) valueAt(i int) V {
	if n.values == nil {
		var zero V
		return zero
	}
	return n.values[i]
}

func (n *node[K, V]) materializeValues() {
	if n.values == nil {
		n.values = make([]V, len(n.keys))
	}
}

// indexOf runs indexOf(key, failXor, cmp) from spec.md §4.1 over at(0..n-1).
// A hit returns the matching index; a miss returns insertionIndex^failXor.
// Callers pass failXor=0 when presence doesn't matter and failXor=-1 when
// they need to distinguish a miss (a negative result whose bitwise
// complement, ^result, is the insertion point).
func indexOf[K any](n int, at func(int) K, key K, cmp Compare[K], failXor int) int {
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		c := cmp(key, at(mid))
		if c == 0 {
			return mid
		}
		if c < 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo ^ failXor
}

func (n *node[K, V]) indexOfKey(key K, failXor int, cmp Compare[K]) int {
	return indexOf(len(n.keys), func(i int) K { return n.keys[i] }, key, cmp, failXor)
}

// indexOfChild returns the index of the first child whose maxKey is >= key,
// clamped to the last child when key exceeds every child's maxKey (spec.md
// §4.1 "Internal.set... recurses into the child whose range contains the
// key, clamped to the last child when the key exceeds the current maxKey").
func (n *node[K, V]) indexOfChild(key K, cmp Compare[K]) int {
	i := indexOf(len(n.childMaxKeys), func(i int) K { return n.childMaxKeys[i] }, key, cmp, 0)
	if i >= len(n.children) {
		i = len(n.children) - 1
	}
	return i
}

// cloneIfShared returns n unchanged if it is safe to mutate in place, or a
// fresh shallow clone (shared=false) otherwise. Cloning marks n's direct
// children shared, lazily propagating the CoW marker exactly one level at a
// time as the mutation path descends (spec.md §3 lifecycle: "shared: false
// -> true ... transitively in semantics"), the same idiom as the COWNode
// clone() read in copy_on_write_tree.go and the "cow" naming convention in
// persistent-btree/internals.go.
func (n *node[K, V]) cloneIfShared() *node[K, V] {
	if !n.shared {
		return n
	}
	return n.clone()
}

func (n *node[K, V]) clone() *node[K, V] {
	if n.isLeaf() {
		cp := &node[K, V]{keys: append([]K(nil), n.keys...)}
		if n.values != nil {
			cp.values = append([]V(nil), n.values...)
		}
		return cp
	}
	cp := &node[K, V]{
		children:     append([]*node[K, V](nil), n.children...),
		childMaxKeys: append([]K(nil), n.childMaxKeys...),
		size:         n.size,
	}
	for _, c := range cp.children {
		c.shared = true
	}
	return cp
}

// greedyClone performs a full recursive clone. With force=false, shared
// subtrees are reused as-is (same object) and only unshared nodes get
// duplicated; with force=true every node is duplicated regardless of its
// shared flag, and force propagates to every descendant (the behavior the
// spec explicitly calls out as load-bearing: "greedyClone(true) copies all
// nodes").
func (n *node[K, V]) greedyClone(force bool) *node[K, V] {
	if !force && n.shared {
		return n
	}
	if n.isLeaf() {
		cp := &node[K, V]{keys: append([]K(nil), n.keys...)}
		if n.values != nil {
			cp.values = append([]V(nil), n.values...)
		}
		return cp
	}
	children := make([]*node[K, V], len(n.children))
	for i, c := range n.children {
		children[i] = c.greedyClone(force)
	}
	return &node[K, V]{
		children:     children,
		childMaxKeys: append([]K(nil), n.childMaxKeys...),
		size:         n.size,
	}
}

func (n *node[K, V]) insertKV(i int, key K, value V) {
	if n.values == nil {
		n.values = make([]V, len(n.keys))
	}
	n.keys = append(n.keys, key)
	copy(n.keys[i+1:], n.keys[i:])
	n.keys[i] = key

	n.values = append(n.values, value)
	copy(n.values[i+1:], n.values[i:])
	n.values[i] = value
}

func (n *node[K, V]) removeKV(i int) {
	n.keys = append(n.keys[:i], n.keys[i+1:]...)
	if n.values != nil {
		n.values = append(n.values[:i], n.values[i+1:]...)
	}
}

// splitLeaf splits an over-capacity leaf in half, leaving the lower half in
// n and returning the upper half as a new right sibling.
func (n *node[K, V]) splitLeaf() *node[K, V] {
	total := len(n.keys)
	leftCount := (total + 1) / 2
	right := &node[K, V]{keys: append([]K(nil), n.keys[leftCount:]...)}
	n.keys = n.keys[:leftCount:leftCount]
	if n.values != nil {
		right.values = append([]V(nil), n.values[leftCount:]...)
		n.values = n.values[:leftCount:leftCount]
	}
	return right
}

func (n *node[K, V]) insertChild(i int, child *node[K, V]) {
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child

	n.childMaxKeys = append(n.childMaxKeys, child.maxKey())
	copy(n.childMaxKeys[i+1:], n.childMaxKeys[i:])
	n.childMaxKeys[i] = child.maxKey()
}

func (n *node[K, V]) removeChild(i int) {
	n.children = append(n.children[:i], n.children[i+1:]...)
	n.childMaxKeys = append(n.childMaxKeys[:i], n.childMaxKeys[i+1:]...)
}

func (n *node[K, V]) recomputeSize() {
	total := 0
	for _, c := range n.children {
		total += c.subtreeSize()
	}
	n.size = total
}

// splitInternal splits an over-capacity internal node in half, leaving the
// lower half in n and returning the upper half as a new right sibling.
func (n *node[K, V]) splitInternal() *node[K, V] {
	total := len(n.children)
	leftCount := (total + 1) / 2
	right := &node[K, V]{
		children:     append([]*node[K, V](nil), n.children[leftCount:]...),
		childMaxKeys: append([]K(nil), n.childMaxKeys[leftCount:]...),
	}
	n.children = n.children[:leftCount:leftCount]
	n.childMaxKeys = n.childMaxKeys[:leftCount:leftCount]
	right.recomputeSize()
	n.recomputeSize()
	return right
}

// insert recursively inserts (key, value) into the subtree rooted at n,
// which must already be unshared (the caller, or insert itself on the way
// down, calls cloneIfShared). It reports whether a brand-new key was added
// and, if n overflowed past maxNodeSize, the new right sibling the caller
// must link in.
//
// Before recursing into a full child, it attempts a sibling shift exactly
// as spec.md §4.1 describes for Internal.set: move one entry from the full
// child into whichever neighbor has spare capacity, when that keeps key
// routed to the child, so the child can absorb the new entry without
// splitting. This mirrors
// the teacher's bplus-tree.Node.set borrow-before-split optimization.
func (n *node[K, V]) insert(key K, value V, overwrite bool, cmp Compare[K], maxNodeSize int) (isNew bool, sibling *node[K, V]) {
	if n.isLeaf() {
		idx := n.indexOfKey(key, -1, cmp)
		if idx >= 0 {
			if overwrite {
				n.keys[idx] = key
				n.materializeValues()
				n.values[idx] = value
			}
			return false, nil
		}
		insertAt := ^idx
		n.insertKV(insertAt, key, value)
		if len(n.keys) <= maxNodeSize {
			return true, nil
		}
		return true, n.splitLeaf()
	}

	i := n.indexOfChild(key, cmp)
	child := n.children[i].cloneIfShared()
	n.children[i] = child
	n.tryShiftBeforeInsert(i, key, cmp, maxNodeSize)

	isNew, childSibling := child.insert(key, value, overwrite, cmp, maxNodeSize)
	n.childMaxKeys[i] = child.maxKey()
	if isNew {
		n.size++
	}
	if childSibling == nil {
		return isNew, nil
	}
	n.insertChild(i+1, childSibling)
	if len(n.children) <= maxNodeSize {
		return isNew, nil
	}
	return isNew, n.splitInternal()
}

// tryShiftBeforeInsert relieves a full child (n.children[i]) by moving one
// entry to a neighboring sibling with spare capacity, when doing so keeps
// key routed to the same child afterward. It is a pure fill-factor
// optimization: skipping it (or refusing a shift the safety checks below
// reject) never violates any invariant, it just occasionally causes a
// split that a perfect borrow could have avoided.
func (n *node[K, V]) tryShiftBeforeInsert(i int, key K, cmp Compare[K], maxNodeSize int) {
	child := n.children[i]
	if child.length() < maxNodeSize {
		return
	}
	if i+1 < len(n.children) {
		right := n.children[i+1]
		if right.length() < maxNodeSize && shiftRightSafe(child, key, cmp) {
			right = right.cloneIfShared()
			n.children[i+1] = right
			if child.isLeaf() {
				moveLastKV(child, right)
			} else {
				moveLastChild(child, right)
			}
			n.childMaxKeys[i] = child.maxKey()
			n.childMaxKeys[i+1] = right.maxKey()
			return
		}
	}
	if i > 0 {
		left := n.children[i-1]
		if left.length() < maxNodeSize && shiftLeftSafe(child, key, cmp) {
			left = left.cloneIfShared()
			n.children[i-1] = left
			if child.isLeaf() {
				moveFirstKV(left, child)
			} else {
				moveFirstChild(left, child)
			}
			n.childMaxKeys[i-1] = left.maxKey()
		}
	}
}

// minChildLength is the fewest entries a node may hold after donating one
// to a sibling: a leaf may drop to a single key, but a non-root internal
// node must always keep at least two children.
func minChildLength[K any, V any](child *node[K, V]) int {
	if child.isLeaf() {
		return 1
	}
	return 2
}

// shiftRightSafe reports whether moving child's last entry to its right
// sibling still routes key to child afterward: child's new max (its
// current second-to-last entry) must remain >= key.
func shiftRightSafe[K any, V any](child *node[K, V], key K, cmp Compare[K]) bool {
	if child.length() <= minChildLength(child) {
		return false
	}
	var newMax K
	if child.isLeaf() {
		newMax = child.keys[len(child.keys)-2]
	} else {
		newMax = child.childMaxKeys[len(child.childMaxKeys)-2]
	}
	return cmp(key, newMax) <= 0
}

// shiftLeftSafe reports whether moving child's first entry to its left
// sibling still routes key to child afterward: child's new min (its
// current second entry) must remain <= key.
func shiftLeftSafe[K any, V any](child *node[K, V], key K, cmp Compare[K]) bool {
	if child.length() <= minChildLength(child) {
		return false
	}
	var newMin K
	if child.isLeaf() {
		newMin = child.keys[1]
	} else {
		newMin = child.children[1].minKey()
	}
	return cmp(key, newMin) >= 0
}

// get returns the value for key and whether it was present.
func (n *node[K, V]) get(key K, cmp Compare[K]) (V, bool) {
	cur := n
	for !cur.isLeaf() {
		cur = cur.children[cur.indexOfChild(key, cmp)]
	}
	idx := cur.indexOfKey(key, -1, cmp)
	if idx < 0 {
		var zero V
		return zero, false
	}
	return cur.valueAt(idx), true
}

// checkValid is the structural audit from spec.md §4.1: key/child lengths
// agree, cached sizes match counted sizes, keys strictly increase, and
// children's cached maxKey agrees with the child's real maxKey. It returns
// the counted size so callers (Tree.CheckValid) can compare it against the
// cached size at every level. It panics (an InvariantViolation) on the
// first problem found, the same role common.Assert plays in the teacher.
func (n *node[K, V]) checkValid(cmp Compare[K], maxNodeSize int, isRoot bool) int {
	if n.isLeaf() {
		common.Assert(len(n.keys) <= maxNodeSize, "leaf has %d keys, max is %d", len(n.keys), maxNodeSize)
		if n.values != nil {
			common.Assert(len(n.values) == len(n.keys), "leaf key/value length mismatch: %d keys, %d values", len(n.keys), len(n.values))
		}
		for i := 1; i < len(n.keys); i++ {
			common.Assert(cmp(n.keys[i-1], n.keys[i]) < 0, "leaf keys not strictly increasing at index %d", i)
		}
		return len(n.keys)
	}
	common.Assert(len(n.children) == len(n.childMaxKeys), "internal node children/maxKey length mismatch: %d children, %d maxKeys", len(n.children), len(n.childMaxKeys))
	if !isRoot {
		common.Assert(len(n.children) >= 2, "non-root internal node has %d children, need >= 2", len(n.children))
	}
	common.Assert(len(n.children) <= maxNodeSize, "internal node has %d children, max is %d", len(n.children), maxNodeSize)
	total := 0
	for i, c := range n.children {
		common.Assert(len(c.keys) > 0 || !c.isLeaf(), "internal node has an empty leaf child at index %d", i)
		childSize := c.checkValid(cmp, maxNodeSize, false)
		common.Assert(cmp(c.maxKey(), n.childMaxKeys[i]) == 0, "cached maxKey mismatch at child %d", i)
		if i > 0 {
			common.Assert(cmp(n.childMaxKeys[i-1], n.childMaxKeys[i]) < 0, "child maxKeys not strictly increasing at index %d", i)
		}
		total += childSize
	}
	common.Assert(total == n.size, "cached size %d does not match counted size %d", n.size, total)
	return total
}
