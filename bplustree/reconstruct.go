package bplustree

// heightOf returns a node's height: 0 for a leaf, one more than its first
// child's height otherwise. All children of a node share the same depth
// (spec.md §3), so the first child always tells the whole story.
func heightOf[K any, V any](n *node[K, V]) int {
	h := 0
	for !n.isLeaf() {
		h++
		n = n.children[0]
	}
	return h
}

// unit is one already-built subtree of known height contributed to
// buildFromDecomposition: either a whole subtree reused from an input tree
// (possibly still shared with it) or a freshly built leaf holding pairs
// that exist only in an overlap region the two inputs didn't share.
type unit[K any, V any] struct {
	node   *node[K, V]
	height int
}

// buildFromDecomposition assembles the ordered pieces produced by a
// set-algebra walk into one balanced B+ tree, attaching whole-subtree
// pieces by pointer rather than flattening their contents — spec.md
// §4.6.3's buildFromDecomposition: pick the tallest piece as the frontier
// seed, then attach every other piece to its growing right or left spine,
// splitting and cascading upward exactly like a normal insert overflow
// (the same splitInternal machinery node.go's insert uses). Seeding with
// the tallest piece guarantees every later attach only ever needs to
// descend into the accumulated result — never the reverse — since no
// other piece can be taller than the seed.
func buildFromDecomposition[K any, V any](pieces []piece[K, V], maxNodeSize int) *node[K, V] {
	units := make([]unit[K, V], 0, len(pieces))
	for _, p := range pieces {
		if p.node != nil {
			units = append(units, unit[K, V]{node: p.node, height: heightOf(p.node)})
			continue
		}
		for _, leaf := range chunkLeaves(p.pairs, maxNodeSize) {
			units = append(units, unit[K, V]{node: leaf, height: 0})
		}
	}
	if len(units) == 0 {
		return newEmptyLeaf[K, V]()
	}

	seedIdx := 0
	for i, u := range units {
		if u.height > units[seedIdx].height {
			seedIdx = i
		}
	}

	result := units[seedIdx].node
	height := units[seedIdx].height
	for i := seedIdx + 1; i < len(units); i++ {
		result, height = attachRight(result, height, units[i].node, units[i].height, maxNodeSize)
	}
	for i := seedIdx - 1; i >= 0; i-- {
		result, height = attachLeft(result, height, units[i].node, units[i].height, maxNodeSize)
	}
	return result
}

// attachRight attaches n (height h, always <= height) as the new rightmost
// subtree of t (height `height`), growing the root when the cascade
// reaches the top exactly like splitInternal's overflow handling on
// insert.
func attachRight[K any, V any](t *node[K, V], height int, n *node[K, V], h int, maxNodeSize int) (*node[K, V], int) {
	if height == h {
		return wrapPair(t, n), height + 1
	}
	newT, overflow := insertRightAtHeight(t, height, n, h, maxNodeSize)
	if overflow == nil {
		return newT, height
	}
	return wrapPair(newT, overflow), height + 1
}

// insertRightAtHeight descends t's rightmost spine, cloning on write, until
// it reaches the ancestor whose children have height h, appends n there,
// and cascades a split back up if that ancestor overflows.
func insertRightAtHeight[K any, V any](cur *node[K, V], curHeight int, n *node[K, V], h int, maxNodeSize int) (*node[K, V], *node[K, V]) {
	cur = cur.cloneIfShared()
	if curHeight == h+1 {
		cur.insertChild(len(cur.children), n)
		cur.recomputeSize()
		if len(cur.children) <= maxNodeSize {
			return cur, nil
		}
		return cur, cur.splitInternal()
	}
	last := len(cur.children) - 1
	newChild, overflow := insertRightAtHeight(cur.children[last], curHeight-1, n, h, maxNodeSize)
	cur.children[last] = newChild
	cur.childMaxKeys[last] = newChild.maxKey()
	if overflow != nil {
		cur.insertChild(last+1, overflow)
	}
	cur.recomputeSize()
	if len(cur.children) <= maxNodeSize {
		return cur, nil
	}
	return cur, cur.splitInternal()
}

// attachLeft is attachRight's mirror image: n becomes the new leftmost
// subtree of t.
func attachLeft[K any, V any](t *node[K, V], height int, n *node[K, V], h int, maxNodeSize int) (*node[K, V], int) {
	if height == h {
		return wrapPair(n, t), height + 1
	}
	newT, overflow := insertLeftAtHeight(t, height, n, h, maxNodeSize)
	if overflow == nil {
		return newT, height
	}
	return wrapPair(overflow, newT), height + 1
}

// insertLeftAtHeight is insertRightAtHeight's mirror: it descends t's
// leftmost spine, prepending n at the matching depth. When the ancestor it
// lands in overflows, the split must carve the front portion (which now
// contains n) off as a new, further-left sibling: splitInternal already
// keeps the lower/earlier half in place and returns the upper half, so the
// half that stays at this position is the *returned* sibling, and the half
// that keeps propagating left is what's left of cur.
func insertLeftAtHeight[K any, V any](cur *node[K, V], curHeight int, n *node[K, V], h int, maxNodeSize int) (*node[K, V], *node[K, V]) {
	cur = cur.cloneIfShared()
	if curHeight == h+1 {
		cur.insertChild(0, n)
		cur.recomputeSize()
		if len(cur.children) <= maxNodeSize {
			return cur, nil
		}
		upper := cur.splitInternal()
		return upper, cur
	}
	newChild, overflow := insertLeftAtHeight(cur.children[0], curHeight-1, n, h, maxNodeSize)
	cur.children[0] = newChild
	cur.childMaxKeys[0] = newChild.maxKey()
	if overflow != nil {
		cur.insertChild(0, overflow)
	}
	cur.recomputeSize()
	if len(cur.children) <= maxNodeSize {
		return cur, nil
	}
	upper := cur.splitInternal()
	return upper, cur
}

// wrapPair builds a new two-child internal node over (left, right), both
// already at the same height.
func wrapPair[K any, V any](left, right *node[K, V]) *node[K, V] {
	parent := &node[K, V]{
		children:     []*node[K, V]{left, right},
		childMaxKeys: []K{left.maxKey(), right.maxKey()},
	}
	parent.recomputeSize()
	return parent
}
