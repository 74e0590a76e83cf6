// Package bplustree implements an in-memory sorted key/value container as
// a B+ tree with copy-on-write node sharing, plus a family of structural
// set-algebra operations (diff, union, intersect, subtract, bulk-load) that
// exploit shared subtrees. See SPEC_FULL.md for the full design.
package bplustree

import (
	"fmt"

	"bptree/common"
)

const (
	minNodeSize     = 4
	maxNodeSizeCap  = 256
	defaultNodeSize = 32
)

// Tree is an ordered K -> V container. The zero value is not usable; build
// one with New.
type Tree[K any, V any] struct {
	root        *node[K, V]
	compare     Compare[K]
	valueEqual  ValueEqual[V]
	maxNodeSize int
	size        int

	// scanDepth guards the "forbidden mid-scan mutation" rule of spec.md
	// §4.3: while a forRange/editRange walk is in progress, the callback
	// must not call a structural mutator on this same tree. Rather than
	// the source's per-slot "does the node still own this key" check (a
	// workaround specific to its closure-based cursor design), this is
	// enforced directly: any mutator entered while scanDepth > 0 panics
	// ErrIllegalMutation.
	scanDepth int
}

// Options configures New.
type Options[K any, V any] struct {
	// Compare is the key comparator. Required.
	Compare Compare[K]
	// ValueEqual is used by DiffAgainst to decide whether two values at
	// the same key count as "different". If nil, no equality is used:
	// DiffAgainst reports every key present in both trees (outside a
	// subtree the two trees share) as different. New does not fill in
	// DefaultValueEqual on its own; NewOrdered does.
	ValueEqual ValueEqual[V]
	// MaxNodeSize values below 4 (or omitted) default to 32 and values
	// above 256 clamp to 256, matching spec.md §6's construct contract.
	MaxNodeSize int
}

// New builds an empty tree. It panics with ErrBadArgument if Compare is nil.
func New[K any, V any](opts Options[K, V]) *Tree[K, V] {
	if opts.Compare == nil {
		panic(fmt.Errorf("%w: Compare is required", ErrBadArgument))
	}
	size := opts.MaxNodeSize
	if size <= 0 {
		size = defaultNodeSize
	}
	if size < minNodeSize {
		size = defaultNodeSize
	}
	if size > maxNodeSizeCap {
		size = maxNodeSizeCap
	}
	return &Tree[K, V]{
		root:        newEmptyLeaf[K, V](),
		compare:     opts.Compare,
		valueEqual:  opts.ValueEqual,
		maxNodeSize: size,
	}
}

// NewOrdered is a convenience constructor for comparable key/value types:
// it wires up DefaultValueEqual automatically. The comparator is supplied
// by the caller (for example OrderedCompare[K]).
func NewOrdered[K comparable, V comparable](cmp Compare[K], maxNodeSize int) *Tree[K, V] {
	return New[K, V](Options[K, V]{
		Compare:     cmp,
		ValueEqual:  DefaultValueEqual[V],
		MaxNodeSize: maxNodeSize,
	})
}

func (t *Tree[K, V]) beginScan() {
	t.scanDepth++
}

func (t *Tree[K, V]) endScan() {
	t.scanDepth--
}

func (t *Tree[K, V]) guardMutation() {
	if t.scanDepth > 0 {
		panic(ErrIllegalMutation)
	}
}

// Size returns the number of keys in the tree.
func (t *Tree[K, V]) Size() int { return t.size }

// IsEmpty reports whether the tree has no keys.
func (t *Tree[K, V]) IsEmpty() bool { return t.size == 0 }

// MaxNodeSize returns the branching factor the tree was built with.
func (t *Tree[K, V]) MaxNodeSize() int { return t.maxNodeSize }

// Comparator returns the tree's comparator (used to check ComparatorMismatch
// before diff/set-algebra operations).
func (t *Tree[K, V]) Comparator() Compare[K] { return t.compare }

// Height returns the number of internal levels above the leaves; 0 when the
// root is a leaf.
func (t *Tree[K, V]) Height() int {
	h := 0
	n := t.root
	for !n.isLeaf() {
		h++
		n = n.children[0]
	}
	return h
}

// Get returns the value for key, or def if key is absent.
func (t *Tree[K, V]) Get(key K, def V) V {
	if v, ok := t.root.get(key, t.compare); ok {
		return v
	}
	return def
}

// GetOk returns the value for key and whether it was present.
func (t *Tree[K, V]) GetOk(key K) (V, bool) {
	return t.root.get(key, t.compare)
}

// Has reports whether key is present.
func (t *Tree[K, V]) Has(key K) bool {
	_, ok := t.root.get(key, t.compare)
	return ok
}

// Set inserts or updates key -> value. It returns true if key was newly
// inserted, false if it was already present (whether or not overwrite
// caused the value to change).
func (t *Tree[K, V]) Set(key K, value V, overwrite bool) bool {
	t.guardMutation()
	if t.root.shared {
		t.root = t.root.clone()
	}
	isNew, sibling := t.root.insert(key, value, overwrite, t.compare, t.maxNodeSize)
	if sibling != nil {
		left := t.root
		t.root = &node[K, V]{
			children:     []*node[K, V]{left, sibling},
			childMaxKeys: []K{left.maxKey(), sibling.maxKey()},
			size:         left.subtreeSize() + sibling.subtreeSize(),
		}
	}
	if isNew {
		t.size++
	}
	return isNew
}

// SetPairs inserts or updates every pair in pairs, in order. Returns the
// number of keys that were newly inserted (spec.md §4.2's setPairs).
func (t *Tree[K, V]) SetPairs(pairs []Pair[K, V]) int {
	n := 0
	for _, p := range pairs {
		if t.Set(p.Key, p.Value, true) {
			n++
		}
	}
	return n
}

// SetIfNotPresent inserts key -> value only if key is absent. Returns true
// if inserted.
func (t *Tree[K, V]) SetIfNotPresent(key K, value V) bool {
	return t.Set(key, value, false)
}

// ChangeIfPresent updates key's value via fn only if key is already present;
// returns true if the key existed.
func (t *Tree[K, V]) ChangeIfPresent(key K, fn func(old V) V) bool {
	old, ok := t.GetOk(key)
	if !ok {
		return false
	}
	t.Set(key, fn(old), true)
	return true
}

// Delete removes key, returning true if it was present.
func (t *Tree[K, V]) Delete(key K) bool {
	counter, _, _ := EditRange[K, V, struct{}](t, &key, &key, true, 0,
		func(K, V, int) RangeResult[V, struct{}] {
			return RangeResult[V, struct{}]{Delete: true}
		})
	return counter > 0
}

// DeleteRange removes every key in [low, high) (or [low, high] if
// includeHigh) and returns the number of keys removed.
func (t *Tree[K, V]) DeleteRange(low, high K, includeHigh bool) int {
	before := t.size
	EditRange[K, V, struct{}](t, &low, &high, includeHigh, 0,
		func(K, V, int) RangeResult[V, struct{}] {
			return RangeResult[V, struct{}]{Delete: true}
		})
	return before - t.size
}

// MinKey returns the smallest key and whether the tree is non-empty.
func (t *Tree[K, V]) MinKey() (K, bool) {
	if t.size == 0 {
		var zero K
		return zero, false
	}
	return t.root.minKey(), true
}

// MaxKey returns the largest key and whether the tree is non-empty.
func (t *Tree[K, V]) MaxKey() (K, bool) {
	if t.size == 0 {
		var zero K
		return zero, false
	}
	return t.root.maxKey(), true
}

// MinPair returns the smallest key/value pair.
func (t *Tree[K, V]) MinPair() (Pair[K, V], bool) {
	if t.size == 0 {
		return Pair[K, V]{}, false
	}
	n := t.root
	for !n.isLeaf() {
		n = n.children[0]
	}
	return Pair[K, V]{Key: n.keys[0], Value: n.valueAt(0)}, true
}

// MaxPair returns the largest key/value pair.
func (t *Tree[K, V]) MaxPair() (Pair[K, V], bool) {
	if t.size == 0 {
		return Pair[K, V]{}, false
	}
	n := t.root
	for !n.isLeaf() {
		n = n.children[len(n.children)-1]
	}
	return Pair[K, V]{Key: n.keys[len(n.keys)-1], Value: n.valueAt(len(n.keys) - 1)}, true
}

// NextHigherKey returns the smallest key strictly greater than key. Passing
// nil returns the minimum key (spec.md §4.2: "nextHigher(undefined) returns
// the minimum pair").
func (t *Tree[K, V]) NextHigherKey(key *K) (K, bool) {
	p, ok := t.NextHigherPair(key)
	return p.Key, ok
}

// NextHigherPair returns the smallest pair whose key is strictly greater
// than key (or the minimum pair, if key is nil).
func (t *Tree[K, V]) NextHigherPair(key *K) (Pair[K, V], bool) {
	if key == nil {
		return t.MinPair()
	}
	c := newForwardCursor(t)
	if !c.seek(*key, false) {
		return Pair[K, V]{}, false
	}
	k, v := c.pair()
	if t.compare(k, *key) == 0 {
		if !c.step() {
			return Pair[K, V]{}, false
		}
		k, v = c.pair()
	}
	return Pair[K, V]{Key: k, Value: v}, true
}

// NextLowerKey returns the largest key strictly less than key. Passing nil
// returns the maximum key.
func (t *Tree[K, V]) NextLowerKey(key *K) (K, bool) {
	p, ok := t.NextLowerPair(key)
	return p.Key, ok
}

// NextLowerPair returns the largest pair whose key is strictly less than
// key (or the maximum pair, if key is nil).
func (t *Tree[K, V]) NextLowerPair(key *K) (Pair[K, V], bool) {
	if key == nil {
		return t.MaxPair()
	}
	c := newReverseCursor(t)
	if !c.seek(*key, false) {
		return Pair[K, V]{}, false
	}
	k, v := c.pair()
	if t.compare(k, *key) == 0 {
		if !c.step() {
			return Pair[K, V]{}, false
		}
		k, v = c.pair()
	}
	return Pair[K, V]{Key: k, Value: v}, true
}

// GetPairOrNextHigher returns the exact pair for key if present, otherwise
// the next higher pair, otherwise nothing.
func (t *Tree[K, V]) GetPairOrNextHigher(key K) (Pair[K, V], bool) {
	if v, ok := t.GetOk(key); ok {
		return Pair[K, V]{Key: key, Value: v}, true
	}
	return t.NextHigherPair(&key)
}

// GetPairOrNextLower returns the exact pair for key if present, otherwise
// the next lower pair, otherwise nothing.
func (t *Tree[K, V]) GetPairOrNextLower(key K) (Pair[K, V], bool) {
	if v, ok := t.GetOk(key); ok {
		return Pair[K, V]{Key: key, Value: v}, true
	}
	return t.NextLowerPair(&key)
}

// Clone returns a new tree sharing the same root (O(1)): the canonical CoW
// "clone on first mutation" contract described in spec.md §3. Mutating
// either tree clones only the path it actually touches.
func (t *Tree[K, V]) Clone() *Tree[K, V] {
	t.guardMutation()
	t.root.shared = true
	clone := *t
	clone.scanDepth = 0
	return &clone
}

// GreedyClone returns a tree with every node duplicated (force=true) or
// only unshared nodes duplicated, shared subtrees being reused as-is
// (force=false); see node.go's greedyClone doc comment.
func (t *Tree[K, V]) GreedyClone(force bool) *Tree[K, V] {
	clone := *t
	clone.scanDepth = 0
	clone.root = t.root.greedyClone(force)
	return &clone
}

// CheckValid performs the structural audit described in spec.md §4.1; it
// panics (InvariantViolation) on the first inconsistency found.
func (t *Tree[K, V]) CheckValid() {
	total := t.root.checkValid(t.compare, t.maxNodeSize, true)
	common.Assert(total == t.size, "tree cached size %d does not match counted size %d", t.size, total)
}

// KeysArray returns every key in ascending order. Convenience helper for
// tests and the demo CLI; not part of spec.md's lazy iterator surface.
func (t *Tree[K, V]) KeysArray() []K {
	out := make([]K, 0, t.size)
	t.ForEach(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

// PairsArray returns every pair in ascending order.
func (t *Tree[K, V]) PairsArray() []Pair[K, V] {
	out := make([]Pair[K, V], 0, t.size)
	t.ForEachPair(func(p Pair[K, V]) bool {
		out = append(out, p)
		return true
	})
	return out
}

// ForEach visits every pair in ascending order. visit returns false to stop
// early. It returns the number of pairs visited.
func (t *Tree[K, V]) ForEach(visit func(key K, value V) bool) int {
	counter, _, _ := ForRange[K, V, struct{}](t, nil, nil, false, 0,
		func(k K, v V, c int) RangeResult[V, struct{}] {
			if !visit(k, v) {
				return RangeResult[V, struct{}]{Break: true}
			}
			return RangeResult[V, struct{}]{}
		})
	return counter
}

// ForEachPair is ForEach with a Pair argument instead of two values.
func (t *Tree[K, V]) ForEachPair(visit func(p Pair[K, V]) bool) int {
	return t.ForEach(func(k K, v V) bool {
		return visit(Pair[K, V]{Key: k, Value: v})
	})
}

// Reduce folds every pair in ascending order into an accumulator.
func Reduce[K any, V any, A any](t *Tree[K, V], initial A, fn func(acc A, key K, value V) A) A {
	acc := initial
	t.ForEach(func(k K, v V) bool {
		acc = fn(acc, k, v)
		return true
	})
	return acc
}

func (t *Tree[K, V]) String() string {
	return fmt.Sprintf("Tree[size=%d height=%d maxNodeSize=%d]", t.size, t.Height(), t.maxNodeSize)
}
