package bplustree

import "golang.org/x/exp/constraints"

// Compare returns a negative number if a < b, zero if a == b (under the
// total order the tree is built with), and a positive number if a > b.
type Compare[K any] func(a, b K) int

// ValueEqual reports whether two values should be treated as the same for
// diff purposes. See SPEC_FULL.md §9 for the "same value" open question:
// this module's default, DefaultValueEqual, is ordinary Go equality and does
// not special-case NaN or signed zero the way the source's Object.is did.
type ValueEqual[V any] func(a, b V) bool

// OrderedCompare is the default comparator for any constraints.Ordered key
// type (every built-in numeric type and string). A NaN key compares unequal
// to everything including itself under plain `<`/`>`, which would silently
// corrupt the tree's ordering invariants; spec.md §4.1/§7 requires failing
// synchronously with BadKey instead, so NaN is detected and panicked on
// before it ever reaches a node.
func OrderedCompare[K constraints.Ordered](a, b K) int {
	if a != a || b != b {
		panic(ErrBadKey)
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// DefaultValueEqual is the default ValueEqual for any comparable value
// type: ordinary Go `==`.
func DefaultValueEqual[V comparable](a, b V) bool {
	return a == b
}

// Pair is a key/value pair, used by BulkLoad, iteration, and the wrappers
// that build a new tree from a slice of pairs (spec.md §9, Open Question 2:
// bulk-load input is exposed as a pair slice rather than a flat alternating
// list).
type Pair[K any, V any] struct {
	Key   K
	Value V
}
