package bplustree

import "errors"

// Sentinel errors returned (or, for structural-invariant classes that can
// never legitimately occur in correct code, panicked with) by tree
// operations. Callers match them with errors.Is.
var (
	// ErrBadKey is panicked by OrderedCompare when a NaN key is compared
	// (a key with no place in the total order).
	ErrBadKey = errors.New("bplustree: comparator produced a non-finite ordering")

	// ErrComparatorMismatch is returned by diff and set-algebra operations
	// invoked on two trees that were not built with the same comparator.
	ErrComparatorMismatch = errors.New("bplustree: trees do not share a comparator")

	// ErrBranchingMismatch is returned by tree-building set operations
	// (union, intersect, subtract) invoked on trees with different max
	// node sizes.
	ErrBranchingMismatch = errors.New("bplustree: trees have different max node sizes")

	// ErrUnsorted is returned by BulkLoad when the input is not in strict
	// ascending key order.
	ErrUnsorted = errors.New("bplustree: bulk-load input is not strictly ascending")

	// ErrIllegalMutation is panicked when a forRange/editRange callback
	// mutates or clones the tree it is iterating mid-scan.
	ErrIllegalMutation = errors.New("bplustree: callback mutated the tree during a scan")

	// ErrFrozen would be returned by a freeze wrapper's mutators; the
	// freeze affordance itself is out of this module's scope (spec.md §1),
	// the sentinel is kept for callers that want to build one.
	ErrFrozen = errors.New("bplustree: tree is frozen")

	// ErrBadArgument is panicked (wrapped) by New when Compare is nil.
	ErrBadArgument = errors.New("bplustree: bad argument")
)
