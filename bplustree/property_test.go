package bplustree

import (
	"testing"

	"pgregory.net/rapid"

	"bptree/reference"
)

// TestProperty_SetGetDeleteMatchesReference checks spec.md §8's core
// correctness property: any sequence of set/delete operations against the
// tree produces the same observable key/value state as the flat
// sorted-slice reference model in bptree/reference.
func TestProperty_SetGetDeleteMatchesReference(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := newTestIntTree(rapid.IntRange(4, 32).Draw(rt, "maxNodeSize"))
		ref := reference.New[int, int](OrderedCompare[int])

		ops := rapid.IntRange(1, 200).Draw(rt, "numOps")
		for i := 0; i < ops; i++ {
			key := rapid.IntRange(-50, 50).Draw(rt, "key")
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				value := rapid.Int().Draw(rt, "value")
				tr.Set(key, value, true)
				ref.Set(key, value)
			case 1:
				tr.Delete(key)
				ref.Delete(key)
			case 2:
				v, ok := tr.GetOk(key)
				rv, rok := ref.Get(key)
				if ok != rok || v != rv {
					rt.Fatalf("get(%d): tree=(%v,%v) reference=(%v,%v)", key, v, ok, rv, rok)
				}
			}
		}

		if tr.Size() != ref.Size() {
			rt.Fatalf("size mismatch: tree=%d reference=%d", tr.Size(), ref.Size())
		}
		tr.CheckValid()

		gotKeys := tr.KeysArray()
		wantKeys := ref.Keys()
		if len(gotKeys) != len(wantKeys) {
			rt.Fatalf("key count mismatch: tree=%d reference=%d", len(gotKeys), len(wantKeys))
		}
		for i := range gotKeys {
			if gotKeys[i] != wantKeys[i] {
				rt.Fatalf("key mismatch at %d: tree=%d reference=%d", i, gotKeys[i], wantKeys[i])
			}
		}
	})
}

// TestProperty_CloneIsolatesMutations checks that mutating a clone never
// affects the tree it was cloned from, and vice versa, regardless of
// operation order (spec.md §3's CoW invariant).
func TestProperty_CloneIsolatesMutations(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := newTestIntTree(rapid.IntRange(4, 16).Draw(rt, "maxNodeSize"))
		n := rapid.IntRange(0, 80).Draw(rt, "initialSize")
		for i := 0; i < n; i++ {
			tr.Set(i, i, true)
		}
		before := append([]int(nil), tr.KeysArray()...)

		clone := tr.Clone()
		edits := rapid.IntRange(0, 40).Draw(rt, "edits")
		for i := 0; i < edits; i++ {
			key := rapid.IntRange(-20, 100).Draw(rt, "key")
			if rapid.Bool().Draw(rt, "delete") {
				clone.Delete(key)
			} else {
				clone.Set(key, -key, true)
			}
		}

		after := tr.KeysArray()
		if len(before) != len(after) {
			rt.Fatalf("original tree mutated: before=%d keys, after=%d keys", len(before), len(after))
		}
		for i := range before {
			if before[i] != after[i] {
				rt.Fatalf("original tree mutated at index %d: %d -> %d", i, before[i], after[i])
			}
		}
		tr.CheckValid()
		clone.CheckValid()
	})
}

// TestProperty_UnionContainsBothSides checks that every key from either
// input tree is present in the union.
func TestProperty_UnionContainsBothSides(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxNodeSize := rapid.IntRange(4, 16).Draw(rt, "maxNodeSize")
		a := newTestIntTree(maxNodeSize)
		b := newTestIntTree(maxNodeSize)
		for i := 0; i < rapid.IntRange(0, 40).Draw(rt, "aSize"); i++ {
			k := rapid.IntRange(-50, 50).Draw(rt, "aKey")
			a.Set(k, k, true)
		}
		for i := 0; i < rapid.IntRange(0, 40).Draw(rt, "bSize"); i++ {
			k := rapid.IntRange(-50, 50).Draw(rt, "bKey")
			b.Set(k, k, true)
		}

		u, err := Union(a, b, func(_ int, av, _ int) int { return av })
		if err != nil {
			rt.Fatalf("union failed: %v", err)
		}
		u.CheckValid()
		for _, k := range a.KeysArray() {
			if !u.Has(k) {
				rt.Fatalf("union missing key %d from a", k)
			}
		}
		for _, k := range b.KeysArray() {
			if !u.Has(k) {
				rt.Fatalf("union missing key %d from b", k)
			}
		}
		if u.Size() < a.Size() || u.Size() < b.Size() {
			rt.Fatalf("union size %d smaller than an input (a=%d b=%d)", u.Size(), a.Size(), b.Size())
		}
	})
}

// TestProperty_SubtractRemovesExactlyRemoveKeys checks that
// subtract(target, remove) contains exactly target's keys minus remove's.
func TestProperty_SubtractRemovesExactlyRemoveKeys(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxNodeSize := rapid.IntRange(4, 16).Draw(rt, "maxNodeSize")
		target := newTestIntTree(maxNodeSize)
		remove := newTestIntTree(maxNodeSize)
		for i := 0; i < rapid.IntRange(0, 40).Draw(rt, "targetSize"); i++ {
			k := rapid.IntRange(-50, 50).Draw(rt, "targetKey")
			target.Set(k, k, true)
		}
		for i := 0; i < rapid.IntRange(0, 40).Draw(rt, "removeSize"); i++ {
			k := rapid.IntRange(-50, 50).Draw(rt, "removeKey")
			remove.Set(k, k, true)
		}

		s, err := Subtract(target, remove)
		if err != nil {
			rt.Fatalf("subtract failed: %v", err)
		}
		s.CheckValid()
		for _, k := range target.KeysArray() {
			want := !remove.Has(k)
			if got := s.Has(k); got != want {
				rt.Fatalf("subtract key %d: got present=%v want present=%v", k, got, want)
			}
		}
		for _, k := range s.KeysArray() {
			if !target.Has(k) {
				rt.Fatalf("subtract produced key %d not in target", k)
			}
		}
	})
}

// TestProperty_BulkLoadRoundTrips checks spec.md §8 property 13: bulk
// loading a sorted pair slice reproduces exactly that slice on read-back.
func TestProperty_BulkLoadRoundTrips(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(0, 200).Draw(rt, "count")
		keySet := make(map[int]struct{}, count)
		for i := 0; i < count*2 && len(keySet) < count; i++ {
			keySet[rapid.IntRange(-1000, 1000).Draw(rt, "key")] = struct{}{}
		}
		keys := make([]int, 0, len(keySet))
		for k := range keySet {
			keys = append(keys, k)
		}
		sortInts(keys)
		pairs := make([]Pair[int, int], len(keys))
		for i, k := range keys {
			pairs[i] = Pair[int, int]{Key: k, Value: k * 2}
		}
		maxNodeSize := rapid.IntRange(4, 32).Draw(rt, "maxNodeSize")
		tr, err := BulkLoad(pairs, OrderedCompare[int], maxNodeSize)
		if err != nil {
			rt.Fatalf("bulk load failed: %v", err)
		}
		tr.CheckValid()
		got := tr.PairsArray()
		if len(got) != len(pairs) {
			rt.Fatalf("pair count mismatch: got %d want %d", len(got), len(pairs))
		}
		for i := range pairs {
			if got[i] != pairs[i] {
				rt.Fatalf("pair mismatch at %d: got %+v want %+v", i, got[i], pairs[i])
			}
		}
	})
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
