package bplustree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDiffAgainstSeedScenario reproduces spec.md's literal seed example:
// build T from keys 0..99, clone to T2, apply a handful of edits, then diff
// with a `different` callback that breaks on the first differing key.
// Keys -1 and 10 are only-other/only-this events, whose callbacks are nil
// here, so the first `different` event is at key 20, where T has value 20
// and T2 has value -1.
func TestDiffAgainstSeedScenario(t *testing.T) {
	T := newTestIntTree(8)
	for i := 0; i < 100; i++ {
		T.Set(i, i, true)
	}
	T2 := T.Clone()
	T2.Set(-1, -1, true)
	T2.Delete(10)
	T2.Set(20, -1, true)
	T2.Set(110, -1, true)

	brk, broke, err := DiffAgainst[int, int, int](T, T2, nil, nil,
		func(key int, _, _ int) DiffResult[int] {
			return DiffBreak(key)
		})
	require.NoError(t, err)
	require.True(t, broke)
	assert.Equal(t, 20, brk)
}

func TestDiffAgainstCollectsEventKinds(t *testing.T) {
	a := buildRange(4, 0, 20)
	b := buildRange(4, 10, 30)
	b.Set(15, 9999, true)

	var onlyA, onlyB []int
	var different []int
	_, broke, err := DiffAgainst[int, int, struct{}](a, b,
		func(key int, _ int) DiffResult[struct{}] {
			onlyA = append(onlyA, key)
			return DiffContinue[struct{}]()
		},
		func(key int, _ int) DiffResult[struct{}] {
			onlyB = append(onlyB, key)
			return DiffContinue[struct{}]()
		},
		func(key int, _, _ int) DiffResult[struct{}] {
			different = append(different, key)
			return DiffContinue[struct{}]()
		})
	require.NoError(t, err)
	assert.False(t, broke)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, onlyA)
	assert.ElementsMatch(t, []int{20, 21, 22, 23, 24, 25, 26, 27, 28, 29}, onlyB)
	assert.Equal(t, []int{15}, different)
}

func TestDiffAgainstEmptyCases(t *testing.T) {
	a := buildRange(4, 0, 10)
	empty := newTestIntTree(4)

	var seen []int
	_, broke, err := DiffAgainst[int, int, struct{}](a, empty,
		func(key int, _ int) DiffResult[struct{}] {
			seen = append(seen, key)
			return DiffContinue[struct{}]()
		}, nil, nil)
	require.NoError(t, err)
	assert.False(t, broke)
	assert.Len(t, seen, 10)

	_, broke, err = DiffAgainst[int, int, struct{}](empty, empty, nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, broke)
}

func TestDiffAgainstIdenticalTree(t *testing.T) {
	a := buildRange(4, 0, 30)
	called := false
	_, broke, err := DiffAgainst[int, int, struct{}](a, a, nil, nil,
		func(int, int, int) DiffResult[struct{}] {
			called = true
			return DiffContinue[struct{}]()
		})
	require.NoError(t, err)
	assert.False(t, broke)
	assert.False(t, called)
}
