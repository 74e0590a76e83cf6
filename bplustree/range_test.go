package bplustree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditRangeSetValue(t *testing.T) {
	tr := newTestIntTree(4)
	for i := 0; i < 20; i++ {
		tr.Set(i, i, true)
	}
	low, high := 5, 10
	counter, _, broke := EditRange[int, int, struct{}](tr, &low, &high, true, 0,
		func(k, v int, _ int) RangeResult[int, struct{}] {
			return SetAndContinue[int, struct{}](v * 100)
		})
	assert.Equal(t, 6, counter)
	assert.False(t, broke)
	for i := 5; i <= 10; i++ {
		v, _ := tr.GetOk(i)
		assert.Equal(t, i*100, v)
	}
	v, _ := tr.GetOk(4)
	assert.Equal(t, 4, v)
	tr.CheckValid()
}

func TestEditRangeBreak(t *testing.T) {
	tr := newTestIntTree(4)
	for i := 0; i < 20; i++ {
		tr.Set(i, i, true)
	}
	counter, brk, broke := EditRange[int, int, string](tr, nil, nil, false, 0,
		func(k, v int, c int) RangeResult[int, string] {
			if k == 7 {
				return BreakWith[int, string]("stopped")
			}
			return ContinueScan[int, string]()
		})
	require.True(t, broke)
	assert.Equal(t, "stopped", brk)
	assert.Equal(t, 8, counter)
}

func TestEditRangeDeleteUnderflowMerges(t *testing.T) {
	tr := newTestIntTree(4)
	for i := 0; i < 40; i++ {
		tr.Set(i, i, true)
	}
	n := tr.DeleteRange(5, 35, false)
	assert.Equal(t, 30, n)
	tr.CheckValid()
	assert.Equal(t, 10, tr.Size())
	for i := 0; i < 5; i++ {
		assert.True(t, tr.Has(i))
	}
	for i := 35; i < 40; i++ {
		assert.True(t, tr.Has(i))
	}
}

// TestDeleteRangeSeedScenario reproduces spec.md's literal seed example:
// build with keys 0..63 (maxNodeSize=4), deleteRange(1, 16, false); expect
// height unchanged, size 49, min key 0, max key 63 (with a hole at
// [1..15]).
func TestDeleteRangeSeedScenario(t *testing.T) {
	tr := newTestIntTree(4)
	for i := 0; i < 64; i++ {
		tr.Set(i, i, true)
	}
	heightBefore := tr.Height()

	n := tr.DeleteRange(1, 16, false)
	assert.Equal(t, 15, n)
	tr.CheckValid()
	assert.Equal(t, 49, tr.Size())
	assert.Equal(t, heightBefore, tr.Height())

	mn, _ := tr.MinKey()
	mx, _ := tr.MaxKey()
	assert.Equal(t, 0, mn)
	assert.Equal(t, 63, mx)
	for i := 1; i < 16; i++ {
		assert.False(t, tr.Has(i))
	}
	assert.True(t, tr.Has(0))
	for i := 16; i < 64; i++ {
		assert.True(t, tr.Has(i))
	}
}

func TestForRangeCannotMutate(t *testing.T) {
	tr := newTestIntTree(4)
	for i := 0; i < 10; i++ {
		tr.Set(i, i, true)
	}
	assert.Panics(t, func() {
		ForRange[int, int, struct{}](tr, nil, nil, false, 0,
			func(k, v int, c int) RangeResult[int, struct{}] {
				return SetAndContinue[int, struct{}](v + 1)
			})
	})
}
