package bplustree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIteratorForward(t *testing.T) {
	tr := newTestIntTree(4)
	for _, k := range []int{5, 1, 9, 3, 7} {
		tr.Set(k, k*10, true)
	}
	c := tr.Iterator()
	var keys []int
	for c.Next() {
		keys = append(keys, c.Key())
		assert.Equal(t, c.Key()*10, c.Value())
	}
	assert.Equal(t, []int{1, 3, 5, 7, 9}, keys)
}

func TestIteratorReverse(t *testing.T) {
	tr := newTestIntTree(4)
	for _, k := range []int{5, 1, 9, 3, 7} {
		tr.Set(k, k*10, true)
	}
	c := tr.ReverseIterator()
	var keys []int
	for c.Next() {
		keys = append(keys, c.Key())
	}
	assert.Equal(t, []int{9, 7, 5, 3, 1}, keys)
}

func TestIteratorEmptyTree(t *testing.T) {
	tr := newTestIntTree(4)
	c := tr.Iterator()
	assert.False(t, c.Next())
}

func TestIteratorFrom(t *testing.T) {
	tr := newTestIntTree(4)
	for i := 0; i < 30; i += 2 {
		tr.Set(i, i, true)
	}

	c := tr.IteratorFrom(11)
	require.True(t, c.Valid())
	assert.Equal(t, 12, c.Key())
	var rest []int
	for {
		rest = append(rest, c.Key())
		if !c.Next() {
			break
		}
	}
	assert.Equal(t, []int{12, 14, 16, 18, 20, 22, 24, 26, 28}, rest)

	exact := tr.IteratorFrom(10)
	require.True(t, exact.Valid())
	assert.Equal(t, 10, exact.Key())
}

func TestReverseIteratorFrom(t *testing.T) {
	tr := newTestIntTree(4)
	for i := 0; i < 30; i += 2 {
		tr.Set(i, i, true)
	}

	c := tr.ReverseIteratorFrom(11, false)
	require.True(t, c.Valid())
	assert.Equal(t, 10, c.Key())

	exact := tr.ReverseIteratorFrom(10, false)
	require.True(t, exact.Valid())
	assert.Equal(t, 10, exact.Key())

	skipped := tr.ReverseIteratorFrom(10, true)
	require.True(t, skipped.Valid())
	assert.Equal(t, 8, skipped.Key())
}

func TestCursorSeek(t *testing.T) {
	tr := newTestIntTree(4)
	for i := 0; i < 30; i += 2 {
		tr.Set(i, i, true)
	}
	fwd := tr.Iterator()
	ok := fwd.seek(11, false)
	require.True(t, ok)
	assert.Equal(t, 12, fwd.Key())

	rev := tr.ReverseIterator()
	ok = rev.seek(11, false)
	require.True(t, ok)
	assert.Equal(t, 10, rev.Key())
}
