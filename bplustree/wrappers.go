package bplustree

// With returns a clone of t with key set to value.
func (t *Tree[K, V]) With(key K, value V) *Tree[K, V] {
	c := t.Clone()
	c.Set(key, value, true)
	return c
}

// WithPairs returns a clone of t with every pair set.
func (t *Tree[K, V]) WithPairs(pairs []Pair[K, V]) *Tree[K, V] {
	c := t.Clone()
	for _, p := range pairs {
		c.Set(p.Key, p.Value, true)
	}
	return c
}

// WithKeys returns a clone of t with every listed key set to value.
func (t *Tree[K, V]) WithKeys(keys []K, value V) *Tree[K, V] {
	c := t.Clone()
	for _, k := range keys {
		c.Set(k, value, true)
	}
	return c
}

// Without returns a clone of t with key removed.
func (t *Tree[K, V]) Without(key K) *Tree[K, V] {
	c := t.Clone()
	c.Delete(key)
	return c
}

// WithoutKeys returns a clone of t with every listed key removed.
func (t *Tree[K, V]) WithoutKeys(keys []K) *Tree[K, V] {
	c := t.Clone()
	for _, k := range keys {
		c.Delete(k)
	}
	return c
}

// WithoutRange returns a clone of t with every key in [low, high) (or
// [low, high] if includeHigh) removed.
func (t *Tree[K, V]) WithoutRange(low, high K, includeHigh bool) *Tree[K, V] {
	c := t.Clone()
	c.DeleteRange(low, high, includeHigh)
	return c
}

// Filter returns a new tree containing only the pairs for which keep
// returns true.
func (t *Tree[K, V]) Filter(keep func(key K, value V) bool) *Tree[K, V] {
	out := New[K, V](Options[K, V]{Compare: t.compare, ValueEqual: t.valueEqual, MaxNodeSize: t.maxNodeSize})
	t.ForEach(func(k K, v V) bool {
		if keep(k, v) {
			out.Set(k, v, true)
		}
		return true
	})
	return out
}

// MapValues returns a new tree with the same keys, each value replaced by
// fn(key, value).
func (t *Tree[K, V]) MapValues(fn func(key K, value V) V) *Tree[K, V] {
	out := New[K, V](Options[K, V]{Compare: t.compare, ValueEqual: t.valueEqual, MaxNodeSize: t.maxNodeSize})
	t.ForEach(func(k K, v V) bool {
		out.Set(k, fn(k, v), true)
		return true
	})
	return out
}
