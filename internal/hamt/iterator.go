package hamt

// Iterator performs a forward-only, depth-first traversal of an index,
// yielding every leaf reachable from the root. It works uniformly across
// heap-resident and store-resident nodes: store nodes are resolved lazily,
// one level at a time, as the traversal reaches them.
//
// An iterator returned by a mutating call remains valid until the next
// mutating call or Flush, per the spec; this implementation holds a
// snapshot of the root child at construction time, so it is unaffected by
// mutations performed afterward (but also will not see them).
type Iterator[K, V any] struct {
	idx   *Index[K, V]
	r     StoreReader
	stack []frame[K, V]
	key   K
	val   V
	err   error
}

type frame[K, V any] struct {
	children []child[K, V]
	pos      int
}

// Begin returns an iterator positioned before the first leaf.
func (idx *Index[K, V]) Begin(r StoreReader) *Iterator[K, V] {
	return &Iterator[K, V]{
		idx:   idx,
		r:     r,
		stack: []frame[K, V]{{children: []child[K, V]{idx.root}}},
	}
}

// Next advances the iterator and reports whether a leaf was found. On
// false, check Err.
func (it *Iterator[K, V]) Next() bool {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if top.pos >= len(top.children) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		c := top.children[top.pos]
		top.pos++

		switch c.kind {
		case childStoreLeaf, childHeapLeaf:
			if c.addr.IsNull() && c.kind == childStoreLeaf && c.leaf == nil {
				continue // the empty-tree sentinel carries no leaf
			}
			k, _, err := it.idx.keyHashOf(it.r, c)
			if err != nil {
				it.err = err
				return false
			}
			v, err := it.idx.valueOf(it.r, c)
			if err != nil {
				it.err = err
				return false
			}
			it.key, it.val = k, v
			return true

		case childHeapNode:
			it.stack = append(it.stack, frame[K, V]{children: c.node.children})

		case childStoreInternal:
			_, entries, err := loadInternal(it.r, c.addr)
			if err != nil {
				it.err = err
				return false
			}
			children := make([]child[K, V], len(entries))
			for i, e := range entries {
				children[i] = child[K, V]{kind: e.kind, addr: e.addr}
			}
			it.stack = append(it.stack, frame[K, V]{children: children})

		case childStoreLinear:
			addrs, err := loadLinear(it.r, c.addr)
			if err != nil {
				it.err = err
				return false
			}
			children := make([]child[K, V], len(addrs))
			for i, a := range addrs {
				children[i] = child[K, V]{kind: childStoreLeaf, addr: a}
			}
			it.stack = append(it.stack, frame[K, V]{children: children})
		}
	}
	return false
}

// Key returns the current leaf's key. Valid only after Next returns true.
func (it *Iterator[K, V]) Key() K { return it.key }

// Value returns the current leaf's value. Valid only after Next returns true.
func (it *Iterator[K, V]) Value() V { return it.val }

// Err returns the first error encountered during traversal, if any.
func (it *Iterator[K, V]) Err() error { return it.err }
