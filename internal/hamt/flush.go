package hamt

import "github.com/orbas1/pstore/internal/store"

// Flush serialises every heap-resident node and leaf reachable from the
// root into the transaction's allocation arena (post-order: children
// before parents), rewriting the tree to reference the resulting store
// addresses. It returns the address to record in the next trailer's
// index-header slot (store.NullAddress for an empty, untouched index).
//
// Flush is not reentrant: calling it while a prior call on the same index
// is still in progress is a programmer error.
//
// Flush returns, alongside the root address, the RootKind a caller must
// persist with it (e.g. in a trailer's index-header slot) to be able to
// reopen this index later via Open.
func (idx *Index[K, V]) Flush(alloc Allocator) (store.Address, RootKind, error) {
	if idx.flushing {
		panic("hamt: Flush is not reentrant")
	}
	if !idx.touched {
		return idx.Root(), idx.RootKindOf(), nil
	}
	idx.flushing = true
	defer func() { idx.flushing = false }()

	addr, kind, err := idx.flushChild(alloc, idx.root)
	if err != nil {
		return store.NullAddress, RootEmpty, err
	}
	idx.root = child[K, V]{kind: kind, addr: addr}
	idx.touched = false
	return addr, idx.RootKindOf(), nil
}

func (idx *Index[K, V]) flushChild(alloc Allocator, c child[K, V]) (store.Address, childKind, error) {
	switch c.kind {
	case childStoreLeaf, childStoreInternal, childStoreLinear:
		return c.addr, c.kind, nil

	case childHeapLeaf:
		payload := idx.encode(c.leaf.key, c.leaf.value)
		buf := encodeLeaf(payload)
		addr, err := alloc.Allocate(uint64(len(buf)), 1)
		if err != nil {
			return store.NullAddress, 0, err
		}
		if err := alloc.WriteRW(addr, buf); err != nil {
			return store.NullAddress, 0, err
		}
		return addr, childStoreLeaf, nil

	case childHeapNode:
		nd := c.node
		if nd.isLinear {
			addrs := make([]store.Address, len(nd.children))
			for i, cc := range nd.children {
				a, _, err := idx.flushChild(alloc, cc)
				if err != nil {
					return store.NullAddress, 0, err
				}
				addrs[i] = a
			}
			buf := encodeLinear(addrs)
			addr, err := alloc.Allocate(uint64(len(buf)), 4)
			if err != nil {
				return store.NullAddress, 0, err
			}
			if err := alloc.WriteRW(addr, buf); err != nil {
				return store.NullAddress, 0, err
			}
			return addr, childStoreLinear, nil
		}

		addrs := make([]store.Address, len(nd.children))
		tags := make([]byte, len(nd.children))
		for i, cc := range nd.children {
			a, k, err := idx.flushChild(alloc, cc)
			if err != nil {
				return store.NullAddress, 0, err
			}
			addrs[i] = a
			tags[i] = kindToTag(k)
		}
		buf := encodeInternal(nd.bitmap, addrs, tags)
		addr, err := alloc.Allocate(uint64(len(buf)), 8)
		if err != nil {
			return store.NullAddress, 0, err
		}
		if err := alloc.WriteRW(addr, buf); err != nil {
			return store.NullAddress, 0, err
		}
		return addr, childStoreInternal, nil

	default:
		return store.NullAddress, 0, nil
	}
}
