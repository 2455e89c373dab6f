package hamt

import (
	"fmt"
	"math/bits"

	"github.com/orbas1/pstore/internal/store"
)

// Fsck walks every node reachable from the index's current root, entirely
// through the store, and validates the structural invariants a published
// index must hold:
//
//   - every internal node's bitmap is non-zero
//   - popcount(bitmap) equals the length of its child array
//   - every child's store address is strictly less than its parent's,
//     since the trie is always serialised post-order (children before
//     parents) during Flush
//   - no child claims to still be heap-resident
//
// Fsck refuses to run over an index with any unflushed heap node, since
// such an index has no meaningful store address to check reachability
// against.
func (idx *Index[K, V]) Fsck(r StoreReader) error {
	if idx.touched {
		return fmt.Errorf("hamt: fsck requires a flushed index")
	}
	if idx.root.kind == childStoreLeaf && idx.root.addr.IsNull() {
		return nil // empty index
	}
	return fsckNode(r, idx.root.kind, idx.root.addr, store.Address(^uint64(0)))
}

// fsckNode is the kind-erased core of Fsck; the structural checks
// performed here never depend on the index's K or V, so the recursion is
// written against the on-disk tag/address alone rather than the generic
// child type, which would force a type parameter onto the checker itself.
func fsckNode(r StoreReader, kind childKind, addr store.Address, parentAddr store.Address) error {
	switch kind {
	case childHeapLeaf, childHeapNode:
		return fmt.Errorf("hamt: fsck found a heap-resident child in a supposedly published index")

	case childStoreLeaf:
		if addr.IsNull() {
			return nil
		}
		if parentAddr != store.Address(^uint64(0)) && addr >= parentAddr {
			return fmt.Errorf("hamt: fsck: leaf at %d does not precede parent at %d", addr, parentAddr)
		}
		_, err := loadLeafBytes(r, addr)
		return err

	case childStoreLinear:
		if parentAddr != store.Address(^uint64(0)) && addr >= parentAddr {
			return fmt.Errorf("hamt: fsck: linear node at %d does not precede parent at %d", addr, parentAddr)
		}
		entries, err := loadLinear(r, addr)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("hamt: fsck: linear node at %d has no entries", addr)
		}
		for _, a := range entries {
			if a >= addr {
				return fmt.Errorf("hamt: fsck: linear node at %d has a leaf at %d that does not precede it", addr, a)
			}
			if _, err := loadLeafBytes(r, a); err != nil {
				return err
			}
		}
		return nil

	case childStoreInternal:
		if parentAddr != store.Address(^uint64(0)) && addr >= parentAddr {
			return fmt.Errorf("hamt: fsck: internal node at %d does not precede parent at %d", addr, parentAddr)
		}
		bitmap, entries, err := loadInternal(r, addr)
		if err != nil {
			return err
		}
		if bitmap == 0 {
			return fmt.Errorf("hamt: fsck: internal node at %d has a zero bitmap", addr)
		}
		if want := bits.OnesCount64(bitmap); want != len(entries) {
			return fmt.Errorf("hamt: fsck: internal node at %d has bitmap popcount %d but %d children", addr, want, len(entries))
		}
		for _, e := range entries {
			if err := fsckNode(r, e.kind, e.addr, addr); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("hamt: fsck: unknown child kind %d", kind)
	}
}
