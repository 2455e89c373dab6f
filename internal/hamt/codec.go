package hamt

import (
	"encoding/binary"
	"math/bits"

	"github.com/orbas1/pstore/internal/store"
)

// On-disk child tags, per spec §6: "each either a store address tagged by
// variant or a leaf address". Rather than packing the tag into the
// address's low bits (which the spec's own redesign notes warn against,
// §9), each child is serialised as an explicit one-byte tag followed by an
// 8-byte address — simpler to read in any target language and leaves the
// full 64-bit address space usable.
const (
	wireLeaf     byte = 0
	wireInternal byte = 1
	wireLinear   byte = 2
)

// encodeInternal serialises an internal node: bitmap (u64) followed by
// popcount(bitmap) (tag byte, address) pairs.
func encodeInternal(bitmap uint64, addrs []store.Address, tags []byte) []byte {
	n := len(addrs)
	buf := make([]byte, 8+n*9)
	binary.LittleEndian.PutUint64(buf, bitmap)
	o := 8
	for i := 0; i < n; i++ {
		buf[o] = tags[i]
		binary.LittleEndian.PutUint64(buf[o+1:], uint64(addrs[i]))
		o += 9
	}
	return buf
}

// encodeLinear serialises a linear node: a u32 count followed by that many
// leaf addresses.
func encodeLinear(addrs []store.Address) []byte {
	buf := make([]byte, 4+len(addrs)*8)
	binary.LittleEndian.PutUint32(buf, uint32(len(addrs)))
	o := 4
	for _, a := range addrs {
		binary.LittleEndian.PutUint64(buf[o:], uint64(a))
		o += 8
	}
	return buf
}

// encodeLeaf serialises a leaf: a u32 length followed by the opaque
// key/value bytes.
func encodeLeaf(payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	return buf
}

// storeChildEntry is one decoded child of an on-disk internal node.
type storeChildEntry struct {
	kind childKind
	addr store.Address
}

func tagToKind(tag byte) childKind {
	switch tag {
	case wireInternal:
		return childStoreInternal
	case wireLinear:
		return childStoreLinear
	default:
		return childStoreLeaf
	}
}

func kindToTag(k childKind) byte {
	switch k {
	case childStoreInternal, childHeapNode:
		return wireInternal
	case childStoreLinear:
		return wireLinear
	default:
		return wireLeaf
	}
}

// loadInternal reads and decodes the internal node at addr.
func loadInternal(r StoreReader, addr store.Address) (uint64, []storeChildEntry, error) {
	bm, err := r.GetRO(addr, 8)
	if err != nil {
		return 0, nil, err
	}
	bitmap := binary.LittleEndian.Uint64(bm)
	n := bits.OnesCount64(bitmap)
	if n == 0 {
		return 0, nil, store.ErrIndexCorrupt
	}
	body, err := addr.Add(8)
	if err != nil {
		return 0, nil, err
	}
	raw, err := r.GetRO(body, uint32(n*9))
	if err != nil {
		return 0, nil, err
	}
	entries := make([]storeChildEntry, n)
	o := 0
	for i := 0; i < n; i++ {
		entries[i].kind = tagToKind(raw[o])
		entries[i].addr = store.Address(binary.LittleEndian.Uint64(raw[o+1:]))
		o += 9
	}
	return bitmap, entries, nil
}

// loadLinear reads and decodes the linear node at addr.
func loadLinear(r StoreReader, addr store.Address) ([]store.Address, error) {
	cb, err := r.GetRO(addr, 4)
	if err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(cb)
	body, err := addr.Add(4)
	if err != nil {
		return nil, err
	}
	raw, err := r.GetRO(body, n*8)
	if err != nil {
		return nil, err
	}
	out := make([]store.Address, n)
	for i := uint32(0); i < n; i++ {
		out[i] = store.Address(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return out, nil
}

// loadLeafBytes reads the opaque payload of the leaf at addr.
func loadLeafBytes(r StoreReader, addr store.Address) ([]byte, error) {
	lb, err := r.GetRO(addr, 4)
	if err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lb)
	body, err := addr.Add(4)
	if err != nil {
		return nil, err
	}
	return r.GetRO(body, n)
}

// loadLeaf reads and decodes the key/value at addr, along with the
// recomputed hash of the key (hashes are never stored on disk).
func (idx *Index[K, V]) loadLeaf(r StoreReader, addr store.Address) (K, V, uint64, error) {
	payload, err := loadLeafBytes(r, addr)
	if err != nil {
		var zk K
		var zv V
		return zk, zv, 0, err
	}
	k, v, err := idx.decode(payload)
	if err != nil {
		var zk K
		var zv V
		return zk, zv, 0, err
	}
	return k, v, idx.hash(k), nil
}

// keyHashOf resolves a child's key and hash, regardless of whether it is a
// heap-resident pending leaf or a store-resident published one.
func (idx *Index[K, V]) keyHashOf(r StoreReader, c child[K, V]) (K, uint64, error) {
	if c.kind == childHeapLeaf {
		return c.leaf.key, c.leaf.hash, nil
	}
	k, _, h, err := idx.loadLeaf(r, c.addr)
	return k, h, err
}

func (idx *Index[K, V]) valueOf(r StoreReader, c child[K, V]) (V, error) {
	if c.kind == childHeapLeaf {
		return c.leaf.value, nil
	}
	_, v, _, err := idx.loadLeaf(r, c.addr)
	return v, err
}
