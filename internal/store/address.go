// Package store implements pstore's storage substrate: a file-backed,
// segmented 64-bit address space with lazy region mapping and
// write-protection of committed bytes.
package store

import "math"

// segmentShift is the number of bits of an Address given over to the
// in-segment offset. Segments are fixed at 1<<segmentShift bytes, the unit
// of memory mapping.
const segmentShift = 20

// SegmentSize is the fixed size, in bytes, of one segment.
const SegmentSize = 1 << segmentShift

const offsetMask = SegmentSize - 1

// pageSize is the assumed system page granularity used to size the leader
// (the padding between the header and the first trailer) and to decide how
// many bytes of a protected region remain writable (the header's own page).
const pageSize = 4096

// LeaderSize is the offset of generation 0's trailer: the header padded up
// to a page boundary.
const LeaderSize = pageSize

// Address is a 64-bit file-relative location in the store: a segment number
// in the high bits and a byte offset within that segment in the low bits.
// Addresses are stable across opens; they name a position in the on-disk
// file.
type Address uint64

// NullAddress is the distinguished "no address" sentinel.
const NullAddress Address = Address(math.MaxUint64)

// MakeAddress builds an Address from a segment number and in-segment offset.
func MakeAddress(segment uint64, offset uint32) Address {
	return Address(segment<<segmentShift | uint64(offset&offsetMask))
}

// Segment returns the segment number this address falls within.
func (a Address) Segment() uint64 { return uint64(a) >> segmentShift }

// Offset returns the byte offset within Segment().
func (a Address) Offset() uint32 { return uint32(uint64(a) & offsetMask) }

// IsNull reports whether a is the null sentinel.
func (a Address) IsNull() bool { return a == NullAddress }

// Add returns a+n, or an error if doing so would wrap the address space or
// cross from a valid address into the null sentinel.
func (a Address) Add(n uint64) (Address, error) {
	if a.IsNull() {
		return NullAddress, ErrBadAddress
	}
	sum := uint64(a) + n
	if sum < uint64(a) || Address(sum).IsNull() {
		return NullAddress, ErrBadAddress
	}
	return Address(sum), nil
}

// TypedAddress is an Address tagged with the Go type it denotes. The tag is
// a compile-time convenience only; it is not part of the on-disk
// representation.
type TypedAddress[T any] struct {
	Addr Address
}

// MakeTyped wraps addr as a TypedAddress[T].
func MakeTyped[T any](addr Address) TypedAddress[T] {
	return TypedAddress[T]{Addr: addr}
}

// IsNull reports whether the wrapped address is the null sentinel.
func (t TypedAddress[T]) IsNull() bool { return t.Addr.IsNull() }
