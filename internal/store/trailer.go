package store

import "encoding/binary"

// IndexKind identifies one of the slots in a trailer's index-header address
// array. SPEC_FULL.md adds IndexMetadata to the distilled spec's single
// primary index, mirroring the original pstore trailer's fixed-size array
// of typed index-header addresses.
type IndexKind int

const (
	IndexPrimary IndexKind = iota
	IndexMetadata
	numIndexKinds
)

// trailerSignature1 and trailerSignature2 bracket a trailer so that fsck-ing
// the revision chain can detect truncation or corruption independently of
// the header's own signatures.
const (
	trailerSignature1 uint64 = 0x7472_6c72_3053_7467 // "gtS0rlrt" as little-endian bytes
	trailerSignature2 uint64 = 0x0a0a_6c69_6172_7430 // "0trail\n\n" as little-endian bytes
)

// trailerSize is the serialised size of Trailer.
const trailerSize = 8 + 8 + 8 + 8 + int(numIndexKinds)*9 + 8

// IndexRef names one index-header slot: the root's store address plus the
// one-byte tag needed to interpret it (an index whose root is a single
// leaf, an internal node, or a linear node are three different wire
// shapes, and a bare address does not say which). The tag's values are
// opaque to the store package; hamt.RootKind defines what they mean.
type IndexRef struct {
	Kind byte
	Addr Address
}

// Trailer is a per-revision footer: it carries the generation number, the
// size of user data written by that revision, a link to the previous
// trailer (forming the revision chain) and one index reference per index
// kind.
type Trailer struct {
	Generation     uint64
	Size           uint64
	PrevGeneration Address // NullAddress for generation 0
	Indices        [numIndexKinds]IndexRef
}

// Encode serialises the trailer, bracketed by its two signatures.
func (t Trailer) Encode() []byte {
	buf := make([]byte, trailerSize)
	o := 0
	binary.LittleEndian.PutUint64(buf[o:], trailerSignature1)
	o += 8
	binary.LittleEndian.PutUint64(buf[o:], t.Generation)
	o += 8
	binary.LittleEndian.PutUint64(buf[o:], t.Size)
	o += 8
	binary.LittleEndian.PutUint64(buf[o:], uint64(t.PrevGeneration))
	o += 8
	for _, ref := range t.Indices {
		buf[o] = ref.Kind
		binary.LittleEndian.PutUint64(buf[o+1:], uint64(ref.Addr))
		o += 9
	}
	binary.LittleEndian.PutUint64(buf[o:], trailerSignature2)
	return buf
}

// DecodeTrailer parses and validates a trailer from buf, which must be at
// least trailerSize bytes.
func DecodeTrailer(buf []byte) (Trailer, error) {
	if len(buf) < trailerSize {
		return Trailer{}, ErrHeaderCorrupt
	}
	var t Trailer
	o := 0
	sig1 := binary.LittleEndian.Uint64(buf[o:])
	o += 8
	if sig1 != trailerSignature1 {
		return Trailer{}, ErrHeaderCorrupt
	}
	t.Generation = binary.LittleEndian.Uint64(buf[o:])
	o += 8
	t.Size = binary.LittleEndian.Uint64(buf[o:])
	o += 8
	t.PrevGeneration = Address(binary.LittleEndian.Uint64(buf[o:]))
	o += 8
	for i := range t.Indices {
		t.Indices[i] = IndexRef{
			Kind: buf[o],
			Addr: Address(binary.LittleEndian.Uint64(buf[o+1:])),
		}
		o += 9
	}
	sig2 := binary.LittleEndian.Uint64(buf[o:])
	if sig2 != trailerSignature2 {
		return Trailer{}, ErrHeaderCorrupt
	}
	if t.Generation > 0 && t.PrevGeneration.IsNull() {
		return Trailer{}, ErrHeaderCorrupt
	}
	if t.Generation == 0 && !t.PrevGeneration.IsNull() {
		return Trailer{}, ErrHeaderCorrupt
	}
	return t, nil
}
