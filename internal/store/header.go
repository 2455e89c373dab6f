package store

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/google/uuid"
)

// Signature1 and Signature2 are the two file-signature constants stored at
// the head of a pstore file. Their values are arbitrary but fixed so that
// open() can recognise a pstore file and reject foreign ones.
const (
	Signature1 uint64 = 0x7265_74_73_5f70_7373 // "ssp_ster" as little-endian bytes
	Signature2 uint64 = 0xfeed_c0de_1ab5_15ed
)

// VersionMajor and VersionMinor are the on-disk format version this build
// writes. DecodeHeader accepts only files whose major version equals
// VersionMajor; it does not check the minor version.
const (
	VersionMajor uint16 = 1
	VersionMinor uint16 = 0
)

// headerSize is the serialised size, in bytes, of Header: two 8-byte
// signatures, two 2-byte version fields, a 4-byte header_size, a 16-byte
// uuid, an 8-byte footer_pos and a 4-byte crc.
const headerSize = 8 + 8 + 2 + 2 + 4 + 16 + 8 + 4

// Header is the store's file header, resident at offset 0.
type Header struct {
	Signature1   uint64
	Signature2   uint64
	VersionMajor uint16
	VersionMinor uint16
	HeaderSize   uint32
	UUID         uuid.UUID
	FooterPos    Address // atomically updated; points to the newest trailer
	CRC          uint32
}

// NewHeader builds a fresh header for an empty store, with FooterPos
// pointing at generation 0's trailer (LeaderSize) and a valid CRC.
func NewHeader() Header {
	h := Header{
		Signature1:   Signature1,
		Signature2:   Signature2,
		VersionMajor: VersionMajor,
		VersionMinor: VersionMinor,
		HeaderSize:   headerSize,
		UUID:         uuid.New(),
		FooterPos:    Address(LeaderSize),
	}
	h.CRC = h.computeCRC()
	return h
}

// computeCRC returns the CRC-32 (IEEE) of the header prefix preceding the
// crc field itself. The spec leaves the polynomial unfixed; IEEE is chosen
// for consistency with Go's stdlib hash/crc32 default, see SPEC_FULL.md.
func (h Header) computeCRC() uint32 {
	buf := h.encodePrefix()
	return crc32.ChecksumIEEE(buf)
}

// encodePrefix serialises every header field except CRC, in on-wire order.
func (h Header) encodePrefix() []byte {
	buf := make([]byte, headerSize-4)
	o := 0
	binary.LittleEndian.PutUint64(buf[o:], h.Signature1)
	o += 8
	binary.LittleEndian.PutUint64(buf[o:], h.Signature2)
	o += 8
	binary.LittleEndian.PutUint16(buf[o:], h.VersionMajor)
	o += 2
	binary.LittleEndian.PutUint16(buf[o:], h.VersionMinor)
	o += 2
	binary.LittleEndian.PutUint32(buf[o:], h.HeaderSize)
	o += 4
	uuidBytes, _ := h.UUID.MarshalBinary()
	copy(buf[o:], uuidBytes)
	o += 16
	binary.LittleEndian.PutUint64(buf[o:], uint64(h.FooterPos))
	o += 8
	return buf
}

// Encode serialises the full header, including its CRC, recomputing the
// CRC over the current field values.
func (h Header) Encode() []byte {
	h.CRC = h.computeCRC()
	buf := h.encodePrefix()
	tail := make([]byte, 4)
	binary.LittleEndian.PutUint32(tail, h.CRC)
	return append(buf, tail...)
}

// DecodeHeader parses and validates a header from buf, which must be at
// least headerSize bytes.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, ErrHeaderCorrupt
	}
	var h Header
	o := 0
	h.Signature1 = binary.LittleEndian.Uint64(buf[o:])
	o += 8
	h.Signature2 = binary.LittleEndian.Uint64(buf[o:])
	o += 8
	h.VersionMajor = binary.LittleEndian.Uint16(buf[o:])
	o += 2
	h.VersionMinor = binary.LittleEndian.Uint16(buf[o:])
	o += 2
	h.HeaderSize = binary.LittleEndian.Uint32(buf[o:])
	o += 4
	if err := h.UUID.UnmarshalBinary(buf[o : o+16]); err != nil {
		return Header{}, ErrHeaderCorrupt
	}
	o += 16
	h.FooterPos = Address(binary.LittleEndian.Uint64(buf[o:]))
	o += 8
	h.CRC = binary.LittleEndian.Uint32(buf[o:])

	if h.Signature1 != Signature1 || h.Signature2 != Signature2 {
		return Header{}, ErrHeaderCorrupt
	}
	if h.VersionMajor != VersionMajor {
		return Header{}, ErrHeaderVersionMismatch
	}
	if h.HeaderSize != headerSize {
		return Header{}, ErrHeaderCorrupt
	}
	if h.computeCRC() != h.CRC {
		return Header{}, ErrHeaderCorrupt
	}
	if uint64(h.FooterPos) < LeaderSize {
		return Header{}, ErrHeaderCorrupt
	}
	return h, nil
}
