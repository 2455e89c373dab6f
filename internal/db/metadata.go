package db

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/orbas1/pstore/internal/store"
)

// Metadata bindings are always string keys over opaque byte values: the
// store-wide index of revision annotations, content-type hints and the
// like, as distinct from the caller-typed primary index.

func metadataHash(key string) uint64 {
	return xxhash.Sum64String(key)
}

func metadataEq(a, b string) bool { return a == b }

func metadataEncode(key string, value []byte) []byte {
	buf := make([]byte, 4+len(key)+len(value))
	binary.LittleEndian.PutUint32(buf, uint32(len(key)))
	copy(buf[4:], key)
	copy(buf[4+len(key):], value)
	return buf
}

func metadataDecode(buf []byte) (string, []byte, error) {
	if len(buf) < 4 {
		return "", nil, store.ErrIndexCorrupt
	}
	n := binary.LittleEndian.Uint32(buf)
	if uint64(4+n) > uint64(len(buf)) {
		return "", nil, store.ErrIndexCorrupt
	}
	key := string(buf[4 : 4+n])
	value := append([]byte(nil), buf[4+n:]...)
	return key, value, nil
}
