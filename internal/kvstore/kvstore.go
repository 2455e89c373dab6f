// Package kvstore specialises db.Database to the string-keyed,
// byte-valued primary index pstore's CLI and status server operate on.
// Callers that need a different key or value type use internal/db
// directly; this package exists so the CLI doesn't have to carry generic
// type parameters through cobra's Run functions.
package kvstore

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/orbas1/pstore/internal/db"
)

// Store is a pstore database keyed by string with opaque byte-slice
// values.
type Store = db.Database[string, []byte]

// Transaction is the transaction type over Store.
type Transaction = db.Transaction[string, []byte]

// Revision is the read-only revision type over Store.
type Revision = db.Revision[string, []byte]

// Open opens or creates the pstore file at path, with lruSegments
// resident segments cached before the LRU starts evicting.
func Open(path string, lruSegments int) (*Store, error) {
	return db.Open[string, []byte](path, lruSegments, hash, eq, encode, decode)
}

func hash(k string) uint64 { return xxhash.Sum64String(k) }

func eq(a, b string) bool { return a == b }

func encode(key string, value []byte) []byte {
	buf := make([]byte, 4+len(key)+len(value))
	binary.LittleEndian.PutUint32(buf, uint32(len(key)))
	copy(buf[4:], key)
	copy(buf[4+len(key):], value)
	return buf
}

func decode(buf []byte) (string, []byte, error) {
	n := binary.LittleEndian.Uint32(buf)
	key := string(buf[4 : 4+n])
	value := append([]byte(nil), buf[4+n:]...)
	return key, value, nil
}
