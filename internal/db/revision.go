package db

import (
	"github.com/orbas1/pstore/internal/hamt"
	"github.com/orbas1/pstore/internal/store"
)

// Revision is a read-only, point-in-time view of the database: one
// committed trailer and the two indices it names. Revisions are safe to
// hold and query concurrently with an open Transaction, since they never
// read past the byte range their own trailer promised was valid at commit
// time.
type Revision[K, V any] struct {
	db       *Database[K, V]
	trailer  store.Trailer
	primary  *hamt.Index[K, V]
	metadata *hamt.Index[string, []byte]
}

// Generation returns the revision's generation number.
func (rv *Revision[K, V]) Generation() uint64 { return rv.trailer.Generation }

// Find looks up key in the primary index.
func (rv *Revision[K, V]) Find(key K) (V, bool, error) {
	return rv.primary.Find(rv.db.file, key)
}

// Contains reports whether key is bound in the primary index.
func (rv *Revision[K, V]) Contains(key K) (bool, error) {
	return rv.primary.Contains(rv.db.file, key)
}

// FindMetadata looks up key in the metadata index.
func (rv *Revision[K, V]) FindMetadata(key string) ([]byte, bool, error) {
	return rv.metadata.Find(rv.db.file, key)
}

// Primary returns the read-only primary index backing this revision, for
// iteration (Begin) or structural validation (Fsck).
func (rv *Revision[K, V]) Primary() *hamt.Index[K, V] { return rv.primary }

// Metadata returns the read-only metadata index backing this revision.
func (rv *Revision[K, V]) Metadata() *hamt.Index[string, []byte] { return rv.metadata }

// Size returns the number of bytes of user data written by this revision
// (the value recorded in its trailer, not the total file size).
func (rv *Revision[K, V]) Size() uint64 { return rv.trailer.Size }

// StoreReader exposes the file underlying this revision for callers that
// need to read arbitrary store addresses directly (e.g. to decode a value
// whose encoding isn't known to the primary index's codec).
func (rv *Revision[K, V]) StoreReader() hamt.StoreReader { return rv.db.file }
