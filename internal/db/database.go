// Package db ties the storage substrate and the HAMT index together into
// pstore's transaction and revision-chain layer: every commit publishes a
// new, immutable trailer that links back to its predecessor, and any past
// generation remains reachable for as long as the file does.
package db

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/orbas1/pstore/internal/hamt"
	"github.com/orbas1/pstore/internal/store"
)

// Database is a pstore file opened for a particular caller-supplied key and
// value type for the primary index. The metadata index is always keyed by
// string, independent of K and V.
type Database[K, V any] struct {
	file *store.File

	hash hamt.Hasher[K]
	eq   hamt.Eq[K]
	enc  hamt.Encoder[K, V]
	dec  hamt.Decoder[K, V]

	writeMu sync.Mutex // held for the lifetime of one open Transaction
	log     *logrus.Entry
}

// Open opens or creates the pstore file at path and returns a Database
// parameterised over the primary index's key and value types.
func Open[K, V any](path string, lruSegments int, hash hamt.Hasher[K], eq hamt.Eq[K], enc hamt.Encoder[K, V], dec hamt.Decoder[K, V]) (*Database[K, V], error) {
	f, err := store.Open(path, lruSegments)
	if err != nil {
		return nil, err
	}
	return &Database[K, V]{
		file: f,
		hash: hash,
		eq:   eq,
		enc:  enc,
		dec:  dec,
		log:  logrus.WithField("component", "db"),
	}, nil
}

// Close releases the underlying file. Close must not be called while a
// Transaction is open.
func (d *Database[K, V]) Close() error { return d.file.Close() }

// Head returns a read-only view of the newest committed revision.
func (d *Database[K, V]) Head() (*Revision[K, V], error) {
	h, err := d.file.Header()
	if err != nil {
		return nil, err
	}
	t, err := d.file.TrailerAt(h.FooterPos)
	if err != nil {
		return nil, err
	}
	return d.revisionFromTrailer(t)
}

// Sync returns a read-only view of the revision identified by generation,
// walking the chain of trailers backward from the current head. It returns
// store.ErrUnknownRevision if no trailer in the chain carries that
// generation number.
func (d *Database[K, V]) Sync(generation uint64) (*Revision[K, V], error) {
	h, err := d.file.Header()
	if err != nil {
		return nil, err
	}
	addr := h.FooterPos
	for {
		t, err := d.file.TrailerAt(addr)
		if err != nil {
			return nil, err
		}
		if t.Generation == generation {
			return d.revisionFromTrailer(t)
		}
		if t.PrevGeneration.IsNull() {
			return nil, store.ErrUnknownRevision
		}
		addr = t.PrevGeneration
	}
}

func (d *Database[K, V]) revisionFromTrailer(t store.Trailer) (*Revision[K, V], error) {
	primaryRef := t.Indices[store.IndexPrimary]
	primary, err := hamt.Open(primaryRef.Addr, hamt.RootKind(primaryRef.Kind), d.hash, d.eq, d.enc, d.dec)
	if err != nil {
		return nil, err
	}
	metadataRef := t.Indices[store.IndexMetadata]
	metadata, err := hamt.Open(metadataRef.Addr, hamt.RootKind(metadataRef.Kind), metadataHash, metadataEq, metadataEncode, metadataDecode)
	if err != nil {
		return nil, err
	}
	return &Revision[K, V]{
		db:       d,
		trailer:  t,
		primary:  primary,
		metadata: metadata,
	}, nil
}

// Begin starts a new transaction. Only one transaction may be open at a
// time; Begin blocks until any prior transaction has committed or rolled
// back.
func (d *Database[K, V]) Begin() (*Transaction[K, V], error) {
	d.writeMu.Lock()

	head, err := d.Head()
	if err != nil {
		d.writeMu.Unlock()
		return nil, err
	}

	lo := d.file.LogicalSize()
	d.file.BeginWrite(lo)

	return &Transaction[K, V]{
		db:       d,
		base:     head,
		primary:  head.primary,
		metadata: head.metadata,
		lo:       lo,
	}, nil
}
