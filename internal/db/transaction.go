package db

import (
	"github.com/orbas1/pstore/internal/hamt"
	"github.com/orbas1/pstore/internal/store"
)

// Transaction is pstore's single writer: opening one excludes every other
// writer until Commit or Rollback releases it. A Transaction begins from
// the database's current head revision and mutates its own, private copy
// of the primary and metadata indices; nothing it does is visible to
// readers until Commit publishes a new trailer.
type Transaction[K, V any] struct {
	db   *Database[K, V]
	base *Revision[K, V]

	primary  *hamt.Index[K, V]
	metadata *hamt.Index[string, []byte]

	lo     uint64 // logical size at Begin, the first byte this tx may write
	closed bool
}

// Base returns the revision this transaction started from.
func (tx *Transaction[K, V]) Base() *Revision[K, V] { return tx.base }

// Primary returns the transaction's mutable primary index.
func (tx *Transaction[K, V]) Primary() *hamt.Index[K, V] { return tx.primary }

// Metadata returns the transaction's mutable metadata index.
func (tx *Transaction[K, V]) Metadata() *hamt.Index[string, []byte] { return tx.metadata }

// Allocate reserves size bytes, aligned to align, in the transaction's
// write range. It is exposed for callers that need to store auxiliary
// records (e.g. large values kept outside the index's own leaf encoding).
func (tx *Transaction[K, V]) Allocate(size, align uint64) (store.Address, error) {
	if tx.closed {
		return store.NullAddress, ErrTransactionClosed
	}
	return tx.db.file.Allocate(size, align)
}

// WriteRW writes data at addr, which must fall within a range this
// transaction allocated.
func (tx *Transaction[K, V]) WriteRW(addr store.Address, data []byte) error {
	if tx.closed {
		return ErrTransactionClosed
	}
	return tx.db.file.WriteRW(addr, data)
}

// GetRO reads size bytes at addr, including bytes this transaction has
// itself written but not yet committed.
func (tx *Transaction[K, V]) GetRO(addr store.Address, size uint32) ([]byte, error) {
	if addr.IsNull() {
		return nil, store.ErrBadAddress
	}
	if uint64(addr) >= tx.lo {
		return tx.db.file.GetRW(addr, size)
	}
	return tx.db.file.GetRO(addr, size)
}

// Commit flushes both indices, writes a new trailer linking back to the
// transaction's base revision, publishes it as the new head, and
// write-protects every byte this transaction committed. It releases the
// database's writer lock whether it succeeds or fails.
func (tx *Transaction[K, V]) Commit() error {
	if tx.closed {
		return ErrTransactionClosed
	}
	defer func() {
		tx.closed = true
		tx.db.writeMu.Unlock()
	}()

	primaryAddr, primaryKind, err := tx.primary.Flush(tx)
	if err != nil {
		return err
	}
	metadataAddr, metadataKind, err := tx.metadata.Flush(tx)
	if err != nil {
		return err
	}

	newGen := tx.base.trailer.Generation + 1
	prevTrailerAddr := tx.db.currentFooterAddr()

	t := store.Trailer{
		Generation:     newGen,
		Size:           0, // recomputed below once the trailer's own size is known
		PrevGeneration: prevTrailerAddr,
	}
	t.Indices[store.IndexPrimary] = store.IndexRef{Kind: byte(primaryKind), Addr: primaryAddr}
	t.Indices[store.IndexMetadata] = store.IndexRef{Kind: byte(metadataKind), Addr: metadataAddr}

	buf := t.Encode()
	trailerAddr, err := tx.db.file.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return err
	}
	newSize := uint64(trailerAddr) + uint64(len(buf))
	t.Size = newSize - tx.lo
	buf = t.Encode()
	if err := tx.db.file.WriteRW(trailerAddr, buf); err != nil {
		return err
	}

	if err := tx.db.file.PublishFooter(trailerAddr, newSize); err != nil {
		return err
	}
	if err := tx.db.file.Protect(tx.lo, newSize); err != nil {
		return err
	}
	return nil
}

// Rollback abandons every write the transaction made. Because pstore is
// append-only and nothing is published until Commit, rollback requires no
// on-disk action: the bytes the transaction wrote simply become dead space
// that the next transaction's allocations will overwrite.
func (tx *Transaction[K, V]) Rollback() error {
	if tx.closed {
		return ErrTransactionClosed
	}
	tx.closed = true
	tx.db.writeMu.Unlock()
	return nil
}

func (d *Database[K, V]) currentFooterAddr() store.Address {
	h, err := d.file.Header()
	if err != nil {
		return store.NullAddress
	}
	return h.FooterPos
}
