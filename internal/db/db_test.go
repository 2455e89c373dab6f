package db

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/orbas1/pstore/internal/store"
)

func stringHash(s string) uint64 { return xxhash.Sum64String(s) }
func stringEq(a, b string) bool  { return a == b }

func encodeStr(k string, v uint64) []byte {
	buf := make([]byte, 4+len(k)+8)
	binary.LittleEndian.PutUint32(buf, uint32(len(k)))
	copy(buf[4:], k)
	binary.LittleEndian.PutUint64(buf[4+len(k):], v)
	return buf
}

func decodeStr(buf []byte) (string, uint64, error) {
	n := binary.LittleEndian.Uint32(buf)
	k := string(buf[4 : 4+n])
	v := binary.LittleEndian.Uint64(buf[4+n:])
	return k, v, nil
}

func openTestDB(t *testing.T) *Database[string, uint64] {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pstore")
	d, err := Open[string, uint64](path, 64, stringHash, stringEq, encodeStr, decodeStr)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestBeginCommitRoundTrip(t *testing.T) {
	d := openTestDB(t)

	tx, err := d.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, _, err := tx.Primary().Insert(tx, "alpha", 1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, _, err := tx.Primary().Insert(tx, "beta", 2); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	head, err := d.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head.Generation() != 1 {
		t.Fatalf("generation = %d, want 1", head.Generation())
	}
	v, ok, err := head.Find("alpha")
	if err != nil || !ok || v != 1 {
		t.Fatalf("Find(alpha) = %d, %v, %v", v, ok, err)
	}
}

func TestSyncUnknownRevision(t *testing.T) {
	d := openTestDB(t)
	if _, err := d.Sync(7); !errors.Is(err, store.ErrUnknownRevision) {
		t.Fatalf("Sync(7) err = %v, want ErrUnknownRevision", err)
	}
}

func TestSyncWalksChain(t *testing.T) {
	d := openTestDB(t)

	for i, key := range []string{"a", "b", "c"} {
		tx, err := d.Begin()
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if _, _, err := tx.Primary().Insert(tx, key, uint64(i)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	rev, err := d.Sync(2)
	if err != nil {
		t.Fatalf("Sync(2): %v", err)
	}
	if _, ok, _ := rev.Find("c"); ok {
		t.Fatalf("generation 2 should not yet contain the third insert")
	}
	if _, ok, _ := rev.Find("a"); !ok {
		t.Fatalf("generation 2 should contain the first insert")
	}
}

func TestTransactionExcludesConcurrentBegin(t *testing.T) {
	d := openTestDB(t)
	tx, err := d.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	done := make(chan struct{})
	go func() {
		tx2, err := d.Begin()
		if err != nil {
			t.Errorf("second Begin: %v", err)
			close(done)
			return
		}
		_ = tx2.Rollback()
		close(done)
	}()

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	<-done
}

func TestRollbackDiscardsWrites(t *testing.T) {
	d := openTestDB(t)

	tx, err := d.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, _, err := tx.Primary().Insert(tx, "ghost", 99); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	head, err := d.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head.Generation() != 0 {
		t.Fatalf("generation = %d, want 0 after rollback", head.Generation())
	}
	if _, ok, _ := head.Find("ghost"); ok {
		t.Fatalf("rolled-back insert should not be visible")
	}
}
