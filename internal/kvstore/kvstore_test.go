package kvstore

import (
	"path/filepath"
	"testing"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pstore")
	s, err := Open(path, 64)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutAndGetRoundTrip(t *testing.T) {
	s := openTest(t)

	tx, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, _, err := tx.Primary().InsertOrAssign(tx, "greeting", []byte("hello")); err != nil {
		t.Fatalf("InsertOrAssign: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	head, err := s.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	value, ok, err := head.Find("greeting")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !ok || string(value) != "hello" {
		t.Fatalf("Find(greeting) = %q, %v, want hello, true", value, ok)
	}
}

func TestAssignOverwritesPriorValue(t *testing.T) {
	s := openTest(t)

	tx, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, _, err := tx.Primary().InsertOrAssign(tx, "k", []byte("v1")); err != nil {
		t.Fatalf("InsertOrAssign v1: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tx2, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin 2: %v", err)
	}
	if _, _, err := tx2.Primary().InsertOrAssign(tx2, "k", []byte("v2")); err != nil {
		t.Fatalf("InsertOrAssign v2: %v", err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatalf("Commit 2: %v", err)
	}

	head, err := s.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	value, ok, err := head.Find("k")
	if err != nil || !ok || string(value) != "v2" {
		t.Fatalf("Find(k) = %q, %v, %v, want v2, true, nil", value, ok, err)
	}
}
