package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore opens a store backed by a throwaway database file.
func createTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// mustUpsert writes one record in its own committed transaction.
func mustUpsert(t *testing.T, s *Store, rec Record) {
	t.Helper()

	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := s.UpsertInstance(ctx, tx, rec); err != nil {
		tx.Rollback()
		t.Fatalf("UpsertInstance() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

// naturalKey encodes a natural key or fails the test.
func naturalKey(t *testing.T, values ...any) string {
	t.Helper()

	key, err := EncodeNaturalKey(values)
	if err != nil {
		t.Fatalf("EncodeNaturalKey() error = %v", err)
	}
	return key
}
