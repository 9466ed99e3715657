package storage

import (
	"errors"
	"testing"
)

func TestNewStoreMemoryAliases(t *testing.T) {
	for _, kind := range []string{"memory", " Memory ", "mem"} {
		store, err := NewStore(kind, "")
		if err != nil {
			t.Fatalf("new store %q: %v", kind, err)
		}
		if _, ok := store.(*MemoryStore); !ok {
			t.Fatalf("store %q: expected memory store, got %T", kind, store)
		}
		if err := CloseIfSupported(store); err != nil {
			t.Fatalf("close %q: %v", kind, err)
		}
	}
}

func TestNewStoreRejectsUnknownBackend(t *testing.T) {
	_, err := NewStore("postgres", "")
	if !errors.Is(err, ErrUnsupportedStore) {
		t.Fatalf("expected unsupported store error, got %v", err)
	}
}

func TestNewStoreSQLiteNeedsPath(t *testing.T) {
	if _, err := NewStore("sqlite", ""); err == nil {
		t.Fatal("expected error without a database path")
	}
}
