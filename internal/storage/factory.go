package storage

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnsupportedStore is returned by NewStore for unknown backend names.
var ErrUnsupportedStore = errors.New("unsupported store backend")

// NewStore opens the named backend. An empty kind selects DefaultStoreKind.
func NewStore(kind, sqlitePath string) (Store, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = DefaultStoreKind()
	}
	switch kind {
	case "memory", "mem":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3":
		if sqlitePath == "" {
			return nil, fmt.Errorf("sqlite store requires a database path")
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStore, kind)
	}
}

func CloseIfSupported(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
