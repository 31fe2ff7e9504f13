// Package store persists the thread registry and the canonical drawing,
// either as JSON files or in an embedded badger database.
package store

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/Tyrowin/threadboard/internal/chat"
)

const (
	BackendJSON   = "json"
	BackendBadger = "badger"
)

// Backend is a chat store that holds resources until closed.
type Backend interface {
	chat.Store
	io.Closer
}

// Open returns the backend named by backend rooted at dir. The badger
// database lives in a "badger" subdirectory so both backends can share a
// data directory.
func Open(log *slog.Logger, backend, dir string) (Backend, error) {
	switch backend {
	case "", BackendJSON:
		files, err := NewJSONFiles(log, dir)
		if err != nil {
			return nil, err
		}
		log.Info("Using JSON file store", "dir", dir)
		return files, nil
	case BackendBadger:
		path := filepath.Join(dir, "badger")
		db, err := NewBadger(log, path)
		if err != nil {
			return nil, err
		}
		log.Info("Using badger store", "dir", path)
		return db, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
