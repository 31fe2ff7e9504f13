//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mock_store_test.go -package=chat
package chat

import "encoding/json"

// ThreadStore persists the thread registry as one document.
type ThreadStore interface {
	// LoadThreads returns the persisted threads in document order.
	LoadThreads() ([]Thread, error)
	// SaveThreads overwrites the whole document.
	SaveThreads(threads []Thread) error
}

// DrawingStore persists the canonical drawing list as one document.
type DrawingStore interface {
	LoadDrawing() ([]json.RawMessage, error)
	SaveDrawing(ops []json.RawMessage) error
}
