package chat

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Tyrowin/threadboard/internal/metrics"
)

// Drawing holds the single, global list of drawing operations. Operations
// are opaque; the list is only ever replaced as a whole. It is not safe for
// concurrent use.
type Drawing struct {
	log   *slog.Logger
	store DrawingStore
	ops   []json.RawMessage
}

// NewDrawing loads the persisted list, starting empty when there is none.
func NewDrawing(log *slog.Logger, store DrawingStore) *Drawing {
	d := &Drawing{log: log, store: store, ops: []json.RawMessage{}}
	ops, err := store.LoadDrawing()
	switch {
	case errors.Is(err, ErrNoDocument):
		log.Warn("No persisted drawing, starting empty")
	case err != nil:
		log.Warn("Could not load drawing, starting empty", "error", err)
	case ops != nil:
		d.ops = ops
		log.Info("Drawing loaded", "operations", len(ops))
	}
	return d
}

// Snapshot returns the current list. Callers must not modify the elements.
func (d *Drawing) Snapshot() []json.RawMessage {
	out := make([]json.RawMessage, len(d.ops))
	copy(out, d.ops)
	return out
}

// ReplaceAll stores ops verbatim as the canonical drawing and persists it.
func (d *Drawing) ReplaceAll(ops []json.RawMessage) {
	if ops == nil {
		ops = []json.RawMessage{}
	}
	d.ops = ops
	if err := d.store.SaveDrawing(ops); err != nil {
		metrics.PersistFailures.WithLabelValues("drawing").Inc()
		d.log.Error("Could not persist drawing", "error", err)
	}
}
