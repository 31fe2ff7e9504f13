package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/Tyrowin/threadboard/internal/chat"
)

var (
	threadsKey = []byte("doc:threads")
	drawingKey = []byte("doc:drawing")
)

// Badger keeps each document as a single value in an embedded badger
// database. Values use the same encoding as the JSON files.
type Badger struct {
	log *slog.Logger
	db  *badger.DB
}

func NewBadger(log *slog.Logger, dir string) (*Badger, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &Badger{log: log, db: db}, nil
}

func (b *Badger) LoadThreads() ([]chat.Thread, error) {
	data, err := b.get(threadsKey)
	if err != nil {
		return nil, err
	}
	return decodeThreads(data)
}

func (b *Badger) SaveThreads(threads []chat.Thread) error {
	data, err := encodeThreads(threads)
	if err != nil {
		return err
	}
	return b.put(threadsKey, data)
}

func (b *Badger) LoadDrawing() ([]json.RawMessage, error) {
	data, err := b.get(drawingKey)
	if err != nil {
		return nil, err
	}
	return decodeDrawing(data)
}

func (b *Badger) SaveDrawing(ops []json.RawMessage) error {
	data, err := encodeDrawing(ops)
	if err != nil {
		return err
	}
	return b.put(drawingKey, data)
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func (b *Badger) get(key []byte) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, chat.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (b *Badger) put(key, data []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
