package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Tyrowin/threadboard/internal/chat"
)

const (
	threadsFile = "messages.json"
	drawingFile = "drawing.json"
)

// JSONFiles keeps each document as a JSON file in one directory. Every save
// rewrites the whole file.
type JSONFiles struct {
	log *slog.Logger
	dir string
}

// NewJSONFiles creates dir if needed.
func NewJSONFiles(log *slog.Logger, dir string) (*JSONFiles, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return &JSONFiles{log: log, dir: dir}, nil
}

func (f *JSONFiles) LoadThreads() ([]chat.Thread, error) {
	data, err := f.read(threadsFile)
	if err != nil {
		return nil, err
	}
	return decodeThreads(data)
}

func (f *JSONFiles) SaveThreads(threads []chat.Thread) error {
	data, err := encodeThreads(threads)
	if err != nil {
		return err
	}
	return f.write(threadsFile, data)
}

func (f *JSONFiles) LoadDrawing() ([]json.RawMessage, error) {
	data, err := f.read(drawingFile)
	if err != nil {
		return nil, err
	}
	return decodeDrawing(data)
}

func (f *JSONFiles) SaveDrawing(ops []json.RawMessage) error {
	data, err := encodeDrawing(ops)
	if err != nil {
		return err
	}
	return f.write(drawingFile, data)
}

func (f *JSONFiles) Close() error {
	return nil
}

func (f *JSONFiles) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, chat.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// write replaces name through a temporary file so a crash never leaves a
// half-written document behind.
func (f *JSONFiles) write(name string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.log.Debug("Could not remove temporary file", "file", tmp.Name(), "error", err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(f.dir, name)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
