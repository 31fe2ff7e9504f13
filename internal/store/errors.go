package store

import "errors"

var (
	// ErrCorrupt is returned when a persisted document cannot be decoded.
	ErrCorrupt = errors.New("corrupt document")
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)
