package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mama165/sdk-go/logs"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

// memStore keeps both documents in memory. A nil document loads as
// ErrNoDocument.
type memStore struct {
	mu          sync.Mutex
	threads     []Thread
	drawing     []json.RawMessage
	threadSaves int
	drawSaves   int
}

func (m *memStore) LoadThreads() ([]Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.threads == nil {
		return nil, ErrNoDocument
	}
	return m.threads, nil
}

func (m *memStore) SaveThreads(threads []Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads = threads
	m.threadSaves++
	return nil
}

func (m *memStore) LoadDrawing() ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drawing == nil {
		return nil, ErrNoDocument
	}
	return m.drawing, nil
}

func (m *memStore) SaveDrawing(ops []json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drawing = ops
	m.drawSaves++
	return nil
}

type delivery struct {
	conns []ConnID
	event string
	data  any
}

// recorder is a Transport that keeps every delivery.
type recorder struct {
	mu  sync.Mutex
	got []delivery
}

func (r *recorder) Deliver(conns []ConnID, event string, data any) {
	sorted := slices.Clone(conns)
	slices.Sort(sorted)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, delivery{conns: sorted, event: event, data: data})
}

// take returns and forgets everything recorded so far.
func (r *recorder) take() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	got := r.got
	r.got = nil
	return got
}

// events returns the event names delivered to id, in order.
func (r *recorder) events(id ConnID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, d := range r.got {
		if slices.Contains(d.conns, id) {
			names = append(names, d.event)
		}
	}
	return names
}

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var testEpoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() func() time.Time {
	return func() time.Time { return testEpoch }
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("msg-%d", n)
	}
}
