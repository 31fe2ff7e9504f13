package chat

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/Tyrowin/threadboard/internal/metrics"
)

// ErrNoDocument is returned by stores when nothing has been persisted yet.
var ErrNoDocument = errors.New("no persisted document")

// Registry owns every thread and its history. It is not safe for concurrent
// use; the Engine serializes access.
type Registry struct {
	log     *slog.Logger
	store   ThreadStore
	threads map[string]*Thread
	order   []string
}

// NewRegistry builds the seed threads and merges in whatever the store holds.
// A missing or unreadable document leaves the seeds in place.
func NewRegistry(log *slog.Logger, store ThreadStore) *Registry {
	r := &Registry{
		log:     log,
		store:   store,
		threads: make(map[string]*Thread),
	}
	for _, t := range SeedThreads() {
		r.add(t)
	}
	r.load()
	return r
}

func (r *Registry) load() {
	persisted, err := r.store.LoadThreads()
	if err != nil {
		if errors.Is(err, ErrNoDocument) {
			r.log.Warn("No persisted threads, starting from seed threads")
		} else {
			r.log.Warn("Could not load threads, starting from seed threads", "error", err)
		}
		return
	}
	for _, t := range persisted {
		if existing, ok := r.threads[t.ID]; ok {
			existing.Messages = nonNil(t.Messages)
			continue
		}
		r.add(t)
	}
	r.log.Info("Threads loaded", "threads", len(r.order))
}

func (r *Registry) add(t Thread) {
	t.Messages = nonNil(t.Messages)
	r.threads[t.ID] = &t
	r.order = append(r.order, t.ID)
}

// Exists reports whether id names a registered thread.
func (r *Registry) Exists(id string) bool {
	_, ok := r.threads[id]
	return ok
}

// Len returns the number of registered threads.
func (r *Registry) Len() int {
	return len(r.order)
}

// List returns id and name of every thread in registry order.
func (r *Registry) List() Listing {
	return lo.Map(r.order, func(id string, _ int) Summary {
		return Summary{ID: id, Name: r.threads[id].Name}
	})
}

// Create registers an empty thread named name and persists the registry.
// The id is the slug of name plus a millisecond timestamp, bumped until it
// is unused.
func (r *Registry) Create(name string, now time.Time) (string, Listing) {
	slug := Slugify(name)
	id := threadID(slug, now)
	for r.Exists(id) {
		now = now.Add(time.Millisecond)
		id = threadID(slug, now)
	}
	r.add(Thread{ID: id, Name: name})
	r.persist()
	return id, r.List()
}

// Append adds msg to the thread's history and persists. Unknown threads are
// ignored and reported with false.
func (r *Registry) Append(id string, msg Message) bool {
	t, ok := r.threads[id]
	if !ok {
		return false
	}
	t.Messages = append(t.Messages, msg)
	r.persist()
	return true
}

// Messages returns a copy of the thread's history.
func (r *Registry) Messages(id string) ([]Message, bool) {
	t, ok := r.threads[id]
	if !ok {
		return nil, false
	}
	out := make([]Message, len(t.Messages))
	copy(out, t.Messages)
	return out, true
}

// Search matches query case-insensitively against message text and author.
// A known threadID restricts the scan to that thread; otherwise every thread
// is scanned in registry order. An empty query matches nothing.
func (r *Registry) Search(query, threadID string) []Message {
	q := strings.ToLower(query)
	if q == "" {
		return []Message{}
	}

	var pool []Message
	if t, ok := r.threads[threadID]; ok && threadID != "" {
		pool = t.Messages
	} else {
		for _, id := range r.order {
			pool = append(pool, r.threads[id].Messages...)
		}
	}

	return nonNil(lo.Filter(pool, func(m Message, _ int) bool {
		return strings.Contains(strings.ToLower(m.Text), q) ||
			strings.Contains(strings.ToLower(m.Username), q)
	}))
}

// Snapshot returns every thread with a copy of its history, in registry
// order.
func (r *Registry) Snapshot() []Thread {
	return lo.Map(r.order, func(id string, _ int) Thread {
		t := r.threads[id]
		messages, _ := r.Messages(id)
		return Thread{ID: t.ID, Name: t.Name, Messages: messages}
	})
}

func (r *Registry) persist() {
	if err := r.store.SaveThreads(r.Snapshot()); err != nil {
		metrics.PersistFailures.WithLabelValues("threads").Inc()
		r.log.Error("Could not persist threads", "error", err)
	}
}

func nonNil(messages []Message) []Message {
	if messages == nil {
		return []Message{}
	}
	return messages
}
