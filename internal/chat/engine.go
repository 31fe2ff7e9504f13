package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tyrowin/threadboard/internal/protocol"
)

// Store persists both documents the engine owns.
type Store interface {
	ThreadStore
	DrawingStore
}

// Transport delivers an encoded event to already-resolved connections. It
// must not block.
type Transport interface {
	Deliver(conns []ConnID, event string, data any)
}

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config tunes optional engine behaviour.
type Config struct {
	Completer          Completer
	CompletionTimeout  time.Duration
	CompletionFallback string
	// Clock and NewID are replaced in tests.
	Clock func() time.Time
	NewID func() string
}

// InitPayload is sent to a connection when it attaches.
type InitPayload struct {
	ThreadID string    `json:"threadId"`
	Messages []Message `json:"messages"`
}

// CreateThreadResult acknowledges a thread creation.
type CreateThreadResult struct {
	Threads     Listing `json:"threads"`
	NewThreadID string  `json:"newThreadId"`
}

// Engine is the single authority over threads, presence, the drawing and
// room sessions. Every method takes the engine lock, so events are applied
// one at a time whatever goroutine delivers them.
type Engine struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	log      *slog.Logger
	out      Transport
	threads  *Registry
	presence *Presence
	drawing  *Drawing
	sessions map[ConnID]*Session
	rooms    map[string]map[ConnID]struct{}

	completer          Completer
	completionTimeout  time.Duration
	completionFallback string
	now                func() time.Time
	newID              func() string
}

// NewEngine loads persisted state from store and returns an engine emitting
// through out.
func NewEngine(log *slog.Logger, store Store, out Transport, cfg Config) *Engine {
	e := &Engine{
		log:                log,
		out:                out,
		threads:            NewRegistry(log, store),
		presence:           NewPresence(),
		drawing:            NewDrawing(log, store),
		sessions:           make(map[ConnID]*Session),
		rooms:              make(map[string]map[ConnID]struct{}),
		completer:          cfg.Completer,
		completionTimeout:  cfg.CompletionTimeout,
		completionFallback: cfg.CompletionFallback,
		now:                cfg.Clock,
		newID:              cfg.NewID,
	}
	if e.completionTimeout <= 0 {
		e.completionTimeout = 20 * time.Second
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// Attach opens a session in the default room and sends the drawing and the
// room history to the new connection.
func (e *Engine) Attach(id ConnID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sessions[id]; ok {
		e.log.Warn("Connection already attached", "conn", id)
		return
	}
	s := newSession(id, DefaultRoom)
	e.sessions[id] = s
	e.join(DefaultRoom, id)

	messages, _ := e.threads.Messages(DefaultRoom)
	e.emit(ToConnection(id), protocol.EventUpdateList, e.drawing.Snapshot())
	e.emit(ToConnection(id), protocol.EventInit, InitPayload{ThreadID: DefaultRoom, Messages: nonNil(messages)})
	e.log.Debug("Connection attached", "conn", id, "room", DefaultRoom)
}

// Detach ends the session: room membership and any username claim go in the
// same step. Unknown ids are ignored.
func (e *Engine) Detach(id ConnID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	if !ok {
		return
	}
	e.leave(s.Room(), id)
	delete(e.sessions, id)

	if name, named := s.Username(); named {
		e.presence.ReleaseConn(id)
		e.emit(ToAll(), protocol.EventUpdateUsers, e.presence.Usernames())
		e.log.Info("User left", "user", name, "conn", id)
	}
	e.log.Debug("Connection detached", "conn", id)
}

// Handle applies one inbound event from connection id. The returned value is
// the acknowledgement payload; ok is false when the event is not
// acknowledged.
func (e *Engine) Handle(ctx context.Context, id ConnID, ev protocol.Event) (ack any, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, attached := e.sessions[id]
	if !attached {
		e.log.Debug("Event from unknown connection dropped", "conn", id, "event", ev.Name())
		return nil, false
	}

	switch ev := ev.(type) {
	case protocol.GetThreads:
		return e.threads.List(), true
	case protocol.UserJoined:
		e.userJoined(s, ev.Username)
	case protocol.SwitchThread:
		return e.switchThread(s, ev.ThreadID)
	case protocol.CreateThread:
		return e.createThread(ev.Title), true
	case protocol.SearchMessages:
		return e.threads.Search(ev.Query, ev.ThreadID), true
	case protocol.ChatMessage:
		e.chatMessage(s, ev)
	case protocol.DirectMessage:
		e.directMessage(s, ev)
	case protocol.Drawing:
		e.emit(ToRoom(s.Room()), protocol.EventDrawing, ev.Data)
	case protocol.ClearDrawing:
		e.emit(ToRoom(s.Room()), protocol.EventClearDrawing, nil)
	case protocol.UploadList:
		e.drawing.ReplaceAll(ev.List)
		e.emit(ToAll(), protocol.EventUpdateList, e.drawing.Snapshot())
		e.log.Debug("Drawing replaced", "conn", id, "operations", len(ev.List))
	case protocol.AIMessage:
		e.requestCompletion(ctx, s, ev)
	case protocol.Code:
		name, _ := s.Username()
		e.log.Info("Received code", "user", name, "conn", id, "code", ev.Code)
	default:
		e.log.Warn("Unhandled event", "conn", id, "event", ev.Name())
	}
	return nil, false
}

// Wait blocks until in-flight completions have been delivered or abandoned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Room returns the current room of a connection.
func (e *Engine) Room(id ConnID) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return "", false
	}
	return s.Room(), true
}

// Members returns the connections currently in room.
func (e *Engine) Members(room string) []ConnID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recipients(ToRoom(room))
}

// Threads returns the thread listing.
func (e *Engine) Threads() Listing {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.threads.List()
}

// Presence returns the connection holding username.
func (e *Engine) Presence(username string) (ConnID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.presence.Lookup(username)
}

func (e *Engine) userJoined(s *Session, username string) {
	s.claim(username)
	e.presence.Claim(username, s.ID())
	e.emit(ToAll(), protocol.EventUpdateUsers, e.presence.Usernames())
	e.log.Info("User joined", "user", username, "conn", s.ID())
}

func (e *Engine) switchThread(s *Session, target string) (any, bool) {
	if !e.threads.Exists(target) {
		return nil, false
	}
	from, moved := s.moveTo(target)
	if !moved {
		return nil, false
	}
	e.leave(from, s.ID())
	e.join(target, s.ID())

	messages, _ := e.threads.Messages(target)
	name, _ := s.Username()
	e.log.Info("Switched thread", "user", name, "conn", s.ID(), "from", from, "to", target)
	return messages, true
}

func (e *Engine) createThread(name string) CreateThreadResult {
	id, listing := e.threads.Create(name, e.now())
	e.emit(ToAll(), protocol.EventThreadsUpdated, listing)
	e.log.Info("Thread created", "thread", id, "name", name)
	return CreateThreadResult{Threads: listing, NewThreadID: id}
}

func (e *Engine) chatMessage(s *Session, ev protocol.ChatMessage) {
	room := s.Room()
	if !e.threads.Exists(room) {
		e.log.Warn("Current room no longer exists, message dropped", "conn", s.ID(), "room", room)
		return
	}

	parent := ev.ParentID
	if parent != nil && *parent == "" {
		parent = nil
	}
	username := ev.Username
	if name, named := s.Username(); named && name != "" {
		username = name
	}
	msg := Message{
		Kind:      KindPublic,
		Text:      ev.Text,
		Username:  username,
		ConnID:    s.ID(),
		ID:        e.newID(),
		ParentID:  parent,
		ThreadID:  room,
		Timestamp: e.now(),
	}
	e.threads.Append(room, msg)
	e.emit(ToRoom(room), protocol.EventChatMessage, msg)
	e.log.Debug("Chat message", "thread", room, "user", username, "message", msg.ID)
}

func (e *Engine) directMessage(s *Session, ev protocol.DirectMessage) {
	to := *ev.To
	recipient, present := e.presence.Lookup(to)
	if !present {
		e.log.Debug("Direct message to absent user dropped", "conn", s.ID(), "to", to)
		return
	}
	from, _ := s.Username()
	dm := DirectMessage{
		Kind:      KindDirect,
		Text:      ev.Text,
		From:      from,
		To:        to,
		Timestamp: e.now(),
	}
	e.emit(ToConnection(recipient), protocol.EventDirectMessage, dm)
	e.emit(ToConnection(s.ID()), protocol.EventDirectMessage, dm)
	e.log.Info("Direct message", "from", from, "to", to)
}

func (e *Engine) requestCompletion(ctx context.Context, s *Session, ev protocol.AIMessage) {
	if e.completer == nil {
		e.log.Warn("AI completion requested but none is configured", "conn", s.ID())
		return
	}
	if strings.TrimSpace(ev.Prompt) == "" {
		e.log.Debug("Empty AI prompt dropped", "conn", s.ID())
		return
	}

	id := s.ID()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		reply := e.complete(ctx, id, ev.Prompt)

		e.mu.Lock()
		defer e.mu.Unlock()
		e.emit(ToConnection(id), protocol.EventAIResponse, reply)
	}()
}

func (e *Engine) complete(ctx context.Context, id ConnID, prompt string) string {
	ctx, cancel := context.WithTimeout(ctx, e.completionTimeout)
	defer cancel()

	reply, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.log.Warn("AI completion failed, sending fallback", "conn", id, "error", err)
		return e.completionFallback
	}
	return reply
}

func (e *Engine) join(room string, id ConnID) {
	members, ok := e.rooms[room]
	if !ok {
		members = make(map[ConnID]struct{})
		e.rooms[room] = members
	}
	members[id] = struct{}{}
}

func (e *Engine) leave(room string, id ConnID) {
	members, ok := e.rooms[room]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(e.rooms, room)
	}
}

// emit resolves target against the current sessions and hands the event to
// the transport. Callers hold e.mu.
func (e *Engine) emit(target Target, event string, data any) {
	conns := e.recipients(target)
	if conns == nil {
		return
	}
	e.out.Deliver(conns, event, data)
}

func (e *Engine) recipients(target Target) []ConnID {
	switch target.Scope {
	case ScopeConnection:
		if _, ok := e.sessions[target.Conn]; !ok {
			return nil
		}
		return []ConnID{target.Conn}
	case ScopeRoom:
		members := e.rooms[target.Room]
		if len(members) == 0 {
			return nil
		}
		conns := make([]ConnID, 0, len(members))
		for id := range members {
			conns = append(conns, id)
		}
		return conns
	case ScopeAll:
		if len(e.sessions) == 0 {
			return nil
		}
		conns := make([]ConnID, 0, len(e.sessions))
		for id := range e.sessions {
			conns = append(conns, id)
		}
		return conns
	default:
		e.log.Error("Emission without scope dropped", "scope", target.Scope.String())
		return nil
	}
}
