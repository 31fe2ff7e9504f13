package protocol

import "encoding/json"

// Event is one decoded inbound event. The concrete type identifies the
// event; Name returns its wire name.
type Event interface {
	Name() string
}

// GetThreads asks for the thread listing.
type GetThreads struct{}

// UserJoined claims a username for the sending connection.
type UserJoined struct {
	Username string
}

// SwitchThread moves the sending connection to another thread.
type SwitchThread struct {
	ThreadID string
}

// CreateThread registers a new thread with the display name Title.
type CreateThread struct {
	Title string
}

// SearchMessages queries message history. An empty ThreadID searches every
// thread.
type SearchMessages struct {
	Query    string `json:"query"`
	ThreadID string `json:"threadId"`
}

// ChatMessage posts to the sender's current thread.
type ChatMessage struct {
	Text     string  `json:"text"`
	Username string  `json:"username"`
	ParentID *string `json:"parentId"`
}

// DirectMessage is delivered to a single named user.
type DirectMessage struct {
	Text string  `json:"text"`
	To   *string `json:"to" validate:"required"`
}

// Drawing is a live stroke. The payload is opaque.
type Drawing struct {
	Data json.RawMessage
}

// ClearDrawing asks the sender's room to clear its canvas.
type ClearDrawing struct{}

// UploadList replaces the canonical drawing with List.
type UploadList struct {
	List []json.RawMessage
}

// AIMessage requests a text completion. Tag is the client's request prefix,
// Prompt the text sent upstream.
type AIMessage struct {
	Tag    string
	Prompt string
}

// Code carries a snippet that is only logged.
type Code struct {
	Code string
}

func (GetThreads) Name() string     { return EventGetThreads }
func (UserJoined) Name() string     { return EventUserJoined }
func (SwitchThread) Name() string   { return EventSwitchThread }
func (CreateThread) Name() string   { return EventCreateThread }
func (SearchMessages) Name() string { return EventSearchMessages }
func (ChatMessage) Name() string    { return EventChatMessage }
func (DirectMessage) Name() string  { return EventDirectMessage }
func (Drawing) Name() string        { return EventDrawing }
func (ClearDrawing) Name() string   { return EventClearDrawing }
func (UploadList) Name() string     { return EventUploadList }
func (AIMessage) Name() string      { return EventAIMessage }
func (Code) Name() string           { return EventCode }
