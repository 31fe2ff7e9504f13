// Package chat is the room coordination engine: threads and their history,
// presence, the shared drawing, per-connection room sessions and the
// dispatcher that routes inbound events and scopes outbound ones.
package chat

import (
	"time"
)

// ConnID identifies one live connection.
type ConnID string

// Kind distinguishes stored thread messages from transient direct messages.
type Kind string

const (
	KindPublic Kind = "public"
	KindDirect Kind = "dm"
)

// Message is a broadcast message stored in a thread's history.
type Message struct {
	Kind      Kind      `json:"type"`
	Text      string    `json:"text"`
	Username  string    `json:"username"`
	ConnID    ConnID    `json:"socketId"`
	ID        string    `json:"messageId"`
	ParentID  *string   `json:"parentId"`
	ThreadID  string    `json:"threadId"`
	Timestamp time.Time `json:"timestamp"`
}

// DirectMessage is delivered to a recipient and its sender, never stored.
type DirectMessage struct {
	Kind      Kind      `json:"type"`
	Text      string    `json:"text"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}
