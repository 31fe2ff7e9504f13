// Package protocol defines the JSON frames exchanged over the websocket and
// the typed inbound events decoded from them.
package protocol

import (
	"encoding/json"
)

// Inbound event names.
const (
	EventGetThreads     = "get threads"
	EventUserJoined     = "user joined"
	EventSwitchThread   = "switch thread"
	EventCreateThread   = "create thread"
	EventSearchMessages = "search messages"
	EventChatMessage    = "chat message"
	EventDirectMessage  = "direct message"
	EventDrawing        = "drawing"
	EventClearDrawing   = "clear drawing"
	EventUploadList     = "uploadList"
	EventAIMessage      = "AIMessage"
	EventCode           = "code"
)

// Outbound-only event names. Chat, direct message, drawing and clear drawing
// reuse their inbound names.
const (
	EventInit           = "init"
	EventUpdateList     = "updateList"
	EventUpdateUsers    = "update users"
	EventThreadsUpdated = "threads updated"
	EventAIResponse     = "AIResponse"
	EventAck            = "ack"
)

// Frame is a single inbound message from a client. Ack is set when the
// client expects a reply correlated with this frame.
type Frame struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   *int64          `json:"ack,omitempty"`
}

// Outbound is a single message sent to a client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	Ack   *int64 `json:"ack,omitempty"`
}

// Encode marshals an outbound event.
func Encode(event string, data any) ([]byte, error) {
	return json.Marshal(Outbound{Event: event, Data: data})
}

// EncodeAck marshals the reply to an inbound frame that carried an ack id.
func EncodeAck(id int64, data any) ([]byte, error) {
	return json.Marshal(Outbound{Event: EventAck, Data: data, Ack: &id})
}
