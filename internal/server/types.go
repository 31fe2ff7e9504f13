package server

import (
	"strings"

	"github.com/Tyrowin/threadboard/internal/protocol"
)

// inboundEvent is a decoded frame waiting for the hub loop.
type inboundEvent struct {
	client *Client
	event  protocol.Event
	ack    *int64
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
