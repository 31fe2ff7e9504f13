// Package testhelpers provides common utilities for testing the threadboard
// server over real HTTP and websocket connections.
package testhelpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// TestOrigin is the origin sent by ConnectWebSocket unless one is given.
const TestOrigin = "http://localhost:3000"

// ErrNoFrame is returned when a read times out without a frame.
var ErrNoFrame = errors.New("no frame before deadline")

// Frame is an outbound frame as a client sees it.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Ack   *int64          `json:"ack"`
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks that the response Content-Type starts with expected.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, expected) {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It fails the test if the request cannot be executed.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// WebSocketURL turns an httptest server URL into its /ws endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// ConnectWebSocket dials url with the given Origin header. An empty origin
// uses TestOrigin.
func ConnectWebSocket(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	if origin == "" {
		origin = TestOrigin
	}
	headers := http.Header{}
	headers.Set("Origin", origin)

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// SendFrame writes one inbound frame. A nil ack sends a frame that expects
// no acknowledgement.
func SendFrame(conn *websocket.Conn, event string, data any, ack *int64) error {
	frame := map[string]any{"event": event}
	if data != nil {
		frame["data"] = data
	}
	if ack != nil {
		frame["ack"] = *ack
	}
	return conn.WriteJSON(frame)
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

// Reader splits batched websocket messages back into frames.
type Reader struct {
	conn    *websocket.Conn
	pending []Frame
}

func NewReader(conn *websocket.Conn) *Reader {
	return &Reader{conn: conn}
}

// Next returns the next frame, waiting at most timeout for a new message.
func (r *Reader) Next(timeout time.Duration) (Frame, error) {
	for len(r.pending) == 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return Frame{}, err
		}
		_, message, err := r.conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return Frame{}, ErrNoFrame
			}
			return Frame{}, err
		}
		for _, line := range bytes.Split(message, []byte{'\n'}) {
			var frame Frame
			if err := json.Unmarshal(line, &frame); err != nil {
				return Frame{}, fmt.Errorf("decode frame %q: %w", line, err)
			}
			r.pending = append(r.pending, frame)
		}
	}
	frame := r.pending[0]
	r.pending = r.pending[1:]
	return frame, nil
}

// Await skips frames until one named event arrives.
func (r *Reader) Await(event string, timeout time.Duration) (Frame, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Frame{}, fmt.Errorf("%w: waiting for %q", ErrNoFrame, event)
		}
		frame, err := r.Next(remaining)
		if err != nil {
			return Frame{}, fmt.Errorf("waiting for %q: %w", event, err)
		}
		if frame.Event == event {
			return frame, nil
		}
	}
}

// AwaitAck skips frames until the acknowledgement for id arrives.
func (r *Reader) AwaitAck(id int64, timeout time.Duration) (Frame, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Frame{}, fmt.Errorf("%w: waiting for ack %d", ErrNoFrame, id)
		}
		frame, err := r.Next(remaining)
		if err != nil {
			return Frame{}, fmt.Errorf("waiting for ack %d: %w", id, err)
		}
		if frame.Event == "ack" && frame.Ack != nil && *frame.Ack == id {
			return frame, nil
		}
	}
}

// ExpectNone fails the test if any frame arrives within timeout. A timed out
// websocket cannot be read again, so this must be the last read on r.
func (r *Reader) ExpectNone(t *testing.T, timeout time.Duration) {
	t.Helper()
	frame, err := r.Next(timeout)
	if err == nil {
		t.Fatalf("Expected no frame, got %q: %s", frame.Event, frame.Data)
	}
	if !errors.Is(err, ErrNoFrame) {
		t.Fatalf("Unexpected error while waiting for absence of frame: %v", err)
	}
}
