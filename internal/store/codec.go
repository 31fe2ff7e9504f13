package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Tyrowin/threadboard/internal/chat"
)

type threadRecord struct {
	Name     string         `json:"name"`
	Messages []chat.Message `json:"messages"`
}

// encodeThreads writes the threads as one indented object keyed by thread id.
// Keys keep the order of threads.
func encodeThreads(threads []chat.Thread) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, t := range threads {
		key, err := json.Marshal(t.ID)
		if err != nil {
			return nil, err
		}
		messages := t.Messages
		if messages == nil {
			messages = []chat.Message{}
		}
		body, err := json.MarshalIndent(threadRecord{Name: t.Name, Messages: messages}, "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode thread %s: %w", t.ID, err)
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(body)
		if i < len(threads)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// decodeThreads reads the object written by encodeThreads in document order.
// A repeated key keeps its first position and its last value.
func decodeThreads(data []byte) ([]chat.Thread, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	threads := []chat.Thread{}
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		id, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %v", ErrCorrupt, tok)
		}
		var rec threadRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: thread %s: %v", ErrCorrupt, id, err)
		}
		t := chat.Thread{ID: id, Name: rec.Name, Messages: rec.Messages}
		if i, dup := seen[id]; dup {
			threads[i] = t
			continue
		}
		seen[id] = len(threads)
		threads = append(threads, t)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return threads, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %v, got %v", ErrCorrupt, want, tok)
	}
	return nil
}

func encodeDrawing(ops []json.RawMessage) ([]byte, error) {
	if ops == nil {
		ops = []json.RawMessage{}
	}
	return json.Marshal(ops)
}

func decodeDrawing(data []byte) ([]json.RawMessage, error) {
	var ops []json.RawMessage
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if ops == nil {
		return nil, fmt.Errorf("%w: drawing is not an array", ErrCorrupt)
	}
	return ops, nil
}
