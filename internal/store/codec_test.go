package store

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/threadboard/internal/chat"
)

func TestThreadsCodec_KeepsOrderAndContent(t *testing.T) {
	req := require.New(t)
	parent := "m1"
	at := time.Date(2024, 5, 1, 12, 0, 0, 123000000, time.UTC)
	threads := []chat.Thread{
		{ID: "zeta", Name: "Z"},
		{ID: "general", Name: "雑談", Messages: []chat.Message{{
			Kind:      chat.KindPublic,
			Text:      "hello",
			Username:  "alice",
			ConnID:    "c1",
			ID:        "m2",
			ParentID:  &parent,
			ThreadID:  "general",
			Timestamp: at,
		}}},
		{ID: "alpha", Name: "A"},
	}

	data, err := encodeThreads(threads)
	req.NoError(err)
	req.Less(strings.Index(string(data), `"zeta"`), strings.Index(string(data), `"general"`))
	req.Less(strings.Index(string(data), `"general"`), strings.Index(string(data), `"alpha"`))
	req.Contains(string(data), "\n  \"zeta\": {\n")

	got, err := decodeThreads(data)
	req.NoError(err)
	req.Len(got, 3)
	req.Equal([]string{"zeta", "general", "alpha"}, []string{got[0].ID, got[1].ID, got[2].ID})
	req.Empty(got[0].Messages)
	req.Len(got[1].Messages, 1)
	msg := got[1].Messages[0]
	req.Equal("hello", msg.Text)
	req.Equal(chat.KindPublic, msg.Kind)
	req.Equal(chat.ConnID("c1"), msg.ConnID)
	req.Equal("m1", *msg.ParentID)
	req.True(at.Equal(msg.Timestamp))
}

func TestThreadsCodec_EmptyDocument(t *testing.T) {
	req := require.New(t)

	data, err := encodeThreads(nil)
	req.NoError(err)
	req.True(json.Valid(data))

	got, err := decodeThreads(data)
	req.NoError(err)
	req.Empty(got)
}

func TestDecodeThreads_AcceptsForeignDocuments(t *testing.T) {
	req := require.New(t)
	doc := `{
  "general": {"name": "雑談", "messages": [
    {"type": "public", "text": "hi", "username": "bob", "socketId": "abc",
     "messageId": "x", "parentId": null, "threadId": "general",
     "timestamp": "2024-01-02T03:04:05.678Z"}
  ]},
  "dup": {"name": "first"},
  "other": {"name": "O", "messages": []},
  "dup": {"name": "second"}
}`

	got, err := decodeThreads([]byte(doc))

	req.NoError(err)
	req.Equal([]string{"general", "dup", "other"}, []string{got[0].ID, got[1].ID, got[2].ID})
	req.Equal("second", got[1].Name)
	req.Nil(got[0].Messages[0].ParentID)
	req.Equal(2024, got[0].Messages[0].Timestamp.Year())
}

func TestDecodeThreads_Corrupt(t *testing.T) {
	for _, doc := range []string{``, `[]`, `{"a":`, `{"a": 3}`, `{"a": {"messages": "no"}}`, `"text"`} {
		_, err := decodeThreads([]byte(doc))
		require.ErrorIs(t, err, ErrCorrupt, "document %q", doc)
	}
}

func TestDrawingCodec(t *testing.T) {
	req := require.New(t)

	data, err := encodeDrawing(nil)
	req.NoError(err)
	req.Equal("[]", string(data))

	data, err = encodeDrawing([]json.RawMessage{json.RawMessage(`{"a":1}`), json.RawMessage(`2`)})
	req.NoError(err)
	got, err := decodeDrawing(data)
	req.NoError(err)
	req.Equal([]json.RawMessage{json.RawMessage(`{"a":1}`), json.RawMessage(`2`)}, got)

	for _, doc := range []string{`{}`, `null`, `nope`} {
		_, err := decodeDrawing([]byte(doc))
		req.ErrorIs(err, ErrCorrupt, "document %q", doc)
	}
}
