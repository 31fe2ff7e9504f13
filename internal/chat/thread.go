package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultRoom is the thread every connection starts in.
const DefaultRoom = "general"

// Thread is a named room with its append-only message history.
type Thread struct {
	ID       string
	Name     string
	Messages []Message
}

// Summary is a thread without its history.
type Summary struct {
	ID   string
	Name string
}

// Listing is the ordered thread listing. It marshals to {"id": {"name": ...}}
// with keys in registry order.
type Listing []Summary

func (l Listing) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.ID)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(struct {
			Name string `json:"name"`
		}{Name: s.Name})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SeedThreads returns the threads present before anything is loaded.
func SeedThreads() []Thread {
	return []Thread{
		{ID: DefaultRoom, Name: "雑談"},
		{ID: "hobbies", Name: "趣味"},
		{ID: "tech", Name: "技術"},
	}
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)
	dashRuns     = regexp.MustCompile(`-+`)
)

// Slugify derives the id stem for a thread name. Blank names become
// "unnamed".
func Slugify(name string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = "unnamed"
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(base), "-")
	return dashRuns.ReplaceAllString(slug, "-")
}

func threadID(slug string, at time.Time) string {
	return fmt.Sprintf("%s-%d", slug, at.UnixMilli())
}
