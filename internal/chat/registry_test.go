package chat

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Go Tips":       "go-tips",
		"  spaced  ":    "spaced",
		"":              "unnamed",
		"   ":           "unnamed",
		"a!!b":          "a-b",
		"Already-slug":  "already-slug",
		"日本語":           "-",
		"C++ & Rust 2":  "c-rust-2",
		"multi---dash":  "multi-dash",
		"trailing!":     "trailing-",
		"UPPER_lower_9": "upper-lower-9",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestListing_MarshalJSONKeepsOrder(t *testing.T) {
	req := require.New(t)
	listing := Listing{
		{ID: "zeta", Name: "Z"},
		{ID: "alpha", Name: "A"},
	}

	raw, err := json.Marshal(listing)

	req.NoError(err)
	req.Equal(`{"zeta":{"name":"Z"},"alpha":{"name":"A"}}`, string(raw))
}

func TestRegistry_SeedsWhenNothingPersisted(t *testing.T) {
	req := require.New(t)

	r := NewRegistry(testLogger(), &memStore{})

	req.Equal(Listing{
		{ID: "general", Name: "雑談"},
		{ID: "hobbies", Name: "趣味"},
		{ID: "tech", Name: "技術"},
	}, r.List())
	messages, ok := r.Messages("general")
	req.True(ok)
	req.NotNil(messages)
	req.Empty(messages)
}

func TestRegistry_LoadMergesPersistedThreads(t *testing.T) {
	req := require.New(t)
	store := &memStore{threads: []Thread{
		{ID: "custom-1", Name: "Custom", Messages: []Message{{Text: "c"}}},
		{ID: "general", Name: "renamed", Messages: []Message{{Text: "hello"}}},
	}}

	r := NewRegistry(testLogger(), store)

	req.Equal(Listing{
		{ID: "general", Name: "雑談"},
		{ID: "hobbies", Name: "趣味"},
		{ID: "tech", Name: "技術"},
		{ID: "custom-1", Name: "Custom"},
	}, r.List())
	general, _ := r.Messages("general")
	req.Len(general, 1)
	req.Equal("hello", general[0].Text)
	hobbies, _ := r.Messages("hobbies")
	req.Empty(hobbies)
}

func TestRegistry_LoadFailureKeepsSeeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)

	store := NewMockThreadStore(ctrl)
	store.EXPECT().LoadThreads().Return(nil, errors.New("corrupt document")).Times(1)

	r := NewRegistry(testLogger(), store)

	req.Equal(3, r.Len())
	req.True(r.Exists("tech"))
}

func TestRegistry_Create(t *testing.T) {
	t.Run("should derive id from slug and timestamp and persist", func(t *testing.T) {
		req := require.New(t)
		store := &memStore{}
		r := NewRegistry(testLogger(), store)

		id, listing := r.Create("Go Tips", testEpoch)

		req.Equal("go-tips-1714564800000", id)
		req.Len(listing, 4)
		req.Equal(Summary{ID: id, Name: "Go Tips"}, listing[3])
		req.Equal(1, store.threadSaves)
		req.Len(store.threads, 4)
		req.Equal(id, store.threads[3].ID)
	})

	t.Run("should bump the timestamp while the id is taken", func(t *testing.T) {
		req := require.New(t)
		r := NewRegistry(testLogger(), &memStore{})

		first, _ := r.Create("dup", testEpoch)
		second, _ := r.Create("dup", testEpoch)
		third, _ := r.Create("dup", testEpoch)

		req.Equal("dup-1714564800000", first)
		req.Equal("dup-1714564800001", second)
		req.Equal("dup-1714564800002", third)
		req.Equal(6, r.Len())
	})

	t.Run("should keep the thread when persisting fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		req := require.New(t)

		store := NewMockThreadStore(ctrl)
		store.EXPECT().LoadThreads().Return(nil, ErrNoDocument)
		store.EXPECT().SaveThreads(gomock.Any()).Return(errors.New("disk full")).Times(1)
		r := NewRegistry(testLogger(), store)

		id, _ := r.Create("kept", testEpoch)

		req.True(r.Exists(id))
	})
}

func TestRegistry_AppendAndMessages(t *testing.T) {
	req := require.New(t)
	store := &memStore{}
	r := NewRegistry(testLogger(), store)

	req.True(r.Append("tech", Message{Text: "one"}))
	req.True(r.Append("tech", Message{Text: "two"}))
	req.False(r.Append("missing", Message{Text: "lost"}))

	messages, ok := r.Messages("tech")
	req.True(ok)
	req.Equal([]string{"one", "two"}, []string{messages[0].Text, messages[1].Text})
	req.Equal(2, store.threadSaves)

	messages[0].Text = "mutated"
	again, _ := r.Messages("tech")
	req.Equal("one", again[0].Text)

	_, ok = r.Messages("missing")
	req.False(ok)
}

func TestRegistry_Search(t *testing.T) {
	r := NewRegistry(testLogger(), &memStore{})
	r.Append("general", Message{Text: "Hello World", Username: "alice"})
	r.Append("general", Message{Text: "nothing here", Username: "bob"})
	r.Append("tech", Message{Text: "hello gophers", Username: "carol"})
	r.Append("hobbies", Message{Text: "fishing", Username: "Hello-Kitty"})

	texts := func(messages []Message) []string {
		out := make([]string, 0, len(messages))
		for _, m := range messages {
			out = append(out, m.Text)
		}
		return out
	}

	t.Run("should match text and username case-insensitively across threads", func(t *testing.T) {
		req := require.New(t)
		got := r.Search("HELLO", "")
		req.Equal([]string{"Hello World", "fishing", "hello gophers"}, texts(got))
	})

	t.Run("should restrict to a known thread", func(t *testing.T) {
		req := require.New(t)
		got := r.Search("hello", "tech")
		req.Equal([]string{"hello gophers"}, texts(got))
	})

	t.Run("should search everything when the thread is unknown", func(t *testing.T) {
		req := require.New(t)
		got := r.Search("bob", "nope")
		req.Equal([]string{"nothing here"}, texts(got))
	})

	t.Run("should return an empty list for an empty query", func(t *testing.T) {
		req := require.New(t)
		got := r.Search("", "")
		req.NotNil(got)
		req.Empty(got)
	})

	t.Run("should return an empty list when nothing matches", func(t *testing.T) {
		req := require.New(t)
		got := r.Search("zzz", "general")
		req.NotNil(got)
		req.Empty(got)
	})
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	req := require.New(t)
	r := NewRegistry(testLogger(), &memStore{})
	r.Append("general", Message{Text: "orig", Timestamp: testEpoch.Add(time.Second)})

	snap := r.Snapshot()
	snap[0].Messages[0].Text = "changed"

	messages, _ := r.Messages("general")
	req.Equal("orig", messages[0].Text)
}
