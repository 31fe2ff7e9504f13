package store

import (
	"encoding/json"

	"github.com/Tyrowin/threadboard/internal/protocol"
)

func createThread(name string) protocol.Event { return protocol.CreateThread{Title: name} }

func switchThread(id string) protocol.Event { return protocol.SwitchThread{ThreadID: id} }

func chatMessage(text string) protocol.Event { return protocol.ChatMessage{Text: text} }

func uploadList(ops ...string) protocol.Event {
	list := make([]json.RawMessage, 0, len(ops))
	for _, op := range ops {
		list = append(list, json.RawMessage(op))
	}
	return protocol.UploadList{List: list}
}
