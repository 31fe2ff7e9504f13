package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// aiTagLength is the size of the request tag clients prepend to AI prompts.
const aiTagLength = 36

var validate = validator.New()

// ParseFrame unmarshals and validates a raw inbound frame.
func ParseFrame(raw []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if err := validate.Struct(frame); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return frame, nil
}

// Decode turns a frame into its typed event. Payload shape is checked here so
// the engine never sees a half-formed event.
func Decode(frame Frame) (Event, error) {
	switch frame.Event {
	case EventGetThreads:
		return GetThreads{}, nil
	case EventClearDrawing:
		return ClearDrawing{}, nil
	case EventUserJoined:
		s, err := decodeString(frame.Data)
		if err != nil {
			return nil, err
		}
		return UserJoined{Username: s}, nil
	case EventSwitchThread:
		s, err := decodeString(frame.Data)
		if err != nil {
			return nil, err
		}
		return SwitchThread{ThreadID: s}, nil
	case EventCreateThread:
		s, err := decodeString(frame.Data)
		if err != nil {
			return nil, err
		}
		return CreateThread{Title: s}, nil
	case EventCode:
		s, err := decodeString(frame.Data)
		if err != nil {
			return nil, err
		}
		return Code{Code: s}, nil
	case EventAIMessage:
		s, err := decodeString(frame.Data)
		if err != nil {
			return nil, err
		}
		return splitAIMessage(s), nil
	case EventSearchMessages:
		var ev SearchMessages
		if isAbsent(frame.Data) {
			return ev, nil
		}
		if err := decodeObject(frame.Data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventChatMessage:
		var ev ChatMessage
		if err := decodeObject(frame.Data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventDirectMessage:
		var ev DirectMessage
		if err := decodeObject(frame.Data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventDrawing:
		return Drawing{Data: frame.Data}, nil
	case EventUploadList:
		var list []json.RawMessage
		if err := json.Unmarshal(frame.Data, &list); err != nil || list == nil {
			return nil, fmt.Errorf("%w: %s expects an array", ErrMalformedPayload, EventUploadList)
		}
		return UploadList{List: list}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Event)
	}
}

func decodeString(data json.RawMessage) (string, error) {
	var s string
	if isAbsent(data) {
		return "", fmt.Errorf("%w: missing string", ErrMalformedPayload)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return s, nil
}

func decodeObject(data json.RawMessage, v any) error {
	if isAbsent(data) {
		return fmt.Errorf("%w: missing object", ErrMalformedPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func splitAIMessage(s string) AIMessage {
	runes := []rune(s)
	if len(runes) <= aiTagLength {
		return AIMessage{Tag: s}
	}
	return AIMessage{Tag: string(runes[:aiTagLength]), Prompt: string(runes[aiTagLength:])}
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
