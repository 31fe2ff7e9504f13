package protocol

import "errors"

var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrMalformedPayload = errors.New("malformed payload")
)
