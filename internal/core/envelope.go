package core

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// EventKind is the closed set of envelope events this relay understands.
// EventUnknown covers everything else so dispatch can match exhaustively.
type EventKind string

const (
	EventMedia     EventKind = "media"
	EventConnected EventKind = "connected"
	EventChunk     EventKind = "chunk"
	EventClose     EventKind = "close"
	EventHangup    EventKind = "hangup"
	EventUnknown   EventKind = ""
)

var ErrNotEnvelope = errors.New("not an envelope")

// Media carries the audio payload of a chunk or media envelope.
// Payload travels base64-encoded on the wire.
type Media struct {
	Payload string `json:"payload"`
	IsSync  bool   `json:"is_sync"`
}

// Envelope is the message unit exchanged over the socket, tagged by event.
// Constructed only at send/receive boundaries, never persisted.
type Envelope struct {
	Event string `json:"event"`
	Media *Media `json:"media,omitempty"`
}

// Kind folds the wire event string into the closed EventKind set.
func (e Envelope) Kind() EventKind {
	switch EventKind(e.Event) {
	case EventMedia, EventConnected, EventChunk, EventClose, EventHangup:
		return EventKind(e.Event)
	default:
		return EventUnknown
	}
}

// HasPayload reports whether a media object with a non-empty payload is
// present.
func (e Envelope) HasPayload() bool {
	return e.Media != nil && e.Media.Payload != ""
}

// ParseEnvelope decodes inbound text into an Envelope. Input that is not
// valid JSON, or not a JSON object, yields ErrNotEnvelope; callers discard
// such messages silently.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, ErrNotEnvelope
	}
	return env, nil
}

// NewChunk wraps one audio frame in a chunk envelope. Each chunk is marked
// is_sync because every frame is sent as a self-contained unit.
func NewChunk(frame []byte) Envelope {
	return Envelope{
		Event: string(EventChunk),
		Media: &Media{
			Payload: base64.StdEncoding.EncodeToString(frame),
			IsSync:  true,
		},
	}
}

// NewClose is the envelope broadcast to players when a server-role
// connection goes away.
func NewClose() Envelope {
	return Envelope{Event: string(EventClose)}
}

// Encode marshals the envelope for the wire.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}
