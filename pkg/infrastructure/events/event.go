// Package events carries planning jobs from mutations to background workers.
//
// Streams are keyed by scenario id; view refreshes share ViewStream.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record on a stream. Version is the 1-based position
// within the stream and is zero until the event has been appended.
type Event interface {
	ID() string
	Type() string
	StreamID() string
	Data() any
	Timestamp() time.Time
	Version() int
}

// EventHandler processes delivered events. Handlers run on their own
// goroutine with a context detached from the publisher's cancellation.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends events and fans them out to subscribers
type EventStore interface {
	AppendEvent(ctx context.Context, streamID string, event Event) error
	Subscribe(eventTypes []string, handler EventHandler) error
}

type record struct {
	id        string
	eventType string
	stream    string
	data      any
	at        time.Time
	version   int
}

func (r record) ID() string           { return r.id }
func (r record) Type() string         { return r.eventType }
func (r record) StreamID() string     { return r.stream }
func (r record) Data() any            { return r.data }
func (r record) Timestamp() time.Time { return r.at }
func (r record) Version() int         { return r.version }

// NewEvent creates an unappended event with a fresh id
func NewEvent(eventType, streamID string, data any) Event {
	return record{
		id:        uuid.NewString(),
		eventType: eventType,
		stream:    streamID,
		data:      data,
		at:        time.Now().UTC(),
	}
}

// stamp places an event on a stream at the given version
func stamp(e Event, streamID string, version int) Event {
	return record{
		id:        e.ID(),
		eventType: e.Type(),
		stream:    streamID,
		data:      e.Data(),
		at:        e.Timestamp(),
		version:   version,
	}
}
