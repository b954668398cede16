package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore keeps every stream in memory and delivers events to
// subscribers asynchronously.
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex

	deliveries sync.WaitGroup
	logger     *zap.Logger
	onFailure  func(eventType string, err error)
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		logger:      logger.Named("events"),
	}
}

// Verify interface compliance
var _ EventStore = (*InMemoryEventStore)(nil)

// OnHandlerFailure registers a callback for handler errors, after logging
func (s *InMemoryEventStore) OnHandlerFailure(fn func(eventType string, err error)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onFailure = fn
}

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, streamID string, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	stored := stamp(event, streamID, len(s.streams[streamID])+1)
	s.streams[streamID] = append(s.streams[streamID], stored)

	handlers := make([]EventHandler, 0, len(s.subscribers[event.Type()]))
	for _, h := range s.subscribers[event.Type()] {
		if h.CanHandle(event.Type()) {
			handlers = append(handlers, h)
		}
	}
	s.deliveries.Add(len(handlers))
	s.mutex.Unlock()

	detached := context.WithoutCancel(ctx)
	for _, h := range handlers {
		go s.deliver(detached, h, stored)
	}
	return nil
}

func (s *InMemoryEventStore) deliver(ctx context.Context, h EventHandler, e Event) {
	defer s.deliveries.Done()
	if err := h.Handle(ctx, e); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", e.Type()),
			zap.String("stream_id", e.StreamID()),
			zap.String("event_id", e.ID()),
			zap.Error(err))
		s.mutex.RLock()
		onFailure := s.onFailure
		s.mutex.RUnlock()
		if onFailure != nil {
			onFailure(e.Type(), err)
		}
	}
}

// Wait blocks until every delivery started so far has finished
func (s *InMemoryEventStore) Wait() {
	s.deliveries.Wait()
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	if fromVersion < 1 {
		fromVersion = 1
	}

	if fromVersion > len(events) {
		return []Event{}, nil
	}

	return append([]Event(nil), events[fromVersion-1:]...), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}
