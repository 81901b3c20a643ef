package mocks

import (
	"context"
	"sync"
)

// RecordingPublisher is an EventPublisher that records published events for
// assertions in tests.
type RecordingPublisher struct {
	mu         sync.Mutex
	PublishErr error
	Published  []PublishedEvent
}

// PublishedEvent records parameters passed to Publish
type PublishedEvent struct {
	Key       string
	EventType string
	Event     any
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{Published: make([]PublishedEvent, 0)}
}

func (p *RecordingPublisher) Publish(_ context.Context, key, eventType string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Published = append(p.Published, PublishedEvent{
		Key:       key,
		EventType: eventType,
		Event:     event,
	})
	return p.PublishErr
}

// Events returns a snapshot of everything published so far.
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PublishedEvent, len(p.Published))
	copy(out, p.Published)
	return out
}
