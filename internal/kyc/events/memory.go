package events

import (
	"context"
	"sync"

	"talentkyc/internal/kyc/models"
)

const defaultMemoryCapacity = 1024

// MemoryPublisher keeps the most recent events in process. It backs local
// runs without a broker and tests.
type MemoryPublisher struct {
	mu       sync.Mutex
	events   []models.Event
	capacity int
}

func NewMemoryPublisher(capacity int) *MemoryPublisher {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryPublisher{capacity: capacity}
}

func (p *MemoryPublisher) Publish(_ context.Context, event models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) >= p.capacity {
		p.events = append(p.events[:0], p.events[1:]...)
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of what has been published, oldest first.
func (p *MemoryPublisher) Events() []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Reset forgets everything published so far.
func (p *MemoryPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
