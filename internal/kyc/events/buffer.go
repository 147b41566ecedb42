package events

import (
	"sync"

	"talentkyc/internal/kyc/models"
)

// ringBuffer is a bounded FIFO of pending events. When full, the oldest
// event is dropped to make room.
type ringBuffer struct {
	mu       sync.Mutex
	events   []models.Event
	head     int
	tail     int
	count    int
	capacity int
	dropped  int64
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &ringBuffer{
		events:   make([]models.Event, capacity),
		capacity: capacity,
	}
}

// enqueue adds an event and reports whether an older one was dropped.
func (b *ringBuffer) enqueue(event models.Event) (dropped bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count >= b.capacity {
		b.events[b.tail] = models.Event{}
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		dropped = true
	}
	b.events[b.head] = event
	b.head = (b.head + 1) % b.capacity
	b.count++
	return dropped
}

// dequeueBatch removes up to n events, oldest first.
func (b *ringBuffer) dequeueBatch(n int) []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	n = min(n, b.count)
	out := make([]models.Event, n)
	for i := range n {
		out[i] = b.events[b.tail]
		b.events[b.tail] = models.Event{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return out
}

// requeue puts events back at the front, ahead of anything emitted since
// they were dequeued. When the buffer cannot hold them all, the oldest of
// them are dropped. It returns how many were dropped.
func (b *ringBuffer) requeue(events []models.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := 0
	for i := len(events) - 1; i >= 0; i-- {
		if b.count >= b.capacity {
			dropped += i + 1
			break
		}
		b.tail = (b.tail - 1 + b.capacity) % b.capacity
		b.events[b.tail] = events[i]
		b.count++
	}
	b.dropped += int64(dropped)
	return dropped
}

func (b *ringBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *ringBuffer) droppedTotal() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
