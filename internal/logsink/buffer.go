package logsink

import (
	"sync"

	"fleetbot/internal/domain"
)

// Buffer keeps the most recent entries in memory and streams new ones to
// subscribers. Subscriber channels are buffered; an entry that does not fit
// is dropped for that subscriber rather than blocking the orchestrator.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	cap     int
	subs    map[int]chan Entry
	nextSub int
}

const subscriberBuffer = 64

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 500
	}
	return &Buffer{
		entries: make([]Entry, 0, capacity),
		cap:     capacity,
		subs:    make(map[int]chan Entry),
	}
}

func (b *Buffer) Emit(accountID, action string, severity domain.Severity, message string) {
	entry := newEntry(accountID, action, severity, message)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, entry)
	if len(b.entries) > b.cap {
		b.entries = b.entries[len(b.entries)-b.cap:]
	}
	for _, ch := range b.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

// Recent returns up to limit entries, newest first.
func (b *Buffer) Recent(limit int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if limit <= 0 || limit > len(b.entries) {
		limit = len(b.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(b.entries) - 1; i >= len(b.entries)-limit; i-- {
		out = append(out, b.entries[i])
	}
	return out
}

// Subscribe registers a listener for new entries. The returned cancel
// function must be called to release the subscription.
func (b *Buffer) Subscribe() (<-chan Entry, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	ch := make(chan Entry, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
