package relay

import (
	"sync"
	"sync/atomic"
)

const defaultSubscriberBuf = 256

// Event is one finished fetch as carried to SSE clients. Feed is the
// outcome name and Host the lowercased target host, both used for
// per-client filtering.
type Event struct {
	Feed    string
	Host    string
	ID      string
	Payload string
}

// Stats is a point-in-time view of the broker.
type Stats struct {
	Clients   int              `json:"clients"`
	Published map[string]int64 `json:"published"`
	Dropped   int64            `json:"dropped"`
}

// Broker fans fetch events out to every subscriber. A subscriber whose
// buffer is full misses the event; publishers never wait.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan Event
	nextID      atomic.Int64
	bufSize     int

	complete atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

// NewBroker creates a broker whose subscribers buffer bufSize events.
func NewBroker(bufSize int) *Broker {
	if bufSize < 1 {
		bufSize = defaultSubscriberBuf
	}
	return &Broker{
		subscribers: make(map[int64]chan Event),
		bufSize:     bufSize,
	}
}

// Subscribe registers a client and returns its id and event channel.
func (b *Broker) Subscribe() (int64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, b.bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Publish offers evt to every subscriber.
func (b *Broker) Publish(evt Event) {
	switch evt.Feed {
	case "complete":
		b.complete.Add(1)
	default:
		b.failed.Add(1)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of active subscribers.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped returns how many deliveries were skipped for slow subscribers.
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}

// Stats reports subscribers, events published per outcome feed and drops.
func (b *Broker) Stats() Stats {
	return Stats{
		Clients: b.ClientCount(),
		Published: map[string]int64{
			"complete": b.complete.Load(),
			"error":    b.failed.Load(),
		},
		Dropped: b.dropped.Load(),
	}
}
