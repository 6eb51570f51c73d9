package view

import "sync"

// Slot names one piece of display state. Each slot has exactly one kind of
// asynchronous operation allowed to write it.
type Slot string

const (
	SlotQuery       Slot = "query"
	SlotSuggestions Slot = "suggestions"
	SlotRows        Slot = "rows"
	SlotWeather     Slot = "weather"
)

// Event tells subscribers that a slot changed; they read the new state from
// the container's snapshot.
type Event struct {
	Slot       Slot
	Generation uint64
}

// Broadcaster fans change events out to subscribers. Publishing never blocks:
// a subscriber that falls behind misses events but still sees the latest state
// on its next snapshot.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// Subscribe registers a subscriber and returns its channel and an unsubscribe func
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]chan Event)
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber with room in its buffer
func (b *Broadcaster) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
