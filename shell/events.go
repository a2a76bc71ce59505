package shell

import "sync"

// eventBroadcast is the shell bridge's fan-out registry, the same
// registration-table shape the state store uses for its own observers:
// a monotonic id per subscriber, safe to mutate and notify concurrently.
type eventBroadcast struct {
	mu        sync.Mutex
	next      int
	observers map[int]func(Event)
}

func newEventBroadcast() *eventBroadcast {
	return &eventBroadcast{observers: make(map[int]func(Event))}
}

func (b *eventBroadcast) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.observers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

func (b *eventBroadcast) publish(ev Event) {
	b.mu.Lock()
	observers := make([]func(Event), 0, len(b.observers))
	for _, fn := range b.observers {
		observers = append(observers, fn)
	}
	b.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}
