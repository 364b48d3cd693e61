// Package notifier fans image-change events out to SSE listeners.
package notifier

import "sync"

// Event announces that the served image changed.
type Event struct {
	// Version is the ETag of the new image.
	Version string
	// Bytes is the size of the new image.
	Bytes int
}

// Notifier delivers the latest Event to every subscriber. A listener that
// has not drained its previous event sees only the newest one.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
	last      Event
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives image-change events.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast sends ev to all listeners without blocking.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.last = ev
	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
			// Replace the stale pending event with the newest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Last returns the most recent event, zero if none was broadcast.
func (n *Notifier) Last() Event {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.last
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
