package helper

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Frame is one payload pushed to event-stream subscribers. Exactly one
// field is set: Ready on the opening frame, Combo for triggers.
type Frame struct {
	Ready bool   `json:"ready,omitempty"`
	Combo string `json:"combo,omitempty"`
}

// frameBuffer is the per-subscriber channel depth. Triggers are rare
// (one per physical key press) so a small buffer is plenty.
const frameBuffer = 16

// Broker fans trigger frames out to connected event-stream clients.
//
// Publishing never blocks: a subscriber that cannot keep up has frames
// dropped rather than stalling the capture path.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan Frame]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Frame]struct{})}
}

// Subscribe registers a new listener and returns its frame channel plus
// an unsubscribe function. The channel is buffered so publishers are
// never blocked by a slow reader.
func (b *Broker) Subscribe() (chan Frame, func()) {
	ch := make(chan Frame, frameBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()

		for len(ch) > 0 {
			<-ch
		}
	}
	return ch, unsubscribe
}

// Publish sends a frame to every subscriber, dropping it for any whose
// channel is full.
func (b *Broker) Publish(frame Frame) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- frame:
		default:
		}
	}
}

// Clients returns the number of active subscribers.
func (b *Broker) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// writeFrame writes a frame as a single SSE data line.
func writeFrame(w io.Writer, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
