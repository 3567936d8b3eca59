// Package events fans scanner lifecycle and result events out to listeners.
package events

import (
	"image"
	"log/slog"
	"sync"
)

// Kind identifies an event.
type Kind string

const (
	// KindSaplingFound carries the six gene letters of a region as a string.
	KindSaplingFound Kind = "SAPLING-FOUND"
	// KindStarted is emitted once the capture source is ready and scanning
	// begins.
	KindStarted Kind = "STARTED"
	// KindInitializing is emitted after the capture source was granted,
	// before recognition workers are provisioned.
	KindInitializing Kind = "INITIALIZING"
	// KindStopped is emitted exactly once per session when it ends.
	KindStopped Kind = "STOPPED"
	// KindPreview carries a Preview payload.
	KindPreview Kind = "PREVIEW"
	// KindDebugPipeline carries a DebugPipeline payload.
	KindDebugPipeline Kind = "DEBUG_PIPELINE"
)

// Kinds lists every event kind in a stable order.
var Kinds = []Kind{
	KindSaplingFound,
	KindStarted,
	KindInitializing,
	KindStopped,
	KindPreview,
	KindDebugPipeline,
}

// Preview is the payload of a KindPreview event: the strip of the frame that
// holds a region's gene cells.
type Preview struct {
	RegionIndex int
	Image       image.Image
}

// DebugStep is one named intermediate image of the transform stage.
type DebugStep struct {
	Name  string
	Image image.Image
}

// DebugPipeline is the payload of a KindDebugPipeline event.
//
// Result is the recognized letter, or empty when the cell did not match.
type DebugPipeline struct {
	RegionIndex int
	Steps       []DebugStep
	Result      string
}

// Listener receives every event emitted after it subscribed. Payload is nil
// for lifecycle events.
type Listener func(kind Kind, payload any)

type subscription struct {
	id int
	fn Listener
}

// Hub is a synchronous multicast of events. Emit calls every listener in
// registration order on the caller's goroutine; there is no queue.
type Hub struct {
	mu        sync.Mutex
	listeners []subscription
	nextID    int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers fn and returns a function that removes it. Removing a
// listener while an emission is in progress only affects later emissions.
func (h *Hub) Subscribe(fn Listener) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners = append(h.listeners, subscription{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Copy rather than filter in place: a concurrent Emit may hold the old
	// backing array as its snapshot.
	kept := make([]subscription, 0, len(h.listeners))
	for _, s := range h.listeners {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	h.listeners = kept
}

// Emit delivers an event to the listeners registered at the time of the call.
func (h *Hub) Emit(kind Kind, payload any) {
	h.mu.Lock()
	snapshot := h.listeners
	h.mu.Unlock()

	for _, s := range snapshot {
		h.deliver(s, kind, payload)
	}
}

// Len returns the number of registered listeners.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

func (h *Hub) deliver(s subscription, kind Kind, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event listener panicked", "kind", kind, "listener", s.id, "panic", r)
		}
	}()
	s.fn(kind, payload)
}
