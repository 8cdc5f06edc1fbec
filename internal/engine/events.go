package engine

import "sync"

// EventType names one of the engine's event hooks.
type EventType string

const (
	EventMessage  EventType = "message"
	EventProgress EventType = "progress"
	EventPlot     EventType = "plot"
)

// PlotEvent is an intermediate fit snapshot for one contrast.
type PlotEvent struct {
	Contrast     string
	Q            []float64
	Reflectivity []float64
	Data         []float64
}

// Event is the single argument passed to hub callbacks. The payload field
// matching Type is set; the rest are zero.
type Event struct {
	Type    EventType
	Message string
	Percent float64
	Plot    *PlotEvent
}

// Callback receives one event.
type Callback func(Event)

// Hub is the engine's event registration surface: named hooks that can be
// subscribed with a single-argument callback and cleared as a whole.
type Hub struct {
	mu        sync.Mutex
	callbacks map[EventType][]Callback
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{callbacks: make(map[EventType][]Callback)}
}

// Register subscribes cb to events of type t.
func (h *Hub) Register(t EventType, cb Callback) {
	h.mu.Lock()
	h.callbacks[t] = append(h.callbacks[t], cb)
	h.mu.Unlock()
}

// Notify delivers ev to every callback registered for its type, in
// registration order, on the caller's goroutine.
func (h *Hub) Notify(ev Event) {
	h.mu.Lock()
	cbs := make([]Callback, len(h.callbacks[ev.Type]))
	copy(cbs, h.callbacks[ev.Type])
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(ev)
	}
}

// Clear removes every registered callback.
func (h *Hub) Clear() {
	h.mu.Lock()
	h.callbacks = make(map[EventType][]Callback)
	h.mu.Unlock()
}
