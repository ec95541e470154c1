package activity

import (
	"context"
	"sync"
)

// CaptureHook records events for assertions in tests.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify records the event and returns any configured error.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Verbs lists the verbs recorded so far, in order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.Events))
	for i, e := range h.Events {
		out[i] = e.Verb
	}
	return out
}

// ForKey returns the recorded events about key.
func (h *CaptureHook) ForKey(key string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, e := range h.Events {
		if e.Key == key {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets recorded events.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = nil
}
