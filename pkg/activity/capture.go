package activity

import (
	"context"
	"sync"
)

// CaptureHook records normalized events in memory. It backs tests and the
// examples; Err, when set, is returned from every Notify.
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

// ForProperty returns the captured events about the qualified property
// Owner.name, in arrival order.
func (h *CaptureHook) ForProperty(qualified string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, event := range h.Events {
		if event.Property() == qualified {
			out = append(out, event)
		}
	}
	return out
}

// Rejections returns the diagnostic IDs of captured property.rejected
// events.
func (h *CaptureHook) Rejections() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var ids []string
	for _, event := range h.Events {
		if event.Verb != VerbPropertyRejected {
			continue
		}
		if id, ok := event.Metadata["diagnostic"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
