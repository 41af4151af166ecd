package edge

import (
	"sync"

	"supplychain-telemetry/internal/models"
)

// Buffer is the staging area events accumulate in between forwarding
// windows. It is the only mutable state shared between the message
// consumer and the forwarder, guarded by a single mutex.
type Buffer struct {
	mu    sync.Mutex
	items []models.TelemetryEvent
}

// Append adds one event. O(1) amortized; callers are never blocked for
// longer than the lock hold of a concurrent Drain.
func (b *Buffer) Append(ev models.TelemetryEvent) {
	b.mu.Lock()
	b.items = append(b.items, ev)
	b.mu.Unlock()
}

// Drain atomically swaps the accumulated events for an empty buffer and
// returns them in arrival order. The swap is the single critical
// section shared with Append, so no event is ever lost or handed out
// twice across windows.
func (b *Buffer) Drain() []models.TelemetryEvent {
	b.mu.Lock()
	batch := b.items
	b.items = nil
	b.mu.Unlock()
	return batch
}

// Len reports the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
