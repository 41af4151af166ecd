package edge

import (
	"sync"
	"sync/atomic"
)

// Metrics holds the process-wide edge counters exposed on /health.
// Counters are atomics; only the status string needs a lock.
type Metrics struct {
	messagesIn  atomic.Uint64
	alerts      atomic.Uint64
	batchesSent atomic.Uint64

	mu             sync.Mutex
	lastPostStatus string
}

// MetricsSnapshot is the JSON shape of the counters, matching the
// edge /health contract.
type MetricsSnapshot struct {
	MessagesIn     uint64 `json:"messages_in"`
	Alerts         uint64 `json:"alerts"`
	BatchesSent    uint64 `json:"batches_sent"`
	LastPostStatus string `json:"last_post_status,omitempty"`
}

func (m *Metrics) MessageIn() { m.messagesIn.Add(1) }

func (m *Metrics) Alert() { m.alerts.Add(1) }

// BatchSent records one successful delivery and its HTTP status.
func (m *Metrics) BatchSent(status string) {
	m.batchesSent.Add(1)
	m.setStatus(status)
}

// PostError records a failed delivery attempt. The batch is gone; the
// status string is the only trace it leaves.
func (m *Metrics) PostError(detail string) {
	m.setStatus("error:" + detail)
}

func (m *Metrics) setStatus(s string) {
	m.mu.Lock()
	m.lastPostStatus = s
	m.mu.Unlock()
}

// Snapshot returns a consistent copy of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	status := m.lastPostStatus
	m.mu.Unlock()

	return MetricsSnapshot{
		MessagesIn:     m.messagesIn.Load(),
		Alerts:         m.alerts.Load(),
		BatchesSent:    m.batchesSent.Load(),
		LastPostStatus: status,
	}
}
