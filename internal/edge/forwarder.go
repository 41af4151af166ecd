package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"supplychain-telemetry/internal/models"
)

// Forwarder periodically drains the buffer and ships the batch to the
// cloud ingestion endpoint. Delivery is best-effort, at most once: a
// batch that fails to send is dropped and only the status counter
// records that it ever existed.
type Forwarder struct {
	buf     *Buffer
	metrics *Metrics

	ingestURL string
	window    time.Duration
	client    *http.Client

	now func() time.Time
}

// NewForwarder builds a forwarder posting drained batches to ingestURL
// every window.
func NewForwarder(buf *Buffer, metrics *Metrics, ingestURL string, window time.Duration) *Forwarder {
	return &Forwarder{
		buf:       buf,
		metrics:   metrics,
		ingestURL: ingestURL,
		window:    window,
		client:    &http.Client{Timeout: 10 * time.Second},
		now:       time.Now,
	}
}

// Run flushes on every window tick until ctx is cancelled.
func (f *Forwarder) Run(ctx context.Context) {
	ticker := time.NewTicker(f.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.FlushOnce(ctx)
		}
	}
}

// FlushOnce drains the buffer and, if anything accumulated, sends one
// batch. The network call happens strictly outside the buffer lock.
func (f *Forwarder) FlushOnce(ctx context.Context) {
	batch := f.buf.Drain()
	if len(batch) == 0 {
		return
	}

	for i := range batch {
		enrichLatency(&batch[i])
	}

	body, err := json.Marshal(models.Batch{
		BatchTS: f.now().UTC().Format(time.RFC3339Nano),
		Items:   batch,
	})
	if err != nil {
		f.metrics.PostError(err.Error())
		log.Printf("[EDGE] batch encode error: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.ingestURL, bytes.NewReader(body))
	if err != nil {
		f.metrics.PostError(err.Error())
		log.Printf("[EDGE] POST %s error: %v", f.ingestURL, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.PostError(err.Error())
		log.Printf("[EDGE] POST %s error: %v (batch of %d dropped)", f.ingestURL, err, len(batch))
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.metrics.PostError(fmt.Sprintf("http %d", resp.StatusCode))
		log.Printf("[EDGE] POST %s status=%d (batch of %d dropped)", f.ingestURL, resp.StatusCode, len(batch))
		return
	}

	f.metrics.BatchSent(fmt.Sprintf("%d", resp.StatusCode))
	log.Printf("[EDGE] POST %s size=%d status=%d", f.ingestURL, len(batch), resp.StatusCode)
}

// enrichLatency computes sensor→edge latency in milliseconds. Skipped
// silently when either timestamp fails to parse; negative values from
// clock skew are kept as-is.
func enrichLatency(ev *models.TelemetryEvent) {
	if ev.Edge == nil {
		return
	}
	src, err := time.Parse(time.RFC3339Nano, ev.TS)
	if err != nil {
		return
	}
	recv, err := time.Parse(time.RFC3339Nano, ev.Edge.ReceivedTS)
	if err != nil {
		return
	}
	ms := recv.Sub(src).Milliseconds()
	ev.Edge.LatencyMs = &ms
}
