package edge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"supplychain-telemetry/internal/models"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *atomic.Int64, chan models.Batch) {
	t.Helper()

	var calls atomic.Int64
	batches := make(chan models.Batch, 16)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var b models.Batch
		require.NoError(t, json.Unmarshal(body, &b))
		batches <- b

		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, batches
}

func TestForwarder_SendsOneBatchWithAllEvents(t *testing.T) {
	srv, calls, batches := captureServer(t, http.StatusOK)

	buf := &Buffer{}
	metrics := &Metrics{}
	f := NewForwarder(buf, metrics, srv.URL, time.Second)

	for _, id := range []string{"a", "b", "c"} {
		buf.Append(models.TelemetryEvent{
			ID: id,
			TS: "2026-03-01T12:00:00Z",
			Edge: &models.EdgeMeta{
				Topic:      "sc/telemetry/env",
				ReceivedTS: "2026-03-01T12:00:01.500Z",
			},
		})
	}

	f.FlushOnce(context.Background())

	require.Equal(t, int64(1), calls.Load())
	b := <-batches
	require.NotEmpty(t, b.BatchTS)
	require.Len(t, b.Items, 3)
	require.Equal(t, "a", b.Items[0].ID)
	require.Equal(t, "c", b.Items[2].ID)

	// Latency derived from the two timestamps, 1.5s apart.
	require.NotNil(t, b.Items[0].Edge.LatencyMs)
	require.Equal(t, int64(1500), *b.Items[0].Edge.LatencyMs)

	snap := metrics.Snapshot()
	require.Equal(t, uint64(1), snap.BatchesSent)
	require.Equal(t, "200", snap.LastPostStatus)
	require.Equal(t, 0, buf.Len())
}

func TestForwarder_EmptyBufferSendsNothing(t *testing.T) {
	srv, calls, _ := captureServer(t, http.StatusOK)

	metrics := &Metrics{}
	f := NewForwarder(&Buffer{}, metrics, srv.URL, time.Second)
	f.FlushOnce(context.Background())

	require.Equal(t, int64(0), calls.Load())
	require.Equal(t, uint64(0), metrics.Snapshot().BatchesSent)
}

func TestForwarder_UnparseableSourceTSLeavesLatencyAbsent(t *testing.T) {
	srv, _, batches := captureServer(t, http.StatusOK)

	buf := &Buffer{}
	f := NewForwarder(buf, &Metrics{}, srv.URL, time.Second)
	buf.Append(models.TelemetryEvent{
		ID: "x",
		TS: "not-a-timestamp",
		Edge: &models.EdgeMeta{
			ReceivedTS: "2026-03-01T12:00:01Z",
		},
	})

	f.FlushOnce(context.Background())

	b := <-batches
	require.Len(t, b.Items, 1)
	require.Nil(t, b.Items[0].Edge.LatencyMs)
}

func TestForwarder_NonSuccessStatusDropsBatch(t *testing.T) {
	srv, calls, batches := captureServer(t, http.StatusInternalServerError)

	buf := &Buffer{}
	metrics := &Metrics{}
	f := NewForwarder(buf, metrics, srv.URL, time.Second)
	buf.Append(models.TelemetryEvent{ID: "doomed"})

	f.FlushOnce(context.Background())
	<-batches

	snap := metrics.Snapshot()
	require.Equal(t, uint64(0), snap.BatchesSent)
	require.Equal(t, "error:http 500", snap.LastPostStatus)

	// The batch is gone; the next flush sends nothing.
	f.FlushOnce(context.Background())
	require.Equal(t, int64(1), calls.Load())
}

func TestForwarder_NetworkErrorRecordsStatusAndDropsBatch(t *testing.T) {
	buf := &Buffer{}
	metrics := &Metrics{}
	f := NewForwarder(buf, metrics, "http://127.0.0.1:1/ingest", time.Second)
	buf.Append(models.TelemetryEvent{ID: "lost"})

	f.FlushOnce(context.Background())

	snap := metrics.Snapshot()
	require.Equal(t, uint64(0), snap.BatchesSent)
	require.True(t, strings.HasPrefix(snap.LastPostStatus, "error:"))
	require.Equal(t, 0, buf.Len())
}

func TestForwarder_FlushesNeverShareEvents(t *testing.T) {
	srv, _, batches := captureServer(t, http.StatusOK)

	buf := &Buffer{}
	f := NewForwarder(buf, &Metrics{}, srv.URL, time.Second)

	buf.Append(models.TelemetryEvent{ID: "first"})
	f.FlushOnce(context.Background())
	buf.Append(models.TelemetryEvent{ID: "second"})
	f.FlushOnce(context.Background())

	b1, b2 := <-batches, <-batches
	require.Len(t, b1.Items, 1)
	require.Len(t, b2.Items, 1)
	require.NotEqual(t, b1.Items[0].ID, b2.Items[0].ID)
}
