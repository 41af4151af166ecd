package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"supplychain-telemetry/internal/ingest"
	"supplychain-telemetry/internal/models"
	"supplychain-telemetry/internal/store"
)

// Store is what the handlers need from the persistence layer.
type Store interface {
	InsertTelemetry(ctx context.Context, row store.TelemetryRow) (bool, error)
	Metrics(ctx context.Context) (store.MetricsSummary, error)
	LastN(ctx context.Context, n int) ([]store.TelemetryRow, error)
	RecentWithin(ctx context.Context, n, seconds int) ([]store.TelemetryRow, error)
	LatestGPS(ctx context.Context) ([]store.TelemetryRow, error)
}

// batchRequest is the POST /ingest payload produced by the edge
// forwarder.
type batchRequest struct {
	BatchTS string        `json:"batch_ts"`
	Items   []ingest.Item `json:"items"`
}

// RegisterIngestRoutes registers the write-path endpoint.
//
// POST /ingest
// - Each item gets its ingest timestamp here, never from the client.
// - Inserts are idempotent: a replayed id counts as a duplicate and
//   changes nothing.
// - Items without an id are skipped and reported, not failed.
func RegisterIngestRoutes(r gin.IRoutes, st Store) {
	r.POST("/ingest", func(c *gin.Context) {
		var req batchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		var resp models.IngestResponse
		for _, item := range req.Items {
			row, err := ingest.Normalize(item, time.Now())
			if err != nil {
				log.Printf("[CLOUD] skipping item: %v", err)
				resp.Skipped++
				continue
			}

			inserted, err := st.InsertTelemetry(c.Request.Context(), row)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "db insert failed"})
				return
			}
			if inserted {
				resp.Accepted++
			} else {
				resp.Duplicates++
			}
		}

		c.JSON(http.StatusOK, resp)
	})
}
