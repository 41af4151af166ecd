package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"supplychain-telemetry/internal/config"
	"supplychain-telemetry/internal/handlers"
	"supplychain-telemetry/internal/store"
)

// NewRouter wires the cloud API.
// Liveness/readiness: /health, /ready
// Write path: POST /ingest
// Read path: /metrics, /last, /recent, /latest_gps
func NewRouter(cfg config.Cloud, st *store.PostgresStore) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the DB dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	handlers.RegisterIngestRoutes(r, st)
	handlers.RegisterQueryRoutes(r, st, cfg.RecentSec)

	return r
}
