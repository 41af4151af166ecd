package edge

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter exposes the edge node's health endpoint with a live metrics
// snapshot.
func NewRouter(metrics *Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"metrics": metrics.Snapshot(),
		})
	})

	return r
}
