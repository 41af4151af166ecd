package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RegisterQueryRoutes registers the read-path endpoints. All are
// side-effect-free. defaultRecentSec is the window /recent uses when no
// seconds param is given.
//
// GET /metrics    — aggregate counters over the whole table
// GET /last       — n most recent rows, n in [1,2000], default 200
// GET /recent     — rows within the last seconds, seconds in [1,86400]
// GET /latest_gps — newest gps row per (productId, locationId)
func RegisterQueryRoutes(r gin.IRoutes, st Store, defaultRecentSec int) {
	r.GET("/metrics", func(c *gin.Context) {
		m, err := st.Metrics(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		c.JSON(http.StatusOK, m)
	})

	r.GET("/last", func(c *gin.Context) {
		n, err := boundedQueryInt(c, "n", 200, 1, 2000)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rows, err := st.LastN(c.Request.Context(), n)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": rows})
	})

	r.GET("/recent", func(c *gin.Context) {
		n, err := boundedQueryInt(c, "n", 200, 1, 2000)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		seconds, err := boundedQueryInt(c, "seconds", defaultRecentSec, 1, 86400)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rows, err := st.RecentWithin(c.Request.Context(), n, seconds)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": rows})
	})

	r.GET("/latest_gps", func(c *gin.Context) {
		rows, err := st.LatestGPS(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": rows})
	})
}

// boundedQueryInt parses an integer query param, applying a default when
// absent and rejecting values outside [min, max].
func boundedQueryInt(c *gin.Context, name string, def, min, max int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be in [%d, %d]", name, min, max)
	}
	return v, nil
}
