package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

var startTime = time.Now()

// RegisterHealthRoutes registers liveness and readiness endpoints.
// /ready returns 200 only when the document store answers a ping within timeout.
func RegisterHealthRoutes(r *gin.Engine, store Pinger, timeout time.Duration) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		uptime := time.Since(startTime).String()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": gin.H{"mongodb": false}, "error": err.Error(), "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": gin.H{"mongodb": true}, "uptime": uptime})
	})
}
