package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/laserdata/laser-api/pkg/logger"
	"github.com/laserdata/laser-api/pkg/middleware"
)

const (
	helloBody = "Hello, World!"
	testBody  = "GCR Test!"
)

// RegisterGreetingRoutes registers the plain-text routes:
// - GET /      -> "Hello, World!"
// - GET /test  -> "GCR Test!"
func RegisterGreetingRoutes(r *gin.Engine, log *logger.Logger) {
	r.GET("/", greeting(log, helloBody))
	r.GET("/test", greeting(log, testBody))
}

func greeting(log *logger.Logger, body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := middleware.LoggerFrom(c, log)
		// one record with custom fields, one plain; both carry the request trace when present
		l.Info("custom entry", logger.Fields{"logField": "custom-entry", "arbitraryField": "custom-entry"})
		l.Info("Child logger with trace Id.")
		c.String(http.StatusOK, body)
	}
}
