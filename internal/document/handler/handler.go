package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/laserdata/laser-api/internal/document/service"
	"github.com/laserdata/laser-api/pkg/logger"
	"github.com/laserdata/laser-api/pkg/middleware"
)

const (
	msgNotConfigured = "MONGODB_URI environment variable not set."
	msgNoDocuments   = "No documents found."
)

// RegisterDocumentRoutes registers GET /mongo-test, which returns the first user
// document. Every failure is answered with 500 {"error": ...} and logged at ERROR.
func RegisterDocumentRoutes(r *gin.Engine, svc service.Service, log *logger.Logger) {
	r.GET("/mongo-test", func(c *gin.Context) {
		l := middleware.LoggerFrom(c, log)

		doc, err := svc.FetchFirstUserDocument(c.Request.Context())
		if err != nil {
			if errors.Is(err, service.ErrNotConfigured) {
				l.Error(msgNotConfigured)
				c.JSON(http.StatusInternalServerError, gin.H{"error": msgNotConfigured})
				return
			}
			l.Error("MongoDB connection failed: "+err.Error(), logger.Fields{"error": err.Error()})
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if doc == nil {
			c.JSON(http.StatusOK, gin.H{"message": msgNoDocuments})
			return
		}
		c.JSON(http.StatusOK, doc)
	})
}
