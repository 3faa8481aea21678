package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/laserdata/laser-api/pkg/logger"
	"github.com/laserdata/laser-api/pkg/metrics"
)

const (
	RequestIDHeader = "X-Request-ID"
	// TraceHeader is set by Google front ends: TRACE_ID/SPAN_ID;o=OPTIONS
	TraceHeader = "X-Cloud-Trace-Context"

	loggerKey = "logger"
)

// RequestLogger stores a per-request child of base in the gin context. The child
// carries the request id and, when project is set and the trace header is present,
// the Cloud Logging trace field so records group under the request.
func RequestLogger(base *logger.Logger, project string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		fields := logger.Fields{"requestId": id}
		if trace, ok := TracePath(c.GetHeader(TraceHeader), project); ok {
			fields[logger.TraceKey] = trace
		}
		c.Set(loggerKey, base.With(fields))
		c.Next()
	}
}

// LoggerFrom returns the request logger set by RequestLogger, or fallback.
func LoggerFrom(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return fallback
}

// TracePath converts a trace header into "projects/<project>/traces/<traceId>".
func TracePath(header, project string) (string, bool) {
	if header == "" || project == "" {
		return "", false
	}
	traceID, _, _ := strings.Cut(header, "/")
	if i := strings.IndexByte(traceID, ';'); i >= 0 {
		traceID = traceID[:i]
	}
	traceID = strings.TrimSpace(traceID)
	if traceID == "" {
		return "", false
	}
	return fmt.Sprintf("projects/%s/traces/%s", project, traceID), true
}

// AccessLog writes one record per request and counts it in metrics.HTTPRequests.
func AccessLog(fallback *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		level := logger.LevelInfo
		if status >= 500 {
			level = logger.LevelWarn
		}
		LoggerFrom(c, fallback).Log(level, "request completed", logger.Fields{
			"httpRequest": map[string]interface{}{
				"requestMethod": c.Request.Method,
				"requestUrl":    c.Request.URL.String(),
				"status":        status,
				"responseSize":  strconv.Itoa(c.Writer.Size()),
				"userAgent":     c.Request.UserAgent(),
				"remoteIp":      c.ClientIP(),
				"latency":       fmt.Sprintf("%.6fs", time.Since(start).Seconds()),
			},
		})
	}
}
