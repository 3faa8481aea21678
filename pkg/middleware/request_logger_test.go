package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/laserdata/laser-api/pkg/logger"
	"github.com/laserdata/laser-api/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, out string) []map[string]interface{} {
	t.Helper()
	var recs []map[string]interface{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		recs = append(recs, m)
	}
	return recs
}

func TestTracePath(t *testing.T) {
	got, ok := TracePath("105445aa7843bc8bf206b12000100000/1;o=1", "laser-prod")
	require.True(t, ok)
	require.Equal(t, "projects/laser-prod/traces/105445aa7843bc8bf206b12000100000", got)

	got, ok = TracePath("abc;o=1", "p")
	require.True(t, ok)
	require.Equal(t, "projects/p/traces/abc", got)

	_, ok = TracePath("abc/1", "")
	require.False(t, ok, "no project, no trace field")
	_, ok = TracePath("", "p")
	require.False(t, ok)
	_, ok = TracePath("/1;o=1", "p")
	require.False(t, ok)
}

func TestRequestLogger_AttachesRequestAndTrace(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter(&buf, "info")

	r := gin.New()
	r.Use(RequestLogger(base, "laser-prod"))
	r.GET("/x", func(c *gin.Context) {
		LoggerFrom(c, nil).Info("inside")
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(TraceHeader, "t123/9;o=1")
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	recs := decodeLines(t, buf.String())
	require.Len(t, recs, 1)
	require.Equal(t, "req-1", recs[0]["requestId"])
	require.Equal(t, "projects/laser-prod/traces/t123", recs[0][logger.TraceKey])
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(logger.Nop(), ""))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestLoggerFrom_Fallback(t *testing.T) {
	fallback := logger.Nop()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Same(t, fallback, LoggerFrom(c, fallback))
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter(&buf, "info")

	r := gin.New()
	r.Use(RequestLogger(base, ""), AccessLog(base))
	r.GET("/boom", func(c *gin.Context) { c.JSON(http.StatusInternalServerError, gin.H{"error": "x"}) })
	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/boom", "500"))
	beforeMiss := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("unmatched", "404"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/boom", "500")))
	require.Equal(t, beforeMiss+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("unmatched", "404")))

	recs := decodeLines(t, buf.String())
	require.Len(t, recs, 2)
	require.Equal(t, "WARNING", recs[0]["severity"])
	httpReq, ok := recs[0]["httpRequest"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(500), httpReq["status"])
	require.Equal(t, "INFO", recs[1]["severity"])
}
