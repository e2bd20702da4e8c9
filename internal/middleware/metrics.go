package middleware

import (
	"strconv"
	"time"

	"realty-listings/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics feeds the Prometheus collectors and, when recorder is not nil,
// the persisted application metrics
func Metrics(recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())
		if recorder != nil {
			recorder.Record(c.Request.Method, route, status, elapsed)
		}
	}
}
