package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thetombrider/objectdms/pkg/metrics"
)

// Metrics counts requests and observes their latency. Unmatched routes are
// labelled with the raw URL path so 404 traffic stays visible without
// exploding label cardinality on known routes.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequests.WithLabelValues(method, route, status).Inc()
		metrics.APILatency.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}
