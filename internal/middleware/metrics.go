package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aura-events/backend/pkg/metrics"
	"github.com/aura-events/backend/pkg/response"
)

// Metrics records request counts and latency by route, and authorization denials by reason.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
		if reason := c.GetString(response.ContextDenialReason); reason != "" {
			m.AuthzDenialsTotal.WithLabelValues(reason).Inc()
		}
	}
}
