package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/azizur-rahaman/skillflow-sub002/internal/service"
)

// UnmatchedRoute labels requests that hit no registered route, so probing
// clients cannot grow the path label set.
const UnmatchedRoute = "unmatched"

// Metrics records request count and latency labelled by the matched route
// pattern, e.g. /api/v1/minting/sessions/:id/mint. Routes listed in skip
// (scrape and health endpoints) are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		skipped[route] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if _, ok := skipped[route]; ok && route != "" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if route == "" {
			route = UnmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
