package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/hosteldesk-api/internal/service"
)

// Metrics records duration and volume for every handled request.
// The route template is used as the path label so /bookings/:id stays
// a single series regardless of the record hit.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			// unmatched routes collapse into one label
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
