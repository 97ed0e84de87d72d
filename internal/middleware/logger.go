package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
)

// Logger writes one line per request once the handler chain returns.
func Logger(logger *logging.Logger) gin.HandlerFunc {
	log := logger.Component("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logging.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetString(ContextKeyRequestID),
			"client_ip":  c.ClientIP(),
		}
		if id := c.GetString(ContextKeyRestaurantID); id != "" {
			fields["restaurant_id"] = id
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			log.Error("Request failed", fields)
		case status >= 400:
			log.Warn("Request rejected", fields)
		default:
			log.Info("Request handled", fields)
		}
	}
}
