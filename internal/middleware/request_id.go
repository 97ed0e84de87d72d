package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
)

const (
	HeaderRequestID = "X-Request-ID"

	// ContextKeyRequestID is the gin key holding the request id.
	ContextKeyRequestID = "request_id"
)

// RequestID reuses an incoming X-Request-ID or generates one, echoes it on
// the response and stores it on the request context for logging and
// event correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}

		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))

		c.Next()
	}
}
