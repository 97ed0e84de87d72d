package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
)

// Recovery turns a panic into a 500 with the standard error body.
func Recovery(logger *logging.Logger) gin.HandlerFunc {
	log := logger.Component("recovery")

	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("Panic recovered", logging.Fields{
			"panic":      recovered,
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(ContextKeyRequestID),
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
