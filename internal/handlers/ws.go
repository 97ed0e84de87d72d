package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/middleware"
)

// Websocket handles GET /api/v1/ws. The auth middleware has already
// resolved the restaurant; the connection subscribes to its topic.
func (h *Handlers) Websocket(c *gin.Context) {
	restaurantID := c.GetString(middleware.ContextKeyRestaurantID)
	if restaurantID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", logging.Fields{
			"restaurant_id": restaurantID,
			"error":         err.Error(),
		})
		return
	}

	client := events.NewClient(h.hub, conn, events.RestaurantTopic(restaurantID), h.logger)
	go client.Run()

	h.logger.Info("Websocket connected", logging.Fields{
		"restaurant_id": restaurantID,
		"remote_addr":   c.ClientIP(),
	})
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			allowed[strings.ToLower(o)] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
}
