package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
)

// ContextKeyRestaurantID is the gin key holding the authenticated
// restaurant id.
const ContextKeyRestaurantID = "restaurant_id"

// TokenVerifier resolves a bearer token to the restaurant it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// Auth requires a valid bearer token and scopes the request to the
// token's restaurant.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return authenticate(verifier, false)
}

// WebsocketAuth is Auth that also accepts the token as a ?token= query
// parameter, since browsers cannot set headers on a websocket handshake.
func WebsocketAuth(verifier TokenVerifier) gin.HandlerFunc {
	return authenticate(verifier, true)
}

func authenticate(verifier TokenVerifier, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		restaurantID, err := verifier.VerifyToken(token)
		if err != nil || restaurantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextKeyRestaurantID, restaurantID)
		ctx := repository.WithScope(c.Request.Context(), repository.ForRestaurant(restaurantID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
