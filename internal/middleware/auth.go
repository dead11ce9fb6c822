package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// accessTokenKey is the gin context key the bearer token is stored under.
const accessTokenKey = "accessToken"

// AuthMiddleware extracts the bearer token from the Authorization header and
// stores it in the request context. The token is only required; resolving it
// to a user is left to the services so each operation can fail with its own
// session error.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		c.Set(accessTokenKey, token)
		c.Next()
	}
}

// AccessToken returns the bearer token stored by AuthMiddleware.
func AccessToken(c *gin.Context) string {
	return c.GetString(accessTokenKey)
}
