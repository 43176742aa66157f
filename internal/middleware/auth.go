package middleware

import (
	"strings"

	"ranklist/internal/util"

	"github.com/gin-gonic/gin"
)

// RequireAuth validates the bearer token and puts the acting user ID into
// the context. Issuance belongs to the identity service; we only verify.
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			util.Unauthorized(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token, jwtSecret)
		if err != nil {
			util.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}

// OptionalAuth resolves the acting user when a valid token is presented but
// lets anonymous requests through. Used by read paths that personalize
// output (e.g. user_reacted flags).
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			if claims, err := util.ValidateToken(token, jwtSecret); err == nil {
				c.Set("userID", claims.UserID)
			}
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Query("token")
}
