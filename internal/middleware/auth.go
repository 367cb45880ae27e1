package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shortlyapp/shortly/internal/auth"
)

const (
	userIDKey    = "user_id"
	userEmailKey = "user_email"
)

// RequireAuth verifies the bearer token in the Authorization header and puts
// the caller's id and email into the request context. Missing, malformed and
// unverifiable tokens are all 401.
func RequireAuth(tm *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := tm.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userEmailKey, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated caller's id. Only valid after RequireAuth.
func UserID(c *gin.Context) (string, bool) {
	id, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	s, ok := id.(string)
	return s, ok && s != ""
}
