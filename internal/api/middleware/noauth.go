package middleware

import (
	"github.com/gin-gonic/gin"
)

// AnonymousUser is the user id of unauthenticated requests
const AnonymousUser = "anonymous"

// NoAuth is a pass-through middleware for AUTH_MODE=none.
// It allows all requests without authentication.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Set a placeholder user ID for logging purposes
		c.Set(userIDKey, AnonymousUser)
		c.Next()
	}
}
