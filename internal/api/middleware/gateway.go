package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Headers set by the upstream gateway
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email, X-User-Role).
// The gateway handles token validation and quota checks before the request
// reaches the composer.
//
// When AUTH_MODE=gateway, the API trusts these headers unconditionally.
// This should ONLY be used with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Set(userEmailKey, c.GetHeader(HeaderUserEmail))
		c.Set(userRoleKey, c.GetHeader(HeaderUserRole))

		c.Next()
	}
}

// GetUserEmail retrieves the user email set by GatewayAuth or JWTAuth
func GetUserEmail(c *gin.Context) (string, bool) {
	return getString(c, userEmailKey)
}

// GetUserRole retrieves the user role set by GatewayAuth
func GetUserRole(c *gin.Context) (string, bool) {
	return getString(c, userRoleKey)
}
