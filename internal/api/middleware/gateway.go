package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email, X-User-Role).
// The gateway in front of the API validates credentials.
//
// When AUTH_MODE=gateway, the API trusts these headers unconditionally.
// This should ONLY be used behind a gateway with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr := c.GetHeader("X-User-ID")
		if userIDStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		// Parse user ID (could be numeric or string depending on gateway)
		var userID uint
		if id, err := strconv.ParseUint(userIDStr, 10, 64); err == nil {
			userID = uint(id)
		}

		c.Set("user_id", userID)
		c.Set("user_id_str", userIDStr)
		c.Set("user_email", c.GetHeader("X-User-Email"))
		c.Set("user_role", c.GetHeader("X-User-Role"))

		c.Next()
	}
}

// GetUserRoleFromGateway retrieves the user role from gateway headers
func GetUserRoleFromGateway(c *gin.Context) (string, bool) {
	role, exists := c.Get("user_role")
	if !exists {
		return "", false
	}
	r, ok := role.(string)
	return r, ok
}
