package middleware

import (
	"github.com/Conceptual-Machines/battito/internal/models"
	"github.com/gin-gonic/gin"
)

// NoAuth is a pass-through middleware for when AUTH_MODE=none.
// The local user owns the instance, so it is treated as admin.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", uint(0))
		c.Set("user_id_str", "local")
		c.Set("user_role", models.RoleAdmin)
		c.Next()
	}
}
