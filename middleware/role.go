package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Known actor roles.
const (
	RoleManager = "MANAGER"
	RoleSales   = "SALES"
	RoleDriver  = "DRIVER"
)

// RequireRole rejects actors whose role is not in the allowed set.
func RequireRole(allowed ...string) gin.HandlerFunc {
	set := make(map[string]bool, len(allowed))
	for _, r := range allowed {
		set[r] = true
	}
	return func(c *gin.Context) {
		role := c.GetString(CtxUserRole)
		if !set[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
			return
		}
		c.Next()
	}
}
