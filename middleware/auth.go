package middleware

import (
	"net/http"
	"strings"

	"loadline/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	CtxUserID      = "userId"
	CtxUserRole    = "role"
	CtxCompanyCode = "companyCode"
	CtxUserName    = "userName"
)

// JWTAuthMiddleware validates the bearer token and stamps the actor claims
// onto the request context.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := utils.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		claims, err := utils.ExtractActorClaims(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxCompanyCode, claims.CompanyCode)
		c.Set(CtxUserName, claims.UserName)
		c.Next()
	}
}

// Actor returns the authenticated actor's id, name, role and company.
func Actor(c *gin.Context) (id, name, role, company string) {
	return c.GetString(CtxUserID), c.GetString(CtxUserName), c.GetString(CtxUserRole), c.GetString(CtxCompanyCode)
}
