package middleware

import (
	"net/http"
	"strings"

	"tourbooking/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthAdminMiddleware admits only bearer tokens signed with secret and
// carrying the admin role.
func JWTAuthAdminMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.ValidateToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "Invalid token"})
			return
		}
		if role, _ := claims["role"].(string); role != utils.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "forbidden", "message": "Unauthorized admin access"})
			return
		}

		c.Set("adminSubject", claims["sub"])
		c.Set("isAdmin", true)
		c.Next()
	}
}
