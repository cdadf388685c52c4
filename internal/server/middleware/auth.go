package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storeops-system/internal/utils"
)

const ContextUserID = "user_id"

// JWTAuth validates the bearer token and stores the caller's user id on
// the request context for counted_by/created_by stamping.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing or malformed authorization header",
			})
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})
			return
		}

		c.Set(ContextUserID, claims.UserId)
		c.Set("username", claims.Username)
		c.Next()
	}
}

func UserID(c *gin.Context) int64 {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
