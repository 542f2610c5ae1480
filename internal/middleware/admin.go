package middleware

import (
	"crypto/subtle"

	"nutriscan/internal/apperr"

	"github.com/gin-gonic/gin"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminKeyRequired guards operator routes. An empty key disables them entirely.
func AdminKeyRequired(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			_ = c.Error(apperr.NotFound("not found"))
			c.Abort()
			return
		}
		got := c.GetHeader(AdminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			_ = c.Error(apperr.Forbidden("invalid admin key"))
			c.Abort()
			return
		}
		c.Next()
	}
}
