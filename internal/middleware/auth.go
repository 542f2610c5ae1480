package middleware

import (
	"context"
	"strings"

	"nutriscan/internal/apperr"
	"nutriscan/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CheckUserKey = "user_id"
	TokenKey     = "token"
)

// TokenResolver maps a bearer token to a user id.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (uint, error)
}

// LoadUser resolves the bearer token if one is present and stores the user id in the context.
// 无效 token 不在这里拒绝，由 AuthRequired 决定
func LoadUser(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		userID, err := resolver.ResolveToken(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(CheckUserKey, userID)
			c.Set(TokenKey, token)
		case apperr.Is(err, apperr.KindUnauthorized):
		default:
			logger.L.Warn("resolve token failed", zap.Error(err))
		}
		c.Next()
	}
}

// AuthRequired rejects requests without a resolved user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			_ = c.Error(apperr.Unauthorized("not authenticated"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
