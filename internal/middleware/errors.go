package middleware

import (
	"errors"
	"net/http"

	"nutriscan/internal/apperr"
	"nutriscan/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalMessage = "internal server error"

// ErrorHandler 统一错误出口：handler 只调用 c.Error，这里负责写响应体
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.L.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"error": internalMessage,
						"code":  apperr.KindInternal,
					})
				}
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		kind := apperr.KindOf(err)
		message := err.Error()
		var appErr *apperr.Error
		if kind == apperr.KindInternal {
			logger.L.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			message = internalMessage
		} else if errors.As(err, &appErr) {
			message = appErr.Msg
		}

		c.JSON(apperr.StatusOf(kind), gin.H{
			"error": message,
			"code":  kind,
		})
	}
}
