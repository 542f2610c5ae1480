package handlers

import (
	"nutriscan/internal/apperr"
	"nutriscan/internal/middleware"
	"nutriscan/internal/utils"

	"github.com/gin-gonic/gin"
)

// bindJSON 解析请求体，失败时记录 invalid_argument 并返回 false
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(apperr.InvalidArgument("invalid request body: %v", err))
		return false
	}
	return true
}

// paramID reads a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		_ = c.Error(apperr.InvalidArgument("invalid %s", name))
		return 0, false
	}
	return id, true
}

// currentUserID 只在 AuthRequired 之后的路由上调用
func currentUserID(c *gin.Context) uint {
	id, _ := middleware.CurrentUserID(c)
	return id
}
