package handlers

import (
	"net/http"

	"nutriscan/internal/middleware"
	"nutriscan/internal/models"
	"nutriscan/internal/services"
	"nutriscan/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	identity *services.IdentityService
}

func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type anonymousRequest struct {
	Username string `json:"username"`
}

type meResponse struct {
	*models.User
	Level     string `json:"level"`
	LevelIcon string `json:"levelIcon"`
}

// Anonymous 创建匿名用户并签发 token
func (h *AuthHandler) Anonymous(c *gin.Context) {
	var req anonymousRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.identity.CreateAnonymousUser(c.Request.Context(), req.Username)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.identity.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	level, icon := utils.GetUserLevel(user.Reputation)
	c.JSON(http.StatusOK, meResponse{User: user, Level: level, LevelIcon: icon})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(middleware.TokenKey)
	if err := h.identity.Logout(c.Request.Context(), token); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
