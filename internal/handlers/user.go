package handlers

import (
	"net/http"

	"nutriscan/internal/services"
	"nutriscan/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	identity *services.IdentityService
	activity *services.ActivityService
}

func NewUserHandler(identity *services.IdentityService, activity *services.ActivityService) *UserHandler {
	return &UserHandler{identity: identity, activity: activity}
}

// Activity 用户公开的行为记录
func (h *UserHandler) Activity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.identity.GetUser(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	limit := utils.ClampLimit(c.Query("limit"), 50, 200)
	items, err := h.activity.ListActivity(c.Request.Context(), id, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, items)
}
