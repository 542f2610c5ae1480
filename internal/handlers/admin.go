package handlers

import (
	"net/http"

	"nutriscan/internal/apperr"
	"nutriscan/internal/services"
	"nutriscan/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler 运营接口，由 X-Admin-Key 保护
type AdminHandler struct {
	moderation  *services.ModerationService
	discussions *services.DiscussionService
}

func NewAdminHandler(moderation *services.ModerationService, discussions *services.DiscussionService) *AdminHandler {
	return &AdminHandler{moderation: moderation, discussions: discussions}
}

type reviewFlagRequest struct {
	Status string `json:"status" binding:"required"`
}

type updateDiscussionRequest struct {
	IsLocked *bool `json:"isLocked"`
	IsPinned *bool `json:"isPinned"`
}

func (h *AdminHandler) ListFlags(c *gin.Context) {
	limit := utils.ClampLimit(c.Query("limit"), 50, 200)
	flags, err := h.moderation.ListFlags(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, flags)
}

func (h *AdminHandler) ReviewFlag(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req reviewFlagRequest
	if !bindJSON(c, &req) {
		return
	}
	flag, err := h.moderation.ReviewFlag(c.Request.Context(), id, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, flag)
}

// UpdateDiscussion 锁定 / 置顶
func (h *AdminHandler) UpdateDiscussion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateDiscussionRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IsLocked == nil && req.IsPinned == nil {
		_ = c.Error(apperr.InvalidArgument("nothing to update"))
		return
	}

	ctx := c.Request.Context()
	if req.IsLocked != nil {
		if err := h.discussions.SetLocked(ctx, id, *req.IsLocked); err != nil {
			_ = c.Error(err)
			return
		}
	}
	if req.IsPinned != nil {
		if err := h.discussions.SetPinned(ctx, id, *req.IsPinned); err != nil {
			_ = c.Error(err)
			return
		}
	}

	d, err := h.discussions.GetDiscussion(ctx, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, d)
}
