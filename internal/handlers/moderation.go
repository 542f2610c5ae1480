package handlers

import (
	"net/http"

	"nutriscan/internal/services"

	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	moderation *services.ModerationService
}

func NewModerationHandler(moderation *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderation: moderation}
}

type flagRequest struct {
	DiscussionID *uint  `json:"discussionId"`
	CommentID    *uint  `json:"commentId"`
	Reason       string `json:"reason"`
}

// Flag 举报讨论或评论，二者必须且只能给一个
func (h *ModerationHandler) Flag(c *gin.Context) {
	var req flagRequest
	if !bindJSON(c, &req) {
		return
	}

	flag, err := h.moderation.FlagContent(c.Request.Context(), services.FlagInput{
		UserID:       currentUserID(c),
		DiscussionID: req.DiscussionID,
		CommentID:    req.CommentID,
		Reason:       req.Reason,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, flag)
}
