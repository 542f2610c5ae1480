package handlers

import (
	"net/http"

	"nutriscan/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	discussions *services.DiscussionService
}

func NewCommentHandler(discussions *services.DiscussionService) *CommentHandler {
	return &CommentHandler{discussions: discussions}
}

type createCommentRequest struct {
	DiscussionID uint   `json:"discussionId" binding:"required"`
	Content      string `json:"content"`
	ParentID     *uint  `json:"parentId"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.discussions.CreateComment(c.Request.Context(), services.CreateCommentInput{
		DiscussionID: req.DiscussionID,
		UserID:       currentUserID(c),
		Content:      req.Content,
		ParentID:     req.ParentID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListByDiscussion returns comments oldest first.
func (h *CommentHandler) ListByDiscussion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comments, err := h.discussions.ListComments(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comment, err := h.discussions.DeleteComment(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comment)
}
