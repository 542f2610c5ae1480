package handlers

import (
	"net/http"

	"nutriscan/internal/services"

	"github.com/gin-gonic/gin"
)

type DiscussionHandler struct {
	discussions *services.DiscussionService
}

func NewDiscussionHandler(discussions *services.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{discussions: discussions}
}

type createDiscussionRequest struct {
	IngredientID uint   `json:"ingredientId" binding:"required"`
	Title        string `json:"title"`
	Content      string `json:"content"`
}

func (h *DiscussionHandler) Create(c *gin.Context) {
	var req createDiscussionRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.discussions.CreateDiscussion(c.Request.Context(), services.CreateDiscussionInput{
		IngredientID: req.IngredientID,
		UserID:       currentUserID(c),
		Title:        req.Title,
		Content:      req.Content,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DiscussionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := h.discussions.GetDiscussion(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// ListByIngredient 支持 ?sort=new|top|hot
func (h *DiscussionHandler) ListByIngredient(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := services.ParseListOrder(c.Query("sort"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	list, err := h.discussions.ListDiscussions(c.Request.Context(), id, order)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}
