package handlers

import (
	"net/http"

	"nutriscan/internal/apperr"
	"nutriscan/internal/services"

	"github.com/gin-gonic/gin"
)

type BookmarkHandler struct {
	bookmarks *services.BookmarkService
}

func NewBookmarkHandler(bookmarks *services.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks}
}

type bookmarkRequest struct {
	IngredientID *uint `json:"ingredientId"`
	ProductID    *uint `json:"productId"`
}

// ListForUser 只能查看自己的收藏
func (h *BookmarkHandler) ListForUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if id != currentUserID(c) {
		_ = c.Error(apperr.Forbidden("bookmarks are private"))
		return
	}

	list, err := h.bookmarks.ListBookmarks(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Add is idempotent: bookmarking the same target twice returns the existing row.
func (h *BookmarkHandler) Add(c *gin.Context) {
	var req bookmarkRequest
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.bookmarks.AddBookmark(c.Request.Context(), currentUserID(c), req.IngredientID, req.ProductID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookmarkHandler) Remove(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.bookmarks.RemoveBookmark(c.Request.Context(), currentUserID(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
