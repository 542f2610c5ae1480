package handlers

import (
	"net/http"

	"nutriscan/internal/news"
	"nutriscan/internal/services"
	"nutriscan/internal/utils"

	"github.com/gin-gonic/gin"
)

// NewsSourceHeader tells clients whether articles are live, cached or fallback.
const NewsSourceHeader = "X-News-Source"

type IngredientHandler struct {
	ingredients *services.IngredientService
	news        *services.NewsService
	research    *services.ResearchService
}

func NewIngredientHandler(ingredients *services.IngredientService, news *services.NewsService, research *services.ResearchService) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients, news: news, research: research}
}

func (h *IngredientHandler) Create(c *gin.Context) {
	var req services.CreateIngredientInput
	if !bindJSON(c, &req) {
		return
	}
	ing, err := h.ingredients.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ing)
}

func (h *IngredientHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ing, err := h.ingredients.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ing)
}

// Trending 按讨论数排序
func (h *IngredientHandler) Trending(c *gin.Context) {
	limit := utils.ClampLimit(c.Query("limit"), 10, 50)
	list, err := h.ingredients.Trending(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// News 上游失败时降级为缓存或兜底内容，不会返回 5xx
func (h *IngredientHandler) News(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit := utils.ClampLimit(c.Query("limit"), news.DefaultLimit, 50)

	res, err := h.news.ArticlesForIngredient(c.Request.Context(), id, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header(NewsSourceHeader, res.Source)
	c.JSON(http.StatusOK, res.Articles)
}

func (h *IngredientHandler) Research(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	studies, err := h.research.StudiesForIngredient(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, studies)
}
