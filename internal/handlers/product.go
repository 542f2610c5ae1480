package handlers

import (
	"net/http"

	"nutriscan/internal/services"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ByBarcode 本地没有时从商品库拉取并入库
func (h *ProductHandler) ByBarcode(c *gin.Context) {
	p, err := h.products.LookupByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}
