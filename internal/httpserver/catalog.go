package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jewelry-storefront/internal/api"
	"jewelry-storefront/internal/domain"
)

func (h *handler) listProducts(c *gin.Context) {
	page, err := h.deps.ProductSvc.List(c.Request.Context(), domain.ProductFilter{
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
		Search:     c.Query("search"),
		CategoryID: c.Query("categoryId"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header(api.TotalCountHeader, strconv.Itoa(page.Total))
	c.JSON(http.StatusOK, page)
}

func (h *handler) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.DataResponse[*domain.Product]{Data: p})
}

func (h *handler) batchProducts(c *gin.Context) {
	var req api.BatchRequest
	if !bindJSON(c, &req) {
		return
	}
	products, err := h.deps.ProductSvc.Batch(c.Request.Context(), req.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.DataResponse[[]domain.Product]{Data: nonNil(products)})
}

func (h *handler) searchProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.DataResponse[[]domain.Product]{Data: nonNil(products)})
}

func (h *handler) freshDrops(c *gin.Context) {
	products, err := h.deps.ProductSvc.FreshDrops(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.DataResponse[[]domain.Product]{Data: nonNil(products)})
}

func (h *handler) productColors(c *gin.Context) {
	colors, err := h.deps.ProductSvc.Colors(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.DataResponse[[]domain.ProductColor]{Data: nonNil(colors)})
}

func (h *handler) listCategories(c *gin.Context) {
	page, err := h.deps.CategorySvc.List(c.Request.Context(), domain.CategoryFilter{
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
		Search: c.Query("search"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header(api.TotalCountHeader, strconv.Itoa(page.Total))
	c.JSON(http.StatusOK, page)
}

func (h *handler) getCategory(c *gin.Context) {
	cat, err := h.deps.CategorySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.DataResponse[*domain.Category]{Data: cat})
}

func (h *handler) categoryProducts(c *gin.Context) {
	products, err := h.deps.ProductSvc.ByCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.DataResponse[[]domain.Product]{Data: nonNil(products)})
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
