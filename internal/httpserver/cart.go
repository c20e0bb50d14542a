package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jewelry-storefront/internal/api"
	"jewelry-storefront/internal/domain"
)

func (h *handler) cartOK(c *gin.Context, status int, msg string, lines []domain.CartLine) {
	c.JSON(status, api.CartResponse{Status: status, Message: msg, Data: nonNil(lines)})
}

func (h *handler) getCart(c *gin.Context) {
	lines, err := h.deps.CartSvc.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cartOK(c, http.StatusOK, "cart fetched", lines)
}

func (h *handler) addCart(c *gin.Context) {
	var in domain.AddToCartInput
	if !bindJSON(c, &in) {
		return
	}
	lines, err := h.deps.CartSvc.Add(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cartOK(c, http.StatusCreated, "item added to cart", lines)
}

func (h *handler) updateCart(c *gin.Context) {
	var in domain.UpdateCartInput
	if !bindJSON(c, &in) {
		return
	}
	lines, err := h.deps.CartSvc.Update(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cartOK(c, http.StatusOK, "cart updated", lines)
}

func (h *handler) deleteCartItem(c *gin.Context) {
	var req api.DeleteCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	lines, err := h.deps.CartSvc.Remove(c.Request.Context(), currentUser(c).ID, req.CartItemID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.cartOK(c, http.StatusOK, "item removed from cart", lines)
}
