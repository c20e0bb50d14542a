package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jewelry-storefront/internal/api"
)

func (h *handler) listOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OrdersResponse{Success: true, Orders: nonNil(orders)})
}

func (h *handler) placeOrder(c *gin.Context) {
	var req api.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.deps.OrderSvc.Place(c.Request.Context(), currentUser(c).ID, req.AddressID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, api.OrderResponse{Success: true, Order: o})
}

func (h *handler) deleteOrder(c *gin.Context) {
	if err := h.deps.OrderSvc.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Success: true, Message: "order deleted"})
}

func (h *handler) updateOrder(c *gin.Context) {
	var req api.UpdateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.deps.OrderSvc.UpdateStatus(c.Request.Context(), currentUser(c).ID, c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.OrderResponse{Success: true, Message: "order status updated", Order: o})
}
