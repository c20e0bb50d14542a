package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jewelry-storefront/internal/api"
	"jewelry-storefront/internal/domain"
)

func (h *handler) listAddresses(c *gin.Context) {
	addrs, err := h.deps.AddressSvc.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AddressListResponse{Msg: "addresses fetched", AllAddress: nonNil(addrs)})
}

func (h *handler) addAddress(c *gin.Context) {
	var in domain.AddressInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.deps.AddressSvc.Create(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *handler) updateAddress(c *gin.Context) {
	var in domain.AddressInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.deps.AddressSvc.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handler) deleteAddress(c *gin.Context) {
	if err := h.deps.AddressSvc.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.AddressMessage{Msg: "address deleted"})
}
