package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flicky/storefront/internal/dto"
	"github.com/flicky/storefront/internal/middleware"
	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/service"
)

// CartHandler serves the signed-in user's cart. Mutations honour an optional
// If-Match header carrying the cart version; responses carry it as ETag.
type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.svc.GetCart(c.Request.Context(), middleware.GetUserID(c))
	h.respond(c, cart, err)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !withCartVersion(c) {
		return
	}
	cart, err := h.svc.AddItem(c.Request.Context(), middleware.GetUserID(c), req.ProductID, req.Quantity)
	h.respond(c, cart, err)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !withCartVersion(c) {
		return
	}
	cart, err := h.svc.SetQuantity(c.Request.Context(), middleware.GetUserID(c), c.Param("productId"), *req.Quantity)
	h.respond(c, cart, err)
}

func (h *CartHandler) DeleteItem(c *gin.Context) {
	if !withCartVersion(c) {
		return
	}
	cart, err := h.svc.RemoveItem(c.Request.Context(), middleware.GetUserID(c), c.Param("productId"))
	h.respond(c, cart, err)
}

func (h *CartHandler) Clear(c *gin.Context) {
	if !withCartVersion(c) {
		return
	}
	cart, err := h.svc.Clear(c.Request.Context(), middleware.GetUserID(c))
	h.respond(c, cart, err)
}

func (h *CartHandler) respond(c *gin.Context, cart *model.Cart, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("ETag", strconv.Quote(strconv.FormatInt(cart.Version, 10)))
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}
