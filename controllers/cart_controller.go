package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/bms-storefront/models"
)

type cartView struct {
	Items           []models.CartItem `json:"items"`
	Subtotal        string            `json:"subtotal"`
	SubtotalDisplay string            `json:"subtotal_display"`
}

func (b *BFFController) Cart(c *gin.Context) {
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	items, err := b.api.ListCart(c.Request.Context(), token)
	if err != nil {
		b.respondError(c, err)
		return
	}
	if items == nil {
		items = []models.CartItem{}
	}
	subtotal := models.Subtotal(items)
	c.JSON(http.StatusOK, gin.H{"data": cartView{
		Items:           items,
		Subtotal:        subtotal.String(),
		SubtotalDisplay: models.FormatRupiah(subtotal),
	}})
}

func (b *BFFController) AddToCart(c *gin.Context) {
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, "invalid request body", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		b.badRequest(c, "product_id and a positive quantity are required", err)
		return
	}

	if err := b.api.AddToCart(c.Request.Context(), token, req); err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"notice": notice("success", "Sukses", "Produk ditambahkan ke keranjang.")})
}

func (b *BFFController) UpdateCartItem(c *gin.Context) {
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	var req struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, "a positive quantity is required", err)
		return
	}

	if err := b.api.UpdateCartQuantity(c.Request.Context(), token, models.ID(c.Param("id")), req.Quantity); err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (b *BFFController) RemoveCartItem(c *gin.Context) {
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	if err := b.api.RemoveCartItem(c.Request.Context(), token, models.ID(c.Param("id"))); err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
