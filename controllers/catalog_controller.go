package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/listing"
	"github.com/yashrajoria/bms-storefront/logger"
	"github.com/yashrajoria/bms-storefront/models"
)

var validate = validator.New()

const productsPath = "/bff/products"

type productsResponse struct {
	listResponse[models.Product]
	Sort        string   `json:"sort"`
	SortChoices []string `json:"sort_choices"`
}

// Products serves the catalog listing. The query string is normalized before
// it reaches the API, so equivalent URLs share one cache entry. A "sort"
// parameter carrying a dropdown choice overrides sortBy/sortOrder.
func (b *BFFController) Products(c *gin.Context) {
	ctx := c.Request.Context()

	q := listing.Products.Decode(c.Request.URL.RawQuery)
	if choice := c.Query("sort"); choice != "" {
		q = listing.Products.ApplySort(q, choice)
	}

	body, version, hit := b.cache.Get(ctx, listing.Products, q)
	if hit {
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}

	products, page, err := b.api.ListProducts(ctx, listing.Products.Params(q))
	if err != nil {
		b.respondError(c, err)
		return
	}

	resp := productsResponse{
		listResponse: newListResponse(listing.Products, productsPath, q, products, page),
		Sort:         listing.Products.SortChoice(q),
		SortChoices:  listing.SortChoices,
	}
	body, err = json.Marshal(resp)
	if err != nil {
		b.respondError(c, err)
		return
	}
	b.cache.SetAsync(listing.Products, version, q, body)

	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (b *BFFController) ProductByID(c *gin.Context) {
	p, err := b.api.GetProduct(c.Request.Context(), models.ID(c.Param("id")))
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":           p,
		"price_display":  models.FormatRupiah(p.Price),
		"weight_display": models.FormatWeight(p.Weight),
	})
}

func (b *BFFController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, "invalid request body", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		b.badRequest(c, "email and password are required", err)
		return
	}

	token, err := b.api.Login(c.Request.Context(), req)
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"token": token}})
}

func (b *BFFController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, "invalid request body", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		b.badRequest(c, "name, email, phone and a password of at least 6 characters are required", err)
		return
	}

	if err := b.api.Register(c.Request.Context(), req); err != nil {
		b.respondError(c, err)
		return
	}
	logger.WithRequest(c.Request.Context(), b.log).Info("User registered", zap.String("email", req.Email))
	c.JSON(http.StatusCreated, gin.H{"notice": notice("success", "Sukses", "Registrasi berhasil.")})
}

func (b *BFFController) Me(c *gin.Context) {
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	u, err := b.api.Me(c.Request.Context(), token)
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u})
}
