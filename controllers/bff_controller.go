package controllers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/clients"
	"github.com/yashrajoria/bms-storefront/ledger"
	"github.com/yashrajoria/bms-storefront/listing"
	"github.com/yashrajoria/bms-storefront/logger"
	"github.com/yashrajoria/bms-storefront/middleware"
	"github.com/yashrajoria/bms-storefront/models"
	"github.com/yashrajoria/bms-storefront/payment"
)

// StoreAPI is the store REST API as the BFF uses it. *clients.StoreAPI implements it.
type StoreAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (string, error)
	Register(ctx context.Context, req models.RegisterRequest) error

	ListProducts(ctx context.Context, params url.Values) ([]models.Product, models.Pagination, error)
	GetProduct(ctx context.Context, id models.ID) (*models.Product, error)

	Me(ctx context.Context, token string) (*models.User, error)

	ListCart(ctx context.Context, token string) ([]models.CartItem, error)
	AddToCart(ctx context.Context, token string, req models.AddToCartRequest) error
	UpdateCartQuantity(ctx context.Context, token string, cartID models.ID, quantity int) error
	RemoveCartItem(ctx context.Context, token string, cartID models.ID) error

	CreateOrder(ctx context.Context, token string, req models.CreateOrderRequest) (*models.CreatedOrder, error)
	MyOrders(ctx context.Context, token string, params url.Values) ([]models.Order, models.Pagination, error)
	GetOrder(ctx context.Context, token string, id models.ID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, token string, id models.ID, status models.OrderStatus) error

	AdminOrders(ctx context.Context, token string, params url.Values) ([]models.Order, models.Pagination, error)
	AdminUsers(ctx context.Context, token string, params url.Values) ([]models.User, models.Pagination, error)
	AdminMe(ctx context.Context, token string) (*models.User, error)
	UpdateAdminProfile(ctx context.Context, token string, form models.ProfileForm, image *clients.FilePart) (*models.User, error)
	CreateProduct(ctx context.Context, token string, form models.ProductForm, image *clients.FilePart) (*models.Product, error)
	UpdateProduct(ctx context.Context, token string, id models.ID, form models.ProductForm, image *clients.FilePart) (*models.Product, error)
	DeleteProduct(ctx context.Context, token string, id models.ID) error
}

type BFFController struct {
	api      StoreAPI
	ledgers  *ledger.Opener
	payments *payment.Service
	cache    *listing.Cache
	snap     SnapConfig
	log      *zap.Logger
}

// SnapConfig is what the page needs to load the payment widget script.
type SnapConfig struct {
	ClientKey string `json:"client_key"`
	ScriptURL string `json:"script_url"`
}

// NewBFFController wires the handlers. cache may be nil.
func NewBFFController(api StoreAPI, ledgers *ledger.Opener, payments *payment.Service, cache *listing.Cache, log *zap.Logger) *BFFController {
	return &BFFController{
		api:      api,
		ledgers:  ledgers,
		payments: payments,
		cache:    cache,
		log:      logger.OrNop(log),
	}
}

// WithSnap sets the widget settings returned alongside new snap tokens.
func (b *BFFController) WithSnap(cfg SnapConfig) *BFFController {
	b.snap = cfg
	return b
}

func (b *BFFController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError writes err as {error, kind, notice}. Server-side kinds are
// logged; client mistakes are not.
func (b *BFFController) respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.WithRequest(c.Request.Context(), b.log).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", string(appErr.Kind)),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(appErr.Code, gin.H{
		"error":  appErr.Message,
		"kind":   appErr.Kind,
		"notice": payment.ErrorNotice(appErr),
	})
}

func (b *BFFController) badRequest(c *gin.Context, msg string, err error) {
	b.respondError(c, apperrors.ErrBadRequest.WithMessage(msg).Wrap(err))
}

// caller returns the authenticated user id and bearer token.
func caller(c *gin.Context) (string, string, error) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return "", "", apperrors.ErrUnauthorized.Wrap(err)
	}
	return userID, middleware.GetToken(c), nil
}

func notice(level, title, text string) payment.Notice {
	return payment.Notice{Level: level, Title: title, Text: text}
}

// listResponse is the common shape of every listing endpoint.
type listResponse[T any] struct {
	Data       []T               `json:"data"`
	Pagination models.Pagination `json:"pagination"`
	Query      string            `json:"query"`
	Links      listing.Links     `json:"links"`
}

func newListResponse[T any](v listing.Vocabulary, path string, q listing.Query, items []T, p models.Pagination) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{
		Data:       items,
		Pagination: p,
		Query:      v.Encode(q),
		Links:      v.PageLinks(path, q, p),
	}
}
