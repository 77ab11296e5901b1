package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/clients"
	"github.com/yashrajoria/bms-storefront/listing"
	"github.com/yashrajoria/bms-storefront/logger"
	"github.com/yashrajoria/bms-storefront/models"
)

const (
	adminOrdersPath     = "/bff/admin/orders"
	adminPaidOrdersPath = "/bff/admin/orders/paid"
	adminUsersPath      = "/bff/admin/users"
	maxImageSize        = 5 << 20
)

func (b *BFFController) AdminOrders(c *gin.Context) {
	b.adminOrders(c, listing.AdminOrders, adminOrdersPath)
}

// AdminPaidOrders is the queue of paid orders waiting to be shipped.
func (b *BFFController) AdminPaidOrders(c *gin.Context) {
	b.adminOrders(c, listing.AdminPaidOrders, adminPaidOrdersPath)
}

func (b *BFFController) adminOrders(c *gin.Context, v listing.Vocabulary, path string) {
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	q := v.Decode(c.Request.URL.RawQuery)
	orders, page, err := b.api.AdminOrders(c.Request.Context(), token, v.Params(q))
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(v, path, q, orders, page))
}

func (b *BFFController) AdminUsers(c *gin.Context) {
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	q := listing.AdminUsers.Decode(c.Request.URL.RawQuery)
	users, page, err := b.api.AdminUsers(c.Request.Context(), token, listing.AdminUsers.Params(q))
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(listing.AdminUsers, adminUsersPath, q, users, page))
}

type dashboardResult struct {
	name   string
	orders []models.Order
	page   models.Pagination
	users  int
	err    error
}

// Dashboard gathers the back office's counters in parallel. A failed counter
// is reported as missing rather than failing the whole page.
func (b *BFFController) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}

	orderQueries := map[string]url.Values{
		"recent":    {"sortOrder": {"desc"}},
		"completed": {"status": {string(models.StatusCompleted)}},
		"cancelled": {"status": {string(models.StatusCancelled)}},
		"waiting":   {"status": {string(models.StatusProcessing)}},
		"paid":      {"status": {string(models.StatusPaid)}},
		"shipped":   {"status": {string(models.StatusShipped)}},
	}

	results := make(chan dashboardResult, len(orderQueries)+1)
	for name, params := range orderQueries {
		go func(name string, params url.Values) {
			orders, page, err := b.api.AdminOrders(ctx, token, params)
			results <- dashboardResult{name: name, orders: orders, page: page, err: err}
		}(name, params)
	}
	go func() {
		_, page, err := b.api.AdminUsers(ctx, token, url.Values{"limit": {"1"}})
		results <- dashboardResult{name: "users", users: page.Total(), err: err}
	}()

	totals := gin.H{}
	lists := gin.H{}
	failed := []string{}
	for i := 0; i < len(orderQueries)+1; i++ {
		r := <-results
		if r.err != nil {
			failed = append(failed, r.name)
			logger.WithRequest(ctx, b.log).Warn("Dashboard counter failed",
				zap.String("counter", r.name), zap.Error(r.err))
			continue
		}
		switch r.name {
		case "users":
			totals["users"] = r.users
		case "recent", "paid", "shipped":
			totals[r.name] = r.page.Total()
			lists[r.name] = nonNil(r.orders)
		default:
			totals[r.name] = r.page.Total()
		}
	}

	if len(failed) == len(orderQueries)+1 {
		b.respondError(c, apperrors.ErrFetch.WithMessage("failed to load dashboard data"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"totals": totals, "orders": lists, "failed": failed})
}

func nonNil(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}

func (b *BFFController) AdminProfile(c *gin.Context) {
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	u, err := b.api.AdminMe(c.Request.Context(), token)
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u})
}

func (b *BFFController) UpdateAdminProfile(c *gin.Context) {
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	var form models.ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		b.badRequest(c, "invalid form", err)
		return
	}
	if err := validate.Struct(form); err != nil {
		b.badRequest(c, "name and a valid email are required", err)
		return
	}
	image, closeImage, err := formImage(c)
	if err != nil {
		b.badRequest(c, err.Error(), err)
		return
	}
	defer closeImage()

	u, err := b.api.UpdateAdminProfile(c.Request.Context(), token, form, image)
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u, "notice": notice("success", "Sukses", "Profil berhasil diperbarui.")})
}

func (b *BFFController) CreateProduct(c *gin.Context) {
	b.saveProduct(c, "")
}

func (b *BFFController) UpdateProduct(c *gin.Context) {
	b.saveProduct(c, models.ID(c.Param("id")))
}

func (b *BFFController) saveProduct(c *gin.Context, id models.ID) {
	ctx := c.Request.Context()
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	var form models.ProductForm
	if err := c.ShouldBind(&form); err != nil {
		b.badRequest(c, "invalid form", err)
		return
	}
	if err := validate.Struct(form); err != nil {
		b.badRequest(c, "name, a positive price, stock and a known category are required", err)
		return
	}
	image, closeImage, err := formImage(c)
	if err != nil {
		b.badRequest(c, err.Error(), err)
		return
	}
	defer closeImage()

	var p *models.Product
	status := http.StatusOK
	if id == "" {
		p, err = b.api.CreateProduct(ctx, token, form, image)
		status = http.StatusCreated
	} else {
		p, err = b.api.UpdateProduct(ctx, token, id, form, image)
	}
	if err != nil {
		b.respondError(c, err)
		return
	}

	b.invalidateProducts(ctx)
	c.JSON(status, gin.H{"data": p, "notice": notice("success", "Sukses", "Produk berhasil disimpan.")})
}

func (b *BFFController) DeleteProduct(c *gin.Context) {
	ctx := c.Request.Context()
	_, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	if err := b.api.DeleteProduct(ctx, token, models.ID(c.Param("id"))); err != nil {
		b.respondError(c, err)
		return
	}
	b.invalidateProducts(ctx)
	c.JSON(http.StatusOK, gin.H{"notice": notice("success", "Sukses", "Produk berhasil dihapus.")})
}

func (b *BFFController) invalidateProducts(ctx context.Context) {
	if err := b.cache.Invalidate(ctx, listing.Products); err != nil {
		logger.WithRequest(ctx, b.log).Warn("Product listing cache not invalidated", zap.Error(err))
	}
}

// formImage returns the optional "image" upload. The returned func closes it.
func formImage(c *gin.Context) (*clients.FilePart, func(), error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	if fh.Size > maxImageSize {
		return nil, func() {}, errors.New("image must be at most 5MB")
	}
	ct := fh.Header.Get("Content-Type")
	if ct != "" && ct != "application/octet-stream" && !strings.HasPrefix(ct, "image/") {
		return nil, func() {}, errors.New("image must be an image file")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &clients.FilePart{
		FieldName:   "image",
		FileName:    fh.Filename,
		ContentType: ct,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
