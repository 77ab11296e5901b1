package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/ledger"
	"github.com/yashrajoria/bms-storefront/listing"
	"github.com/yashrajoria/bms-storefront/logger"
	"github.com/yashrajoria/bms-storefront/models"
	"github.com/yashrajoria/bms-storefront/payment"
)

const ordersPath = "/bff/orders"

// orderView decorates an order with what the page may offer for it.
type orderView struct {
	models.Order
	TotalDisplay    string `json:"total_display"`
	Payable         bool   `json:"payable"`
	HasPaymentData  bool   `json:"has_payment_data"`
	ShowPaymentInfo bool   `json:"show_payment_info"`
	Completable     bool   `json:"completable"`
	Cancellable     bool   `json:"cancellable"`
}

func newOrderView(o models.Order, led *ledger.Ledger) orderView {
	_, unpaid := led.Find(o.ID)
	return orderView{
		Order:           o,
		TotalDisplay:    models.FormatRupiah(o.TotalPrice),
		Payable:         o.Status.Payable() && unpaid,
		HasPaymentData:  unpaid,
		ShowPaymentInfo: o.Status.ShowsPaymentInfo(),
		Completable:     o.Status.Completable(),
		Cancellable:     o.Status.Cancellable(),
	}
}

// MyOrders lists the caller's orders for one status tab.
func (b *BFFController) MyOrders(c *gin.Context) {
	ctx := c.Request.Context()
	userID, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}

	q := listing.MyOrders.Decode(c.Request.URL.RawQuery)
	orders, page, err := b.api.MyOrders(ctx, token, listing.MyOrders.Params(q))
	if err != nil {
		b.respondError(c, err)
		return
	}
	led, err := b.ledgers.Open(ctx, userID)
	if err != nil {
		b.respondError(c, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o, led))
	}
	resp := newListResponse(listing.MyOrders, ordersPath, q, views, page)
	c.JSON(http.StatusOK, gin.H{
		"data":       resp.Data,
		"pagination": resp.Pagination,
		"query":      resp.Query,
		"links":      resp.Links,
		"statuses":   models.OrderStatuses(),
	})
}

func (b *BFFController) OrderByID(c *gin.Context) {
	ctx := c.Request.Context()
	userID, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}

	o, err := b.api.GetOrder(ctx, token, models.ID(c.Param("id")))
	if err != nil {
		b.respondError(c, err)
		return
	}
	led, err := b.ledgers.Open(ctx, userID)
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newOrderView(*o, led)})
}

// CompleteOrder confirms receipt of a shipped order.
func (b *BFFController) CompleteOrder(c *gin.Context) {
	b.transition(c, models.StatusCompleted, models.OrderStatus.Completable, "Pesanan anda telah selesai.")
}

// CancelOrder cancels an order that has not been paid. Its snap token is
// dropped from the ledger since it can no longer be paid.
func (b *BFFController) CancelOrder(c *gin.Context) {
	b.transition(c, models.StatusCancelled, models.OrderStatus.Cancellable, "Pesanan anda telah dibatalkan.")
}

func (b *BFFController) transition(c *gin.Context, to models.OrderStatus, allowed func(models.OrderStatus) bool, done string) {
	ctx := c.Request.Context()
	userID, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	id := models.ID(c.Param("id"))

	o, err := b.api.GetOrder(ctx, token, id)
	if err != nil {
		b.respondError(c, err)
		return
	}
	if !allowed(o.Status) {
		b.respondError(c, apperrors.ErrConflict.WithMessage("Gagal memperbarui status pesanan."))
		return
	}
	if err := b.api.UpdateOrderStatus(ctx, token, id, to); err != nil {
		b.respondError(c, err)
		return
	}

	durable := true
	if to == models.StatusCancelled {
		led, err := b.ledgers.Open(ctx, userID)
		if err != nil {
			b.respondError(c, err)
			return
		}
		led.Remove(ctx, id)
		durable = led.Durable()
	}

	logger.WithRequest(ctx, b.log).Info("Order status updated",
		zap.String("order_id", id.String()),
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)),
	)
	c.JSON(http.StatusOK, gin.H{
		"status":  to,
		"durable": durable,
		"notice":  notice(payment.LevelSuccess, "Sukses", done),
	})
}

// Quote prices delivery for a city before checkout.
func (b *BFFController) Quote(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		b.badRequest(c, "city is required", nil)
		return
	}
	shipping, fee, other := payment.Quote(city)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"city":                city,
		"shipping_cost":       shipping,
		"service_fee":         fee,
		"other_costs":         other,
		"other_costs_display": models.FormatRupiah(other),
	}})
}

// Checkout places the order and opens the first payment attempt. The page
// hands snap_token to the widget and later reports the outcome against attempt.id.
func (b *BFFController) Checkout(c *gin.Context) {
	userID, token, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	var req payment.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		b.badRequest(c, "Mohon lengkapi semua data sebelum mengirim.", err)
		return
	}

	res, err := b.payments.Checkout(c.Request.Context(), userID, token, req)
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": res, "snap": b.snap})
}
