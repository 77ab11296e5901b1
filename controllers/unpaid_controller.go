package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/bms-storefront/ledger"
	"github.com/yashrajoria/bms-storefront/models"
	"github.com/yashrajoria/bms-storefront/payment"
)

func unpaidResponse(led *ledger.Ledger) gin.H {
	return gin.H{"data": led.Orders(), "durable": led.Durable()}
}

// openLedger loads the caller's unpaid-order ledger.
func (b *BFFController) openLedger(c *gin.Context) (*ledger.Ledger, string, bool) {
	userID, _, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return nil, "", false
	}
	led, err := b.ledgers.Open(c.Request.Context(), userID)
	if err != nil {
		b.respondError(c, err)
		return nil, "", false
	}
	return led, userID, true
}

func (b *BFFController) ListUnpaid(c *gin.Context) {
	led, _, ok := b.openLedger(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, unpaidResponse(led))
}

// PutUnpaid records (or replaces) the snap token of an order.
func (b *BFFController) PutUnpaid(c *gin.Context) {
	led, _, ok := b.openLedger(c)
	if !ok {
		return
	}
	var body struct {
		SnapToken string `json:"snap_token"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		b.badRequest(c, "invalid request body", err)
		return
	}

	order := models.UnpaidOrder{OrderID: models.ID(c.Param("order_id")), SnapToken: body.SnapToken}
	if _, err := led.Upsert(c.Request.Context(), order); err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, unpaidResponse(led))
}

func (b *BFFController) DeleteUnpaid(c *gin.Context) {
	led, _, ok := b.openLedger(c)
	if !ok {
		return
	}
	led.Remove(c.Request.Context(), models.ID(c.Param("order_id")))
	c.JSON(http.StatusOK, unpaidResponse(led))
}

// BeginPayment opens a widget attempt for an order in the caller's ledger.
func (b *BFFController) BeginPayment(c *gin.Context) {
	userID, _, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	attempt, err := b.payments.Begin(c.Request.Context(), userID, models.ID(c.Param("order_id")))
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": attempt})
}

// PaymentOutcome receives the widget callback the page observed. Only the
// first report per attempt is accepted.
func (b *BFFController) PaymentOutcome(c *gin.Context) {
	userID, _, err := caller(c)
	if err != nil {
		b.respondError(c, err)
		return
	}
	var res payment.Result
	if err := c.ShouldBindJSON(&res); err != nil {
		b.badRequest(c, "outcome is required", err)
		return
	}

	done, err := b.payments.Complete(c.Request.Context(), userID, c.Param("attempt_id"), res)
	if err != nil {
		b.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    done.Attempt,
		"notice":  done.Notice,
		"unpaid":  done.Unpaid,
		"durable": done.Durable,
	})
}
