package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state the API reports for an order.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "DIPROSES"
	StatusPaid       OrderStatus = "DIBAYAR"
	StatusShipped    OrderStatus = "DIKIRIM"
	StatusCompleted  OrderStatus = "SELESAI"
	StatusCancelled  OrderStatus = "DIBATALKAN"
)

var orderStatuses = []OrderStatus{StatusProcessing, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled}

// OrderStatuses lists every known status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

// ParseOrderStatus accepts a status name in any case.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range orderStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// ShowsPaymentInfo reports whether payment details are relevant for the status.
func (s OrderStatus) ShowsPaymentInfo() bool {
	switch s {
	case StatusPaid, StatusShipped, StatusCompleted:
		return true
	}
	return false
}

// Payable reports whether a buyer can still open the payment widget.
func (s OrderStatus) Payable() bool {
	return s == StatusProcessing
}

// Completable reports whether a buyer may confirm receipt.
func (s OrderStatus) Completable() bool {
	return s == StatusShipped
}

// Cancellable reports whether a buyer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == StatusProcessing
}

type OrderItem struct {
	ID        ID              `json:"id"`
	ProductID ID              `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *Product        `json:"product,omitempty"`
}

type Order struct {
	ID         ID              `json:"id"`
	Status     OrderStatus     `json:"status"`
	Address    string          `json:"address"`
	Notes      string          `json:"notes"`
	OtherCosts decimal.Decimal `json:"other_costs"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	OrderItems []OrderItem     `json:"order_items,omitempty"`
	User       *User           `json:"user,omitempty"`
}

// CreateOrderRequest is the body the API expects on POST /api/orders. Amounts
// leave as plain JSON numbers.
type CreateOrderRequest struct {
	Address    string `json:"address" validate:"required"`
	Notes      string `json:"notes" validate:"required"`
	OtherCosts int64  `json:"other_costs"`
}

// CreatedOrder is the API's answer to a successful order creation.
type CreatedOrder struct {
	OrderID   ID     `json:"order_id"`
	ID        ID     `json:"id"`
	SnapToken string `json:"snap_token"`
}

// Identifier returns whichever id field the API filled in.
func (c CreatedOrder) Identifier() ID {
	if c.OrderID != "" {
		return c.OrderID
	}
	return c.ID
}
