package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAcceptsStringOrNumber(t *testing.T) {
	var orders []UnpaidOrder
	raw := `[{"order_id":"A1","snap_token":"t1"},{"order_id":42,"snap_token":"t2"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &orders))

	assert.Equal(t, ID("A1"), orders[0].OrderID)
	assert.Equal(t, ID("42"), orders[1].OrderID)

	out, err := json.Marshal(orders[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":"42","snap_token":"t2"}`, string(out))
}

func TestIDRejectsObjects(t *testing.T) {
	var o UnpaidOrder
	assert.Error(t, json.Unmarshal([]byte(`{"order_id":{"x":1}}`), &o))
}

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus("dibayar")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, st)

	_, err = ParseOrderStatus("LUNAS")
	assert.Error(t, err)
}

func TestStatusFlags(t *testing.T) {
	assert.True(t, StatusPaid.ShowsPaymentInfo())
	assert.True(t, StatusShipped.ShowsPaymentInfo())
	assert.True(t, StatusCompleted.ShowsPaymentInfo())
	assert.False(t, StatusProcessing.ShowsPaymentInfo())
	assert.False(t, StatusCancelled.ShowsPaymentInfo())

	assert.True(t, StatusProcessing.Payable())
	assert.False(t, StatusPaid.Payable())
	assert.True(t, StatusShipped.Completable())
	assert.True(t, StatusProcessing.Cancellable())
}

func TestFormatRupiah(t *testing.T) {
	cases := map[string]string{
		"0":        "Rp 0",
		"500":      "Rp 500",
		"15000":    "Rp 15.000",
		"1234567":  "Rp 1.234.567",
		"1500.5":   "Rp 1.500,5",
		"1500.255": "Rp 1.500,26",
		"-2000":    "-Rp 2.000",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatRupiah(decimal.RequireFromString(in)), in)
	}
}

func TestFormatWeight(t *testing.T) {
	assert.Equal(t, "1kg", FormatWeight("KG_1"))
	assert.Equal(t, "250gram", FormatWeight("GRAM_250"))
	assert.Equal(t, "TOPLES", FormatWeight("TOPLES"))
	assert.Equal(t, "LB_2", FormatWeight("LB_2"))
	assert.Equal(t, "", FormatWeight(""))
}

func TestCheckoutCosts(t *testing.T) {
	assert.True(t, ShippingCost(OutsideJabodetabek).Equal(decimal.NewFromInt(6000)))
	assert.True(t, ShippingCost("Jakarta").Equal(decimal.NewFromInt(3000)))
	assert.True(t, OtherCosts(OutsideJabodetabek).Equal(decimal.NewFromInt(8000)))
	assert.True(t, OtherCosts("").Equal(decimal.NewFromInt(5000)))

	items := []CartItem{
		{Price: decimal.NewFromInt(15000), Quantity: 2},
		{Price: decimal.NewFromInt(7500), Quantity: 1},
	}
	assert.True(t, Subtotal(items).Equal(decimal.NewFromInt(37500)))
}
