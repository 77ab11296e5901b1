package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OutsideJabodetabek is the checkout city option that carries the higher shipping rate.
const OutsideJabodetabek = "Diluar Jabodetabek"

var (
	ServiceFee          = decimal.NewFromInt(2000)
	shippingInsideArea  = decimal.NewFromInt(3000)
	shippingOutsideArea = decimal.NewFromInt(6000)
)

// ShippingCost returns the flat shipping rate for the checkout city option.
func ShippingCost(city string) decimal.Decimal {
	if city == OutsideJabodetabek {
		return shippingOutsideArea
	}
	return shippingInsideArea
}

// OtherCosts is what the order API expects in other_costs: service fee plus shipping.
func OtherCosts(city string) decimal.Decimal {
	return ServiceFee.Add(ShippingCost(city))
}

// Subtotal sums price*quantity over the cart.
func Subtotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// FormatRupiah renders amount the way id-ID currency formatting does:
// "Rp 15.000", "Rp 1.500,5", "-Rp 2.000".
func FormatRupiah(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	amount = amount.Round(2)

	whole := amount.Truncate(0)
	frac := amount.Sub(whole).StringFixed(2)[2:] // "0.50" -> "50"
	frac = strings.TrimRight(frac, "0")

	digits := whole.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := sign + "Rp " + b.String()
	if frac != "" {
		out += "," + frac
	}
	return out
}

// FormatWeight turns the API's weight codes into labels: KG_1 -> 1kg, GRAM_250 -> 250gram.
// Unknown codes are returned unchanged.
func FormatWeight(weight string) string {
	if weight == "" {
		return ""
	}
	unit, value, ok := strings.Cut(weight, "_")
	if !ok {
		return weight
	}
	switch unit {
	case "KG":
		return value + "kg"
	case "GRAM":
		return value + "gram"
	}
	return weight
}
