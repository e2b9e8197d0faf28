package domain

import "math"

// ShippingFee is charged per checkout, not per item. Currently free.
const ShippingFee = 0.0

// Single fixed coupon tier. Exact string match, no stacking, no expiry.
var couponRates = map[string]float64{
	"SUMMER10": 0.10,
}

type Pricing struct {
	Subtotal     float64 `json:"subtotal"`
	Shipping     float64 `json:"shipping"`
	Discount     float64 `json:"discount"`
	DiscountRate float64 `json:"discount_rate"`
	Total        float64 `json:"total"`
}

// DiscountRate returns the rate for a coupon code, 0 for unknown codes.
func DiscountRate(coupon string) float64 {
	return couponRates[coupon]
}

// Totals computes cart pricing with an optional coupon applied:
// total = (subtotal + shipping) * (1 - discountRate), rounded to 2 decimals.
func (c *Cart) Totals(coupon string) Pricing {
	subtotal := c.Subtotal()
	rate := DiscountRate(coupon)
	gross := subtotal + ShippingFee
	discount := round2(gross * rate)
	return Pricing{
		Subtotal:     round2(subtotal),
		Shipping:     ShippingFee,
		Discount:     discount,
		DiscountRate: rate,
		Total:        round2(gross - discount),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
