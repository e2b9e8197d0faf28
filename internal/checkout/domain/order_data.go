package domain

import "strconv"

// Wire shapes returned by the backend verification endpoint. The backend
// fans one logical order out into one {order, product} pair per line item;
// quantity is modelled by repeating pairs, not by a quantity field.

type BuyerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type BackendOrder struct {
	BuyerInfo     *BuyerInfo `json:"buyerInfo"`
	TotalPrice    float64    `json:"totalPrice"`
	ShippingFee   float64    `json:"shippingFee"`
	Tax           float64    `json:"tax"`
	Discount      float64    `json:"discount"`
	CouponCode    string     `json:"couponCode"`
	PaymentOption string     `json:"paymentOption"`
}

type BackendProduct struct {
	ID     string   `json:"_id"`
	Name   string   `json:"name"`
	Price  float64  `json:"price"`
	Images []string `json:"images"`
	Poster string   `json:"poster"`
}

type OrderProductPair struct {
	Order   *BackendOrder   `json:"order"`
	Product *BackendProduct `json:"product"`
}

type VerificationResult struct {
	OrderID   string             `json:"orderId"`
	OrderData []OrderProductPair `json:"orderData"`
}

// Display model handed to the success view.

type OrderLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

type OrderPricing struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

type OrderData struct {
	Buyer         BuyerInfo    `json:"buyer"`
	Items         []OrderLine  `json:"items"`
	Pricing       OrderPricing `json:"pricing"`
	PaymentOption string       `json:"payment_option"`
	CouponCode    string       `json:"coupon_code"`
}

// BuildOrderData reduces the backend pair list into one aggregate display
// record: buyer info from the first pair (identical across one checkout),
// one line per pair with quantity 1, totals summed across pairs. Returns nil
// for an empty or malformed list (missing order/buyerInfo).
func BuildOrderData(pairs []OrderProductPair) *OrderData {
	if len(pairs) == 0 {
		return nil
	}

	ref := pairs[0].Order
	if ref == nil || ref.BuyerInfo == nil {
		return nil
	}

	out := &OrderData{
		Buyer:         *ref.BuyerInfo,
		Items:         make([]OrderLine, 0, len(pairs)),
		PaymentOption: ref.PaymentOption,
		CouponCode:    ref.CouponCode,
	}

	var total, shipping, tax, discount float64
	for _, pair := range pairs {
		if pair.Order != nil {
			total += pair.Order.TotalPrice
			shipping += pair.Order.ShippingFee
			tax += pair.Order.Tax
			discount += pair.Order.Discount
		}

		line := OrderLine{Quantity: 1}
		if p := pair.Product; p != nil {
			line.ProductID = p.ID
			line.Name = p.Name
			line.Price = p.Price
			if len(p.Images) > 0 {
				line.Image = p.Images[0]
			} else {
				line.Image = p.Poster
			}
		}
		out.Items = append(out.Items, line)
	}

	out.Pricing = OrderPricing{
		Subtotal: formatAmount(total - shipping - tax + discount),
		Shipping: formatAmount(shipping),
		Tax:      formatAmount(tax),
		Discount: formatAmount(discount),
		Total:    formatAmount(total),
	}
	return out
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
