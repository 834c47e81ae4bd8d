package events

import "time"

const OrderPaidEvent = "order.paid"

// OrderPaid is emitted once per order, by the confirmation that won the
// pending -> paid transition.
type OrderPaid struct {
	Event           string    `json:"event"`
	OrderID         string    `json:"order_id"`
	ProviderOrderID string    `json:"provider_order_id"`
	Provider        string    `json:"provider"`
	ProductID       string    `json:"product_id"`
	PaymentID       string    `json:"payment_id"`
	AmountMinor     int64     `json:"amount_minor"`
	Currency        string    `json:"currency"`
	PaidAt          time.Time `json:"paid_at"`
}
