// services/storefront-service/internal/order/order_models.go

package order

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

// Status is monotonic: pending -> paid, never back.
const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
)

// Order is the local record of a single purchase attempt.
// ProviderOrderID is the join key between our row and the provider's remote order.
type Order struct {
	ID                uuid.UUID
	ProductID         string
	BuyerEmail        string // snapshot at checkout time
	BuyerName         string // may be empty
	Provider          string // adapter that created the remote order e.g "razorpay"
	ProviderOrderID   string
	ProviderPaymentID string // empty until paid
	AmountMinorUnits  int64  // price snapshot in paise/cents
	Currency          string
	Status            OrderStatus
	CreatedAt         time.Time
	PaidAt            *time.Time // Pointer to allow NULL
}

// NewPendingOrder builds an order in its initial state.
// ProviderOrderID is filled in once the remote order exists.
func NewPendingOrder(productID, buyerEmail, buyerName, provider string, amount int64, currency string, now time.Time) *Order {
	return &Order{
		ID:               uuid.New(),
		ProductID:        productID,
		BuyerEmail:       buyerEmail,
		BuyerName:        buyerName,
		Provider:         provider,
		AmountMinorUnits: amount,
		Currency:         currency,
		Status:           OrderPending,
		CreatedAt:        now.UTC(),
	}
}

func (o *Order) IsPaid() bool {
	return o.Status == OrderPaid
}
