// services/storefront-service/internal/order/order_store.go

package order

import (
	"context"
	"time"
)

// OrderStore handles persistence operations for orders.
// Placed in the order package to avoid import cycles between store and checkout.
type OrderStore interface {
	// CreateOrder inserts a new pending order.
	// Returns ErrDuplicateOrder if the provider order id is already taken.
	CreateOrder(ctx context.Context, o *Order) error
	// GetOrderByProviderID looks up an order by the provider-assigned id.
	// Returns ErrOrderNotFound when no row matches.
	GetOrderByProviderID(ctx context.Context, providerOrderID string) (*Order, error)

	// MarkOrderPaid is the atomic state transition pending -> paid.
	// It must enforce the condition: WHERE status = 'pending'.
	// Exactly one concurrent caller wins; the others get ErrAlreadyPaid.
	MarkOrderPaid(ctx context.Context, providerOrderID, paymentID string, paidAt time.Time) error

	// GetPendingOrders fetches "stuck" orders for the reconciler.
	// limit: batch size. olderThan: how old a pending order must be to count as stuck.
	GetPendingOrders(ctx context.Context, provider string, limit int, olderThan time.Duration) ([]*Order, error)
}
