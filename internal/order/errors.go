// services/storefront-service/internal/order/errors.go

package order

import "errors"

var (
	// ErrOrderNotFound matches standard 404 behavior
	ErrOrderNotFound = errors.New("order not found")

	// ErrAlreadyPaid is returned by the conditional transition when the row
	// is no longer pending. Callers treat it as an idempotent success.
	ErrAlreadyPaid = errors.New("order is already paid")

	// ErrDuplicateOrder protects the unique provider order id.
	ErrDuplicateOrder = errors.New("provider order id already exists")
)
