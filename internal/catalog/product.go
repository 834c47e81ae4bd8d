// services/storefront-service/internal/catalog/product.go
package catalog

import (
	"context"
	"errors"
)

var ErrProductNotFound = errors.New("product not found")

// Product is the read-only view of a digital product this service needs.
// FileURL is never handed to a buyer before the order is paid.
type Product struct {
	ID              string
	Slug            string
	Title           string
	PriceMinorUnits int64 // in paise (₹99 = 9900)
	FileURL         string
	IsActive        bool
}

// ProductReader lets the checkout service fetch products without knowing about the DB.
// The store layer implements this.
type ProductReader interface {
	// GetProduct returns ErrProductNotFound when the id is unknown.
	GetProduct(ctx context.Context, productID string) (*Product, error)
}
