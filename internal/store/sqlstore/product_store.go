package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/catalog"
)

// ProductStore is the read side of digital_product. Catalog CRUD lives elsewhere.
type ProductStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewProductStore(db *sql.DB, dialect Dialect) *ProductStore {
	return &ProductStore{db: db, dialect: dialect}
}

func (s *ProductStore) GetProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	query := s.dialect.Rebind(`
		SELECT id, slug, title, price, file_url, is_active
		FROM digital_product
		WHERE id = ?
	`)
	var p catalog.Product
	err := s.db.QueryRowContext(ctx, query, productID).Scan(
		&p.ID,
		&p.Slug,
		&p.Title,
		&p.PriceMinorUnits,
		&p.FileURL,
		&p.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("db: failed to get product: %w", err)
	}
	return &p, nil
}
