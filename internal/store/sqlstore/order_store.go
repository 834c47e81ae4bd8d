// services/storefront-service/internal/store/sqlstore/order_store.go

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/order"
)

type OrderStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewOrderStore(db *sql.DB, dialect Dialect) *OrderStore {
	return &OrderStore{db: db, dialect: dialect, now: time.Now}
}

const orderColumns = `id, product_id, buyer_email, buyer_name, provider, provider_order_id,
	provider_payment_id, amount_minor, currency, status, created_at, paid_at`

func (s *OrderStore) CreateOrder(ctx context.Context, o *order.Order) error {
	query := s.dialect.Rebind(`
		INSERT INTO product_order (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		o.ID,
		o.ProductID,
		o.BuyerEmail,
		nullString(o.BuyerName),
		o.Provider,
		o.ProviderOrderID,
		nullString(o.ProviderPaymentID),
		o.AmountMinorUnits,
		o.Currency,
		string(o.Status),
		o.CreatedAt.UTC(),
		nullTime(o.PaidAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", order.ErrDuplicateOrder, o.ProviderOrderID)
		}
		return fmt.Errorf("db: failed to insert order: %w", err)
	}
	return nil
}

func (s *OrderStore) GetOrderByProviderID(ctx context.Context, providerOrderID string) (*order.Order, error) {
	query := s.dialect.Rebind(`SELECT ` + orderColumns + ` FROM product_order WHERE provider_order_id = ?`)
	o, err := scanOrder(s.db.QueryRowContext(ctx, query, providerOrderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("db: failed to get order: %w", err)
	}
	return o, nil
}

// MarkOrderPaid moves an order to paid only if it is currently pending.
// This prevents "Double Fulfillment" at the DB level.
func (s *OrderStore) MarkOrderPaid(ctx context.Context, providerOrderID, paymentID string, paidAt time.Time) error {
	query := s.dialect.Rebind(`
		UPDATE product_order
		SET status = 'paid',
		provider_payment_id = ?,
		paid_at = ?
		WHERE provider_order_id = ? AND status = 'pending'
	`)
	res, err := s.db.ExecContext(ctx, query, paymentID, paidAt.UTC(), providerOrderID)
	if err != nil {
		return fmt.Errorf("db: failed to mark order as paid: %w", err)
	}
	rows, err := res.RowsAffected() // this ensure that only one row was updated
	if err != nil {
		return fmt.Errorf("db: failed to check rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	// 0 rows: either no such order, or someone else already moved it.
	var status string
	existsQuery := s.dialect.Rebind(`SELECT status FROM product_order WHERE provider_order_id = ?`)
	if err := s.db.QueryRowContext(ctx, existsQuery, providerOrderID).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.ErrOrderNotFound
		}
		return fmt.Errorf("db: failed to check order status: %w", err)
	}
	return order.ErrAlreadyPaid
}

// GetPendingOrders fetches "stuck" orders for the reconciler, oldest first.
func (s *OrderStore) GetPendingOrders(ctx context.Context, provider string, limit int, olderThan time.Duration) ([]*order.Order, error) {
	cutOff := s.now().UTC().Add(-olderThan)
	query := s.dialect.Rebind(`
		SELECT ` + orderColumns + `
		FROM product_order
		WHERE status = 'pending' AND provider = ? AND created_at < ?
		ORDER BY created_at ASC
		LIMIT ?
	`)
	rows, err := s.db.QueryContext(ctx, query, provider, cutOff, limit)
	if err != nil {
		return nil, fmt.Errorf("db: failed to fetch pending orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("db: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o                 order.Order
		buyerName         sql.NullString // Handle nullable field
		providerPaymentID sql.NullString
		status            string
		paidAt            sql.NullTime
	)
	err := row.Scan(
		&o.ID,
		&o.ProductID,
		&o.BuyerEmail,
		&buyerName,
		&o.Provider,
		&o.ProviderOrderID,
		&providerPaymentID,
		&o.AmountMinorUnits,
		&o.Currency,
		&status,
		&o.CreatedAt,
		&paidAt,
	)
	if err != nil {
		return nil, err
	}
	o.BuyerName = buyerName.String
	o.ProviderPaymentID = providerPaymentID.String
	o.Status = order.OrderStatus(status)
	o.CreatedAt = o.CreatedAt.UTC()
	if paidAt.Valid {
		t := paidAt.Time.UTC()
		o.PaidAt = &t
	}
	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
