package sqlstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/catalog"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/order"
)

func newTestDB(t *testing.T) (*sql.DB, Dialect) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "store.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, dialect, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return db, dialect
}

func seedProduct(t *testing.T, db *sql.DB, id string, price int64, active bool) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO digital_product (id, slug, title, price, file_url, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		id, "slug-"+id, "Title "+id, price, "https://files.test/"+id, active)
	require.NoError(t, err)
}

func pendingOrder(providerOrderID string, createdAt time.Time) *order.Order {
	o := order.NewPendingOrder("prod-1", "a@example.com", "", "razorpay", 9900, "INR", createdAt)
	o.ProviderOrderID = providerOrderID
	return o
}

func TestMigrate_Idempotent(t *testing.T) {
	db, _ := newTestDB(t)
	require.NoError(t, Migrate(context.Background(), db))
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", Dialect{driver: DriverPostgres}.Rebind(q))
	assert.Equal(t, q, Dialect{driver: DriverSQLite}.Rebind(q))
}

func TestOrderStore_CreateAndGet(t *testing.T) {
	db, dialect := newTestDB(t)
	seedProduct(t, db, "prod-1", 9900, true)
	s := NewOrderStore(db, dialect)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := pendingOrder("order_1", created)
	require.NoError(t, s.CreateOrder(ctx, o))

	got, err := s.GetOrderByProviderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, order.OrderPending, got.Status)
	assert.Equal(t, "", got.BuyerName)
	assert.Equal(t, "", got.ProviderPaymentID)
	assert.Nil(t, got.PaidAt)
	assert.True(t, created.Equal(got.CreatedAt))

	_, err = s.GetOrderByProviderID(ctx, "order_missing")
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderStore_DuplicateProviderOrderID(t *testing.T) {
	db, dialect := newTestDB(t)
	seedProduct(t, db, "prod-1", 9900, true)
	s := NewOrderStore(db, dialect)

	require.NoError(t, s.CreateOrder(context.Background(), pendingOrder("order_1", time.Now())))
	err := s.CreateOrder(context.Background(), pendingOrder("order_1", time.Now()))
	require.ErrorIs(t, err, order.ErrDuplicateOrder)
}

func TestOrderStore_MarkOrderPaid(t *testing.T) {
	db, dialect := newTestDB(t)
	seedProduct(t, db, "prod-1", 9900, true)
	s := NewOrderStore(db, dialect)
	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, pendingOrder("order_1", time.Now())))

	paidAt := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	require.NoError(t, s.MarkOrderPaid(ctx, "order_1", "pay_123", paidAt))

	got, err := s.GetOrderByProviderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, order.OrderPaid, got.Status)
	assert.Equal(t, "pay_123", got.ProviderPaymentID)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paidAt.Equal(*got.PaidAt))

	// second transition loses and leaves the winner's payment id alone
	err = s.MarkOrderPaid(ctx, "order_1", "pay_999", time.Now())
	require.ErrorIs(t, err, order.ErrAlreadyPaid)
	got, err = s.GetOrderByProviderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, "pay_123", got.ProviderPaymentID)

	err = s.MarkOrderPaid(ctx, "order_missing", "pay_1", time.Now())
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderStore_MarkOrderPaid_ConcurrentSingleWinner(t *testing.T) {
	db, dialect := newTestDB(t)
	seedProduct(t, db, "prod-1", 9900, true)
	s := NewOrderStore(db, dialect)
	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, pendingOrder("order_race", time.Now())))

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		losers  int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := s.MarkOrderPaid(ctx, "order_race", "pay_race", time.Now())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case assert.ErrorIs(t, err, order.ErrAlreadyPaid):
				losers++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, n-1, losers)
}

func TestOrderStore_GetPendingOrders(t *testing.T) {
	db, dialect := newTestDB(t)
	seedProduct(t, db, "prod-1", 9900, true)
	s := NewOrderStore(db, dialect)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	old1 := pendingOrder("order_old1", now.Add(-2*time.Hour))
	old2 := pendingOrder("order_old2", now.Add(-1*time.Hour))
	fresh := pendingOrder("order_fresh", now.Add(-1*time.Minute))
	paid := pendingOrder("order_paid", now.Add(-3*time.Hour))
	other := pendingOrder("order_cf", now.Add(-3*time.Hour))
	other.Provider = "cashfree"
	for _, o := range []*order.Order{old2, fresh, old1, paid, other} {
		require.NoError(t, s.CreateOrder(ctx, o))
	}
	require.NoError(t, s.MarkOrderPaid(ctx, "order_paid", "pay_1", now))

	got, err := s.GetPendingOrders(ctx, "razorpay", 10, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "order_old1", got[0].ProviderOrderID)
	assert.Equal(t, "order_old2", got[1].ProviderOrderID)

	got, err = s.GetPendingOrders(ctx, "razorpay", 1, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestProductStore_GetProduct(t *testing.T) {
	db, dialect := newTestDB(t)
	seedProduct(t, db, "prod-1", 9900, true)
	seedProduct(t, db, "prod-off", 500, false)
	s := NewProductStore(db, dialect)

	p, err := s.GetProduct(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, int64(9900), p.PriceMinorUnits)
	assert.True(t, p.IsActive)
	assert.Equal(t, "https://files.test/prod-1", p.FileURL)

	p, err = s.GetProduct(context.Background(), "prod-off")
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	_, err = s.GetProduct(context.Background(), "nope")
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}
