// services/storefront-service/internal/worker/reconciler.go

package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/checkout"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/order"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

/*
A buyer pays, then closes the tab before the callback fires, and the webhook
gets lost. The provider has the money; our row still says pending.
The Reconciler finds old pending orders and asks the provider what really
happened, through the same confirmation path the HTTP handlers use.
*/

// Confirmer is satisfied by *checkout.Service.
type Confirmer interface {
	ConfirmCheckout(ctx context.Context, providerOrderID string, assertion *payment.Assertion) (checkout.ConfirmResult, error)
}

// PendingOrderLister is the read the reconciler needs from the order store.
type PendingOrderLister interface {
	GetPendingOrders(ctx context.Context, provider string, limit int, olderThan time.Duration) ([]*order.Order, error)
}

type Config struct {
	Interval   time.Duration // how often to scan, default 5m
	StaleAfter time.Duration // how old a pending order must be, default 5m
	BatchSize  int           // how many to process per tick, default 50
	Workers    int           // how many goroutines to run in parallel, default 5
}

// Report summarises one reconciliation cycle.
type Report struct {
	Scanned int
	Paid    int // moved to paid by this cycle
	NotPaid int // provider has no successful payment yet
	Failed  int
	Skipped bool // provider cannot be re-queried without a client assertion
}

type Reconciler struct {
	confirmer Confirmer
	orders    PendingOrderLister
	provider  payment.Provider
	cfg       Config
	logger    *slog.Logger
}

func NewReconciler(confirmer Confirmer, orders PendingOrderLister, provider payment.Provider, cfg Config, logger *slog.Logger) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		confirmer: confirmer,
		orders:    orders,
		provider:  provider,
		cfg:       cfg,
		logger:    logger.With("component", "reconciler", "provider", provider.Name()),
	}
}

// Start runs the worker loop. blocking call.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	r.logger.Info("reconciler started", "interval", r.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopping")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce processes one batch through a small worker pool.
func (r *Reconciler) RunOnce(ctx context.Context) Report {
	if r.provider.Strategy() == payment.StrategySignature {
		// nothing to ask: only the browser holds the signature; webhooks cover these
		r.logger.Debug("provider verifies by signature only, skipping cycle")
		return Report{Skipped: true}
	}

	orders, err := r.orders.GetPendingOrders(ctx, r.provider.Name(), r.cfg.BatchSize, r.cfg.StaleAfter)
	if err != nil {
		r.logger.Error("failed to load pending orders", "error", err)
		return Report{}
	}
	if len(orders) == 0 {
		r.logger.Debug("no stale pending orders")
		return Report{}
	}
	r.logger.Info("reconciling stale orders", "count", len(orders))

	var paid, notPaid, failed atomic.Int64
	jobs := make(chan *order.Order, len(orders))
	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for o := range jobs {
				res, err := r.confirmer.ConfirmCheckout(ctx, o.ProviderOrderID, nil)
				switch {
				case err != nil:
					failed.Add(1)
					r.logger.Warn("reconcile failed", "worker", id, "provider_order_id", o.ProviderOrderID,
						"retryable", payment.IsRetryableError(err), "error", err)
				case res.Success && !res.AlreadyProcessed:
					paid.Add(1)
					r.logger.Info("recovered paid order", "provider_order_id", o.ProviderOrderID, "payment_id", res.PaymentID)
				case !res.Success:
					notPaid.Add(1)
				}
			}
		}(w)
	}
	for _, o := range orders {
		jobs <- o
	}
	close(jobs)
	wg.Wait()

	report := Report{
		Scanned: len(orders),
		Paid:    int(paid.Load()),
		NotPaid: int(notPaid.Load()),
		Failed:  int(failed.Load()),
	}
	r.logger.Info("reconciliation cycle completed",
		"scanned", report.Scanned, "paid", report.Paid, "not_paid", report.NotPaid, "failed", report.Failed)
	return report
}
