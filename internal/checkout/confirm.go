// services/storefront-service/internal/checkout/confirm.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/events"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/fulfillment"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/order"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

// storeBudget bounds the order reads and the conditional write of one confirmation.
const storeBudget = 5 * time.Second

// ConfirmCheckout verifies a payment for providerOrderID and settles the order.
// assertion may be nil for re-query providers (and for the reconciler).
// Safe to call any number of times, from any number of places.
func (s *Service) ConfirmCheckout(ctx context.Context, providerOrderID string, assertion *payment.Assertion) (ConfirmResult, error) {
	providerOrderID = strings.TrimSpace(providerOrderID)
	if providerOrderID == "" {
		return ConfirmResult{}, fmt.Errorf("%w: provider order id is required", ErrValidation)
	}

	// callers with different assertions must not share one answer
	key := "confirm:" + providerOrderID
	if assertion != nil {
		key += "|" + assertion.PaymentID + "|" + assertion.Signature
	}
	return s.collapse(ctx, key, func(work context.Context) (ConfirmResult, error) {
		return s.confirm(work, providerOrderID, assertion)
	})
}

// collapse runs fn once per key for all concurrent callers. fn gets a context
// detached from whichever caller started it, so a caller that goes away only
// stops waiting; the others still get the result.
func (s *Service) collapse(ctx context.Context, key string, fn func(work context.Context) (ConfirmResult, error)) (ConfirmResult, error) {
	ch := s.sf.DoChan(key, func() (any, error) {
		work, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ProviderTimeout+storeBudget)
		defer cancel()
		return fn(work)
	})
	select {
	case <-ctx.Done():
		return ConfirmResult{}, fmt.Errorf("confirmation abandoned: %w", providerErr(ctx.Err()))
	case r := <-ch:
		if r.Err != nil {
			return ConfirmResult{}, r.Err
		}
		return r.Val.(ConfirmResult), nil
	}
}

func (s *Service) confirm(ctx context.Context, providerOrderID string, assertion *payment.Assertion) (ConfirmResult, error) {
	o, err := s.loadOrder(ctx, providerOrderID)
	if err != nil {
		return ConfirmResult{}, err
	}
	// We do this check in memory to fail fast, but the DB will do the final check.
	if o.IsPaid() {
		return ConfirmResult{Success: true, AlreadyProcessed: true, PaymentID: o.ProviderPaymentID}, nil
	}

	providerCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	outcome, err := s.provider.ConfirmPayment(providerCtx, providerOrderID, assertion)
	cancel()
	if err != nil {
		err = providerErr(err)
		s.logger.Warn("payment confirmation failed", "provider_order_id", providerOrderID, "retryable", payment.IsRetryableError(err), "error", err)
		return ConfirmResult{}, fmt.Errorf("confirm payment for %s: %w", providerOrderID, err)
	}

	switch outcome.Kind {
	case payment.OutcomeVerified:
		return s.settle(ctx, o, outcome.PaymentID)
	case payment.OutcomeNoSuccessfulPayment:
		return ConfirmResult{Success: false, Reason: ReasonNotPaid}, nil
	default:
		s.logger.Warn("payment not verified", "provider_order_id", providerOrderID)
		return ConfirmResult{}, fmt.Errorf("%w: order %s", ErrVerificationFailed, providerOrderID)
	}
}

// HandleWebhookEvent settles an order from a webhook whose signature the
// processor already checked. The event itself is the proof of payment.
func (s *Service) HandleWebhookEvent(ctx context.Context, ev payment.NormalizedEvent) (ConfirmResult, error) {
	if ev.ProviderOrderID == "" || ev.ProviderPaymentID == "" {
		return ConfirmResult{}, fmt.Errorf("%w: webhook event without order or payment id", ErrValidation)
	}
	s.logger.Info("processing webhook event", "event_type", ev.EventType, "provider_order_id", ev.ProviderOrderID)

	return s.collapse(ctx, "webhook:"+ev.ProviderOrderID+"|"+ev.ProviderPaymentID, func(ctx context.Context) (ConfirmResult, error) {
		o, err := s.loadOrder(ctx, ev.ProviderOrderID)
		if err != nil {
			return ConfirmResult{}, err
		}
		if o.Provider != ev.Provider {
			return ConfirmResult{}, fmt.Errorf("order %s belongs to %s, not %s: %w",
				ev.ProviderOrderID, o.Provider, ev.Provider, order.ErrOrderNotFound)
		}
		if o.IsPaid() {
			return ConfirmResult{Success: true, AlreadyProcessed: true, PaymentID: o.ProviderPaymentID}, nil
		}
		return s.settle(ctx, o, ev.ProviderPaymentID)
	})
}

func (s *Service) loadOrder(ctx context.Context, providerOrderID string) (*order.Order, error) {
	o, err := s.orders.GetOrderByProviderID(ctx, providerOrderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, fmt.Errorf("order %s: %w", providerOrderID, order.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %s: %w", providerOrderID, err)
	}
	if o.Provider != "" && o.Provider != s.provider.Name() {
		return nil, fmt.Errorf("order %s was created with %s: %w", providerOrderID, o.Provider, order.ErrOrderNotFound)
	}
	return o, nil
}

// settle performs the conditional transition. Only the winner fulfills.
func (s *Service) settle(ctx context.Context, o *order.Order, paymentID string) (ConfirmResult, error) {
	paidAt := s.now().UTC()
	err := s.orders.MarkOrderPaid(ctx, o.ProviderOrderID, paymentID, paidAt)
	switch {
	case err == nil:
	case errors.Is(err, order.ErrAlreadyPaid):
		// Someone else (webhook, other tab, other instance) won. Idempotent success.
		s.logger.Info("order already settled by a concurrent confirmation", "provider_order_id", o.ProviderOrderID)
		return ConfirmResult{Success: true, AlreadyProcessed: true}, nil
	default:
		// Money moved, but DB didn't update. The next confirmation will retry the transition.
		s.logger.Error("[CRITICAL] payment verified but order update failed",
			"provider_order_id", o.ProviderOrderID, "payment_id", paymentID, "error", err)
		return ConfirmResult{}, fmt.Errorf("mark order %s paid: %w", o.ProviderOrderID, err)
	}

	s.logger.Info("order paid", "order_id", o.ID, "provider_order_id", o.ProviderOrderID, "payment_id", paymentID)
	s.afterPaid(ctx, o, paymentID, paidAt)
	return ConfirmResult{Success: true, PaymentID: paymentID}, nil
}

// afterPaid runs the winner's side effects. Failures are logged, never returned:
// the order is paid no matter what happens to the email.
func (s *Service) afterPaid(ctx context.Context, o *order.Order, paymentID string, paidAt time.Time) {
	// the buyer may already have closed the tab, that must not cancel delivery
	bg := context.WithoutCancel(ctx)

	product, err := s.products.GetProduct(bg, o.ProductID)
	if err != nil {
		s.logger.Error("[CRITICAL] paid order has no deliverable product",
			"provider_order_id", o.ProviderOrderID, "product_id", o.ProductID, "error", err)
	} else {
		notifyCtx, cancel := context.WithTimeout(bg, s.cfg.NotifyTimeout)
		err := s.notifier.Send(notifyCtx, fulfillment.Delivery{
			To:              o.BuyerEmail,
			BuyerName:       o.BuyerName,
			ProductTitle:    product.Title,
			FileURL:         product.FileURL,
			PaymentID:       paymentID,
			ProviderOrderID: o.ProviderOrderID,
		})
		cancel()
		if err != nil {
			s.logger.Error("download email failed", "provider_order_id", o.ProviderOrderID, "error", err)
		}
	}

	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(bg, s.cfg.NotifyTimeout)
	defer cancel()
	err = s.publisher.Publish(pubCtx, o.ProviderOrderID, events.OrderPaid{
		Event:           events.OrderPaidEvent,
		OrderID:         o.ID.String(),
		ProviderOrderID: o.ProviderOrderID,
		Provider:        o.Provider,
		ProductID:       o.ProductID,
		PaymentID:       paymentID,
		AmountMinor:     o.AmountMinorUnits,
		Currency:        o.Currency,
		PaidAt:          paidAt,
	})
	if err != nil {
		s.logger.Warn("order.paid event not published", "provider_order_id", o.ProviderOrderID, "error", err)
	}
}
