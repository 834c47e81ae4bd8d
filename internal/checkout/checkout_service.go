// services/storefront-service/internal/checkout/checkout_service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/catalog"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/events"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/fulfillment"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/order"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

// EventPublisher is satisfied by events.KafkaProducer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// Service orchestrates checkout: remote order creation, confirmation and the
// one-time pending -> paid transition that releases the download.
type Service struct {
	orders    order.OrderStore
	products  catalog.ProductReader
	provider  payment.Provider
	notifier  fulfillment.Notifier
	publisher EventPublisher // optional
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time

	// sf collapses concurrent confirmations of the same order inside this process.
	// It is an optimisation only; the store's conditional update is what makes
	// the transition happen once across instances.
	sf singleflight.Group
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	orders order.OrderStore,
	products catalog.ProductReader,
	provider payment.Provider,
	notifier fulfillment.Notifier,
	cfg Config,
	opts ...Option,
) *Service {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 15 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	s := &Service{
		orders:   orders,
		products: products,
		provider: provider,
		notifier: notifier,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "checkout", "provider", provider.Name())
	return s
}

// Provider exposes the configured adapter, the reconciler needs its strategy.
func (s *Service) Provider() payment.Provider {
	return s.provider
}

// InitiateCheckout creates the remote order first and then persists it as pending.
// If persisting fails the remote order is orphaned; nobody can pay for it
// without our order row, so it is logged and left alone.
func (s *Service) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.BuyerEmail = strings.TrimSpace(req.BuyerEmail)
	req.BuyerName = strings.TrimSpace(req.BuyerName)
	if req.ProductID == "" || req.BuyerEmail == "" {
		return nil, fmt.Errorf("%w: productId and email are required", ErrValidation)
	}
	if !payment.ValidEmail(req.BuyerEmail) {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	product, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", req.ProductID, err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product %s is inactive: %w", req.ProductID, catalog.ErrProductNotFound)
	}

	o := order.NewPendingOrder(req.ProductID, req.BuyerEmail, req.BuyerName, s.provider.Name(),
		product.PriceMinorUnits, s.cfg.Currency, s.now())

	providerCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	handle, err := s.provider.CreateRemoteOrder(providerCtx, payment.RemoteOrderRequest{
		Reference:        o.ID.String(),
		AmountMinorUnits: product.PriceMinorUnits,
		Currency:         s.cfg.Currency,
		BuyerEmail:       req.BuyerEmail,
		BuyerName:        req.BuyerName,
		ProductTitle:     product.Title,
		ReturnURL:        s.returnURL(product.Slug),
	})
	if err != nil {
		return nil, fmt.Errorf("create remote order: %w", providerErr(err))
	}

	o.ProviderOrderID = handle.ProviderOrderID
	if err := s.orders.CreateOrder(ctx, o); err != nil {
		s.logger.Error("remote order created but local order was not saved",
			"provider_order_id", handle.ProviderOrderID, "order_id", o.ID, "error", err)
		return nil, fmt.Errorf("save pending order: %w", err)
	}

	s.logger.Info("checkout initiated", "order_id", o.ID, "provider_order_id", o.ProviderOrderID, "product_id", o.ProductID)

	currency := handle.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}
	amount := handle.AmountMinorUnits
	if amount == 0 {
		amount = product.PriceMinorUnits
	}
	return &CheckoutSession{
		OrderID:          o.ID.String(),
		ProviderOrderID:  o.ProviderOrderID,
		Provider:         s.provider.Name(),
		CheckoutToken:    handle.CheckoutToken,
		AmountMinorUnits: amount,
		Currency:         currency,
		PublicKey:        handle.PublicKey,
		ProductTitle:     product.Title,
	}, nil
}

// {base}/store/{slug}?order_id={order_id}; providers substitute the placeholder.
func (s *Service) returnURL(slug string) string {
	if s.cfg.PublicBaseURL == "" {
		return ""
	}
	return s.cfg.PublicBaseURL + "/store/" + url.PathEscape(slug) + "?order_id={order_id}"
}

// providerErr makes sure a blown deadline is reported as the provider being unavailable.
func providerErr(err error) error {
	if errors.Is(err, payment.ErrProviderUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", payment.ErrProviderUnavailable, err)
	}
	return err
}

// compile-time check that the kafka producer fits
var _ EventPublisher = (*events.KafkaProducer)(nil)
