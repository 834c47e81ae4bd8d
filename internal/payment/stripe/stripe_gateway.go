// services/storefront-service/internal/payment/stripe/stripe_gateway.go

package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

const Name = "stripe"

type Config struct {
	SecretKey string
	// BaseURL and Client point the API backend somewhere else (tests).
	BaseURL string
	Client  *http.Client
}

// Gateway implements payment.Provider over hosted Checkout Sessions.
// The provider order id is the session id; confirmation re-reads the session.
type Gateway struct {
	client *client.API //this is the stripe client . it will be initialized with the secret key
}

func NewGateway(cfg Config) *Gateway {
	// no retries inside the SDK, callers decide
	bc := &stripe.BackendConfig{
		HTTPClient:        cfg.Client,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.BaseURL != "" {
		bc.URL = stripe.String(cfg.BaseURL)
	}
	b := stripe.GetBackendWithConfig(stripe.APIBackend, bc)

	sc := &client.API{}
	sc.Init(cfg.SecretKey, &stripe.Backends{API: b, Connect: b, Uploads: b})
	return &Gateway{client: sc}
}

func (g *Gateway) Name() string { return Name }

func (g *Gateway) Strategy() payment.Strategy { return payment.StrategyRequery }

func (g *Gateway) CreateRemoteOrder(ctx context.Context, req payment.RemoteOrderRequest) (*payment.RemoteOrderHandle, error) {
	if err := payment.ValidateRemoteOrderRequest(req); err != nil {
		return nil, err
	}

	title := req.ProductTitle
	if title == "" {
		title = "Digital product"
	}
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.BuyerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.AmountMinorUnits),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(title),
					},
				},
			},
		},
	}
	if req.ReturnURL != "" {
		// Stripe fills {CHECKOUT_SESSION_ID}, which is our provider order id.
		params.SuccessURL = stripe.String(strings.ReplaceAll(req.ReturnURL, "{order_id}", "{CHECKOUT_SESSION_ID}"))
		params.CancelURL = stripe.String(strings.SplitN(req.ReturnURL, "?", 2)[0])
	}
	// Idempotency (Distributed System Safety)
	if req.Reference != "" {
		params.ClientReferenceID = stripe.String(req.Reference)
		params.IdempotencyKey = stripe.String(req.Reference)
		params.AddMetadata("reference", req.Reference)
	}
	params.Context = ctx

	sess, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	return &payment.RemoteOrderHandle{
		ProviderOrderID:  sess.ID,
		CheckoutToken:    sess.URL,
		AmountMinorUnits: sess.AmountTotal,
		Currency:         strings.ToUpper(string(sess.Currency)),
	}, nil
}

// ConfirmPayment retrieves the session. Network success != Payment success,
// only payment_status=paid counts.
func (g *Gateway) ConfirmPayment(ctx context.Context, providerOrderID string, _ *payment.Assertion) (payment.PaymentOutcome, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := g.client.CheckoutSessions.Get(providerOrderID, params)
	if err != nil {
		return payment.NotVerified(), mapStripeError(err)
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return payment.NoSuccessfulPayment(), nil
	}
	paymentID := sess.ID
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		paymentID = sess.PaymentIntent.ID
	}
	return payment.Verified(paymentID), nil
}

// mapStripeError converts external library errors into Domain Errors.
// This prevents 'stripe-go' imports from leaking into the checkout layer.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError ||
			stripeErr.HTTPStatusCode == http.StatusTooManyRequests ||
			stripeErr.Code == stripe.ErrorCodeRateLimit ||
			stripeErr.Code == stripe.ErrorCodeLockTimeout {
			return fmt.Errorf("%w: stripe: %w", payment.ErrProviderUnavailable, err)
		}
		return fmt.Errorf("%w: stripe: %s", payment.ErrInvalidRequest, stripeErr.Msg)
	}
	// no stripe envelope means the round trip itself failed
	return payment.TransportError(Name, err)
}
