// services/storefront-service/internal/payment/payment.interfaces.go
package payment

import (
	"context"
	"net/http"
)

// Provider abstracts the hosted-checkout payment gateway (Razorpay, Cashfree, Stripe).
// It accepts Context for cancellation or timeouts Propagation.
type Provider interface {
	// Name is the stable identifier stored on every order e.g "razorpay".
	Name() string

	// Strategy tells callers how ConfirmPayment verifies a payment.
	// Signature providers cannot confirm without a client assertion.
	Strategy() Strategy

	// CreateRemoteOrder creates the provider side order and returns whatever the
	// checkout widget needs to open. It never retries internally.
	CreateRemoteOrder(ctx context.Context, req RemoteOrderRequest) (*RemoteOrderHandle, error)

	// ConfirmPayment asks whether the remote order has a successful payment.
	// ErrProviderUnavailable is returned when the provider cannot be reached;
	// that is NOT the same as OutcomeNoSuccessfulPayment.
	ConfirmPayment(ctx context.Context, providerOrderID string, assertion *Assertion) (PaymentOutcome, error)
}

// WebhookProcessor parses raw HTTP bytes into our NormalizedEvent.
type WebhookProcessor interface {
	Provider() string
	// VerifyAndParse returns (nil, nil) for event types we ignore.
	VerifyAndParse(payload []byte, headers http.Header) (*NormalizedEvent, error)
}
