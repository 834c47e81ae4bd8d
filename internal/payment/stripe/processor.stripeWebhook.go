// services/storefront-service/internal/payment/stripe/processor.stripeWebhook.go
package stripe

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	// Import the core domain
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

const SignatureHeader = "Stripe-Signature"

type Processor struct {
	secret string
}

func NewProcessor(secret string) *Processor {
	return &Processor{secret: secret}
}

func (p *Processor) Provider() string {
	return Name
}

func (p *Processor) VerifyAndParse(payload []byte, headers http.Header) (*payment.NormalizedEvent, error) {
	// 1. Verify Signature (Security)
	if p.secret == "" {
		return nil, fmt.Errorf("stripe webhook: no signing secret configured: %w", payment.ErrInvalidSignature)
	}
	// the account may be pinned to a different API version than stripe-go
	event, err := webhook.ConstructEventWithOptions(payload, headers.Get(SignatureHeader), p.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("stripe webhook: %w: %w", payment.ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
	default:
		// Return nil, nil for events we ignore (like "charge.refunded" for now)
		return nil, nil
	}

	// 2. Parse JSON
	var sess stripe.CheckoutSession
	if event.Data == nil {
		return nil, nil
	}
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("stripe webhook: malformed session: %w", err)
	}
	// completed can still be unpaid for delayed methods; async_payment_succeeded follows
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, nil
	}

	// 3. Map to Domain Event
	paymentID := sess.ID
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		paymentID = sess.PaymentIntent.ID
	}
	return &payment.NormalizedEvent{
		Provider:          Name,
		EventType:         string(event.Type),
		ProviderOrderID:   sess.ID,
		ProviderPaymentID: paymentID,
	}, nil
}
