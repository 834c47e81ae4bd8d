// services/storefront-service/internal/payment/models.payment.go
package payment

import (
	"errors"
	"fmt"
)

// Standard payment errors
var (
	ErrProviderUnavailable = errors.New("payment provider is currently unavailable") // network, timeout, 5xx
	ErrInvalidRequest      = errors.New("payment provider rejected the request")     // 4xx validation
	ErrInvalidSignature    = errors.New("invalid signature")
)

type Strategy string

const (
	// StrategySignature verifies an HMAC the client received from the provider.
	StrategySignature Strategy = "signature"
	// StrategyRequery asks the provider's server API what really happened.
	StrategyRequery Strategy = "requery"
)

// RemoteOrderRequest encapsulates all data needed to open a hosted checkout.
type RemoteOrderRequest struct {
	Reference        string // our internal order id, used as receipt / idempotency key
	AmountMinorUnits int64  // paise, cents
	Currency         string // ISO code e.g "INR"
	BuyerEmail       string
	BuyerName        string
	ProductTitle     string
	ReturnURL        string // may contain the {order_id} placeholder
}

// RemoteOrderHandle is what the client side widget needs.
type RemoteOrderHandle struct {
	ProviderOrderID  string
	CheckoutToken    string // razorpay order id, cashfree payment_session_id, stripe session url
	AmountMinorUnits int64
	Currency         string
	PublicKey        string // publishable key for embedded widgets, empty when unused
}

// Assertion is the optional proof a client posts back after paying.
type Assertion struct {
	PaymentID string
	Signature string
}

type OutcomeKind int

const (
	OutcomeNotVerified OutcomeKind = iota
	OutcomeNoSuccessfulPayment
	OutcomeVerified
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeVerified:
		return "verified"
	case OutcomeNoSuccessfulPayment:
		return "no_successful_payment"
	default:
		return "not_verified"
	}
}

// PaymentOutcome is the result of ConfirmPayment.
// PaymentID is only set for OutcomeVerified.
type PaymentOutcome struct {
	Kind      OutcomeKind
	PaymentID string
}

func Verified(paymentID string) PaymentOutcome {
	return PaymentOutcome{Kind: OutcomeVerified, PaymentID: paymentID}
}

func NotVerified() PaymentOutcome {
	return PaymentOutcome{Kind: OutcomeNotVerified}
}

func NoSuccessfulPayment() PaymentOutcome {
	return PaymentOutcome{Kind: OutcomeNoSuccessfulPayment}
}

func (o PaymentOutcome) String() string {
	if o.Kind == OutcomeVerified {
		return fmt.Sprintf("verified(%s)", o.PaymentID)
	}
	return o.Kind.String()
}
