// services/storefront-service/internal/payment/webhook.types.go
package payment

// NormalizedEvent is the "Universal Language" of our payment system.
// It doesn't matter if it came from Razorpay, Cashfree or Stripe,
// it always looks like this to the checkout service.
// Only successful payments are normalized; everything else is ignored upstream.
type NormalizedEvent struct {
	Provider          string // e.g., "razorpay"
	EventType         string // provider event name, kept for logs
	ProviderOrderID   string // e.g., "order_Nx..."
	ProviderPaymentID string // e.g., "pay_Nx..."
}
