// services/storefront-service/internal/payment/retry_policy.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/stripe/stripe-go/v79"
)

// IsRetryableError tells a caller whether backing off and trying again can help.
// A payment that simply has not completed yet is not an error and never reaches here.
func IsRetryableError(err error) bool {
	if err == nil { // No error, no retry needed
		return false
	}
	if errors.Is(err, ErrProviderUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return isRetryableStripeError(err) || isRetryableNetworkError(err) || isRetryableSystemError(err)
}

func isRetryableStripeError(err error) bool {
	var stripeError *stripe.Error
	if !errors.As(err, &stripeError) {
		return false
	}
	// HTTP 500-599: Server Error (Stripe Down) -> RETRY
	if stripeError.HTTPStatusCode >= 500 && stripeError.HTTPStatusCode < 600 {
		return true
	}
	switch stripeError.Code {
	case stripe.ErrorCodeRateLimit,
		stripe.ErrorCodeLockTimeout:
		return true
	}
	return false
}

func isRetryableNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func isRetryableSystemError(err error) bool {
	// Connection Refused / Reset
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// TransportError wraps a failed HTTP round trip (dial error, timeout, cancelled context).
func TransportError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, provider, err)
}

// StatusError maps a non-2xx provider response to a domain error.
// 429 and 5xx are transient, any other 4xx is a request the provider will keep rejecting.
func StatusError(provider string, statusCode int, body []byte) error {
	const maxBody = 256
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	if statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s responded %d", ErrProviderUnavailable, provider, statusCode)
	}
	return fmt.Errorf("%w: %s responded %d: %s", ErrInvalidRequest, provider, statusCode, body)
}
