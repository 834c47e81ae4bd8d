// services/storefront-service/internal/checkout/errors.go
package checkout

import "errors"

var (
	// ErrValidation: the caller sent something we can never act on (missing ids, bad email).
	ErrValidation = errors.New("invalid checkout request")

	// ErrVerificationFailed: the provider did not vouch for the client's claim.
	// Do not retry with the same input.
	ErrVerificationFailed = errors.New("payment verification failed")
)
