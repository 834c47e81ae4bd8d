package httptransport

import (
	"errors"
	"net/http"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/catalog"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/checkout"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/order"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

// httpStatus maps domain errors to HTTP status codes.
// Anything unknown, including provider outages, is a 500 the client may retry.
func httpStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, checkout.ErrValidation),
		errors.Is(err, checkout.ErrVerificationFailed),
		errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is what the client sees. Internal detail stays in the logs.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, checkout.ErrValidation):
		return "missing or invalid fields"
	case errors.Is(err, checkout.ErrVerificationFailed),
		errors.Is(err, payment.ErrInvalidSignature):
		return "payment verification failed, contact support"
	case errors.Is(err, catalog.ErrProductNotFound):
		return "product not found"
	case errors.Is(err, order.ErrOrderNotFound):
		return "order not found"
	case errors.Is(err, payment.ErrProviderUnavailable):
		return "payment provider unavailable, please retry"
	default:
		return "internal server error"
	}
}
