package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v79"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"provider unavailable", fmt.Errorf("wrap: %w", ErrProviderUnavailable), true},
		{"deadline", context.DeadlineExceeded, true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"connection reset", syscall.ECONNRESET, true},
		{"stripe 503", &stripe.Error{HTTPStatusCode: 503}, true},
		{"stripe rate limit", &stripe.Error{HTTPStatusCode: 429, Code: stripe.ErrorCodeRateLimit}, true},
		{"stripe card declined", &stripe.Error{HTTPStatusCode: 402, Code: stripe.ErrorCodeCardDeclined}, false},
		{"invalid request", ErrInvalidRequest, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestStatusError(t *testing.T) {
	assert.ErrorIs(t, StatusError("x", http.StatusTooManyRequests, nil), ErrProviderUnavailable)
	assert.ErrorIs(t, StatusError("x", http.StatusBadGateway, nil), ErrProviderUnavailable)
	assert.ErrorIs(t, StatusError("x", http.StatusUnprocessableEntity, []byte("bad")), ErrInvalidRequest)
}

func TestTransportError_KeepsCause(t *testing.T) {
	err := TransportError("x", context.Canceled)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateRemoteOrderRequest(t *testing.T) {
	ok := RemoteOrderRequest{AmountMinorUnits: 1, Currency: "eur", BuyerEmail: "x@y.io"}
	assert.NoError(t, ValidateRemoteOrderRequest(ok))

	bad := ok
	bad.BuyerEmail = "Bob <x@y.io>"
	assert.ErrorIs(t, ValidateRemoteOrderRequest(bad), ErrInvalidRequest)
}

func TestSignatureEqual(t *testing.T) {
	sig := SignHex("secret", []byte("order_1|pay_1"))
	assert.True(t, SignatureEqual(sig, SignHex("secret", []byte("order_1|pay_1"))))
	assert.False(t, SignatureEqual(sig, SignHex("secret", []byte("order_1|pay_2"))))
	assert.False(t, SignatureEqual(sig, ""))
}
