package payment

import (
	"fmt"
	"net/mail"
	"strings"
)

// SupportedCurrencies is the set of ISO codes every adapter accepts.
var SupportedCurrencies = map[string]bool{
	"INR": true,
	"USD": true,
	"EUR": true,
	"GBP": true,
}

// ValidEmail reports whether s is a bare, syntactically valid address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// reject "Name <a@b.c>" forms, we want the address only
	return addr.Address == strings.TrimSpace(s)
}

// ValidateRemoteOrderRequest enforces the preconditions shared by all adapters.
// It runs before any network call.
func ValidateRemoteOrderRequest(req RemoteOrderRequest) error {
	if req.AmountMinorUnits <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidRequest, req.AmountMinorUnits)
	}
	if !SupportedCurrencies[strings.ToUpper(req.Currency)] {
		return fmt.Errorf("%w: unsupported currency %q", ErrInvalidRequest, req.Currency)
	}
	if !ValidEmail(req.BuyerEmail) {
		return fmt.Errorf("%w: invalid buyer email", ErrInvalidRequest)
	}
	return nil
}
