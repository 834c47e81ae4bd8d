// services/storefront-service/internal/checkout/models.go
package checkout

import "time"

type Config struct {
	Currency        string        // ISO code sent to the provider, e.g "INR"
	PublicBaseURL   string        // used to build the provider return url
	ProviderTimeout time.Duration // bound on every provider call, default 10s
	NotifyTimeout   time.Duration // bound on the download email, default 15s
}

type CheckoutRequest struct {
	ProductID  string
	BuyerEmail string
	BuyerName  string
}

// CheckoutSession is what the browser needs to open the provider widget.
type CheckoutSession struct {
	OrderID          string
	ProviderOrderID  string
	Provider         string
	CheckoutToken    string
	AmountMinorUnits int64
	Currency         string
	PublicKey        string
	ProductTitle     string
}

// ReasonNotPaid means the provider has no successful payment yet. Not an error.
const ReasonNotPaid = "not_paid"

// ConfirmResult is returned by every confirmation path.
//
// Success=true, AlreadyProcessed=false: this call moved the order to paid.
// Success=true, AlreadyProcessed=true: the order was already paid, nothing happened.
// Success=false, Reason="not_paid": try again later.
type ConfirmResult struct {
	Success          bool
	AlreadyProcessed bool
	Reason           string
	PaymentID        string
}
