// services/storefront-service/internal/payment/cashfree/processor.webhook.go
package cashfree

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

const (
	SignatureHeader = "x-webhook-signature"
	TimestampHeader = "x-webhook-timestamp"
)

// Processor verifies Cashfree webhooks, signed with the client secret as
// base64(HMAC-SHA256(secret, timestamp + rawBody)).
type Processor struct {
	secret string
}

func NewProcessor(secretKey string) *Processor {
	return &Processor{secret: secretKey}
}

func (p *Processor) Provider() string {
	return Name
}

type webhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment paymentEntity `json:"payment"`
	} `json:"data"`
}

func (p *Processor) VerifyAndParse(payload []byte, headers http.Header) (*payment.NormalizedEvent, error) {
	sig := headers.Get(SignatureHeader)
	ts := headers.Get(TimestampHeader)
	if p.secret == "" || sig == "" || ts == "" {
		return nil, fmt.Errorf("cashfree webhook: %w", payment.ErrInvalidSignature)
	}
	signed := append([]byte(ts), payload...)
	if !payment.SignatureEqual(payment.SignBase64(p.secret, signed), sig) {
		return nil, fmt.Errorf("cashfree webhook: %w", payment.ErrInvalidSignature)
	}

	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("cashfree webhook: malformed payload: %w", err)
	}

	if env.Type != "PAYMENT_SUCCESS_WEBHOOK" || env.Data.Payment.PaymentStatus != "SUCCESS" {
		return nil, nil
	}
	if env.Data.Order.OrderID == "" {
		return nil, nil
	}
	return &payment.NormalizedEvent{
		Provider:          Name,
		EventType:         env.Type,
		ProviderOrderID:   env.Data.Order.OrderID,
		ProviderPaymentID: env.Data.Payment.CFPaymentID.String(),
	}, nil
}
