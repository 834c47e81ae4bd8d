// services/storefront-service/internal/payment/razorpay/processor.webhook.go
package razorpay

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

const SignatureHeader = "X-Razorpay-Signature"

type Processor struct {
	secret string
}

func NewProcessor(webhookSecret string) *Processor {
	return &Processor{secret: webhookSecret}
}

func (p *Processor) Provider() string {
	return Name
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (p *Processor) VerifyAndParse(payload []byte, headers http.Header) (*payment.NormalizedEvent, error) {
	// 1. Verify Signature (Security)
	got := headers.Get(SignatureHeader)
	if p.secret == "" || got == "" || !payment.SignatureEqual(payment.SignHex(p.secret, payload), got) {
		return nil, fmt.Errorf("razorpay webhook: %w", payment.ErrInvalidSignature)
	}

	// 2. Parse JSON
	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("razorpay webhook: malformed payload: %w", err)
	}

	// 3. Map to Domain Event
	switch env.Event {
	case "payment.captured", "order.paid":
		entity := env.Payload.Payment.Entity
		if entity.OrderID == "" || entity.ID == "" {
			return nil, nil
		}
		return &payment.NormalizedEvent{
			Provider:          Name,
			EventType:         env.Event,
			ProviderOrderID:   entity.OrderID,
			ProviderPaymentID: entity.ID,
		}, nil
	}

	// payment.failed, refund.* etc are not our concern
	return nil, nil
}
