package stripe

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

const whsec = "whsec_test"

func stripeEvent(eventType, paymentStatus string) []byte {
	return stripeEventWithVersion(stripe.APIVersion, eventType, paymentStatus)
}

func stripeEventWithVersion(apiVersion, eventType, paymentStatus string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_1",
  "object": "event",
  "api_version": %q,
  "type": %q,
  "data": {"object": {"id": "cs_1", "object": "checkout.session", "payment_status": %q, "payment_intent": "pi_123"}}
}`, apiVersion, eventType, paymentStatus))
}

func stripeHeaders(secret string, payload []byte) http.Header {
	ts := time.Now().Unix()
	sig := payment.SignHex(secret, []byte(fmt.Sprintf("%d.%s", ts, payload)))
	h := http.Header{}
	h.Set(SignatureHeader, fmt.Sprintf("t=%d,v1=%s", ts, sig))
	return h
}

func TestProcessor_VerifyAndParse(t *testing.T) {
	p := NewProcessor(whsec)

	t.Run("paid checkout session", func(t *testing.T) {
		body := stripeEvent("checkout.session.completed", "paid")
		ev, err := p.VerifyAndParse(body, stripeHeaders(whsec, body))
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, "cs_1", ev.ProviderOrderID)
		assert.Equal(t, "pi_123", ev.ProviderPaymentID)
		assert.Equal(t, Name, ev.Provider)
	})

	t.Run("completed but unpaid is ignored", func(t *testing.T) {
		body := stripeEvent("checkout.session.completed", "unpaid")
		ev, err := p.VerifyAndParse(body, stripeHeaders(whsec, body))
		require.NoError(t, err)
		assert.Nil(t, ev)
	})

	t.Run("unrelated event is ignored", func(t *testing.T) {
		body := stripeEvent("charge.refunded", "paid")
		ev, err := p.VerifyAndParse(body, stripeHeaders(whsec, body))
		require.NoError(t, err)
		assert.Nil(t, ev)
	})

	t.Run("account on another api version", func(t *testing.T) {
		body := stripeEventWithVersion("2020-08-27", "checkout.session.completed", "paid")
		ev, err := p.VerifyAndParse(body, stripeHeaders(whsec, body))
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, "cs_1", ev.ProviderOrderID)
	})

	t.Run("bad signature", func(t *testing.T) {
		body := stripeEvent("checkout.session.completed", "paid")
		_, err := p.VerifyAndParse(body, stripeHeaders("whsec_other", body))
		require.ErrorIs(t, err, payment.ErrInvalidSignature)
	})
}
