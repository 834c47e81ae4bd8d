package cashfree

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

func signed(secret, ts, body string) http.Header {
	h := http.Header{}
	h.Set(TimestampHeader, ts)
	h.Set(SignatureHeader, payment.SignBase64(secret, []byte(ts+body)))
	return h
}

func TestProcessor_VerifyAndParse(t *testing.T) {
	p := NewProcessor("sec")
	success := `{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"order_1"},"payment":{"cf_payment_id":5114915,"payment_status":"SUCCESS"}}}`

	tests := []struct {
		name    string
		body    string
		headers http.Header
		want    *payment.NormalizedEvent
		wantErr error
	}{
		{
			name:    "success event",
			body:    success,
			headers: signed("sec", "1700000000", success),
			want: &payment.NormalizedEvent{
				Provider:          Name,
				EventType:         "PAYMENT_SUCCESS_WEBHOOK",
				ProviderOrderID:   "order_1",
				ProviderPaymentID: "5114915",
			},
		},
		{
			name:    "signature over a different timestamp",
			body:    success,
			headers: func() http.Header { h := signed("sec", "1700000000", success); h.Set(TimestampHeader, "1"); return h }(),
			wantErr: payment.ErrInvalidSignature,
		},
		{
			name:    "no headers",
			body:    success,
			headers: http.Header{},
			wantErr: payment.ErrInvalidSignature,
		},
		{
			name:    "failed payment ignored",
			body:    `{"type":"PAYMENT_FAILED_WEBHOOK","data":{"order":{"order_id":"order_1"},"payment":{"cf_payment_id":1,"payment_status":"FAILED"}}}`,
			headers: signed("sec", "1", `{"type":"PAYMENT_FAILED_WEBHOOK","data":{"order":{"order_id":"order_1"},"payment":{"cf_payment_id":1,"payment_status":"FAILED"}}}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.VerifyAndParse([]byte(tt.body), tt.headers)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
