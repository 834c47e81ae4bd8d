// services/storefront-service/internal/payment/razorpay/gateway.go

package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

const (
	Name           = "razorpay"
	DefaultBaseURL = "https://api.razorpay.com"
)

type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string       // empty means DefaultBaseURL
	Client    *http.Client // empty means a client with a 10s timeout
}

// Gateway implements payment.Provider with the signature strategy.
// The client proves payment by echoing razorpay_signature which only
// Razorpay (and us) can compute from the key secret.
type Gateway struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

func NewGateway(cfg Config) *Gateway {
	g := &Gateway{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.Client,
	}
	if g.baseURL == "" {
		g.baseURL = DefaultBaseURL
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return g
}

func (g *Gateway) Name() string { return Name }

func (g *Gateway) Strategy() payment.Strategy { return payment.StrategySignature }

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateRemoteOrder calls POST /v1/orders. Amount is already in paise.
func (g *Gateway) CreateRemoteOrder(ctx context.Context, req payment.RemoteOrderRequest) (*payment.RemoteOrderHandle, error) {
	if err := payment.ValidateRemoteOrderRequest(req); err != nil {
		return nil, err
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:   req.AmountMinorUnits,
		Currency: strings.ToUpper(req.Currency),
		Receipt:  receipt(req.Reference),
		Notes: map[string]string{
			"reference": req.Reference,
			"email":     req.BuyerEmail,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal razorpay order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay request: %w", err)
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, payment.TransportError(Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, payment.StatusError(Name, resp.StatusCode, raw)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode razorpay order: %w", payment.ErrProviderUnavailable, err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: razorpay returned an order without id", payment.ErrProviderUnavailable)
	}

	return &payment.RemoteOrderHandle{
		ProviderOrderID:  out.ID,
		CheckoutToken:    out.ID,
		AmountMinorUnits: out.Amount,
		Currency:         out.Currency,
		PublicKey:        g.keyID,
	}, nil
}

// ConfirmPayment recomputes HMAC-SHA256(secret, orderId|paymentId) and compares it
// with the signature the checkout widget handed to the browser. No network call.
func (g *Gateway) ConfirmPayment(_ context.Context, providerOrderID string, assertion *payment.Assertion) (payment.PaymentOutcome, error) {
	if assertion == nil || assertion.PaymentID == "" || assertion.Signature == "" {
		return payment.NotVerified(), nil
	}
	expected := payment.SignHex(g.keySecret, []byte(providerOrderID+"|"+assertion.PaymentID))
	if !payment.SignatureEqual(expected, assertion.Signature) {
		return payment.NotVerified(), nil
	}
	return payment.Verified(assertion.PaymentID), nil
}

// razorpay caps receipt at 40 characters
func receipt(ref string) string {
	if ref == "" {
		return fmt.Sprintf("order_%d", time.Now().UnixMilli())
	}
	if len(ref) > 40 {
		return ref[:40]
	}
	return ref
}
