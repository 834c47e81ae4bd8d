// services/storefront-service/internal/payment/cashfree/gateway.go

package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

const (
	Name       = "cashfree"
	APIVersion = "2023-08-01"

	SandboxBaseURL    = "https://sandbox.cashfree.com/pg"
	ProductionBaseURL = "https://api.cashfree.com/pg"

	defaultPhone = "9999999999"
)

type Config struct {
	AppID     string
	SecretKey string
	Env       string // "production" selects the live API, anything else sandbox
	BaseURL   string // overrides Env, used by tests
	Client    *http.Client
}

// Gateway implements payment.Provider with the re-query strategy.
// Whatever the browser claims, only GET /orders/{id}/payments decides.
type Gateway struct {
	appID      string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewGateway(cfg Config) *Gateway {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = SandboxBaseURL
		if cfg.Env == "production" {
			base = ProductionBaseURL
		}
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Gateway{
		appID:      cfg.AppID,
		secretKey:  cfg.SecretKey,
		baseURL:    base,
		httpClient: client,
		now:        time.Now,
	}
}

func (g *Gateway) Name() string { return Name }

func (g *Gateway) Strategy() payment.Strategy { return payment.StrategyRequery }

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
}

type createOrderRequest struct {
	OrderID         string            `json:"order_id"`
	OrderAmount     json.Number       `json:"order_amount"`
	OrderCurrency   string            `json:"order_currency"`
	CustomerDetails customerDetails   `json:"customer_details"`
	OrderMeta       orderMeta         `json:"order_meta"`
	OrderNote       string            `json:"order_note,omitempty"`
	OrderTags       map[string]string `json:"order_tags,omitempty"`
}

type createOrderResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderStatus      string `json:"order_status"`
}

type paymentEntity struct {
	CFPaymentID   json.Number `json:"cf_payment_id"`
	PaymentStatus string      `json:"payment_status"`
}

func (g *Gateway) CreateRemoteOrder(ctx context.Context, req payment.RemoteOrderRequest) (*payment.RemoteOrderHandle, error) {
	if err := payment.ValidateRemoteOrderRequest(req); err != nil {
		return nil, err
	}

	name := req.BuyerName
	if name == "" {
		name = "Customer"
	}
	orderID := g.newOrderID()
	currency := strings.ToUpper(req.Currency)

	cfReq := createOrderRequest{
		OrderID:       orderID,
		OrderAmount:   MajorUnits(req.AmountMinorUnits),
		OrderCurrency: currency,
		CustomerDetails: customerDetails{
			CustomerID:    CustomerID(req.BuyerEmail),
			CustomerEmail: req.BuyerEmail,
			CustomerName:  name,
			CustomerPhone: defaultPhone,
		},
		OrderMeta: orderMeta{ReturnURL: req.ReturnURL},
		OrderNote: req.ProductTitle,
	}
	if req.Reference != "" {
		cfReq.OrderTags = map[string]string{"reference": req.Reference}
	}

	body, err := json.Marshal(cfReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cashfree order: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create cashfree request: %w", err)
	}
	g.setHeaders(httpReq)
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

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode cashfree order: %w", payment.ErrProviderUnavailable, err)
	}
	if out.PaymentSessionID == "" {
		return nil, fmt.Errorf("%w: cashfree returned no payment_session_id", payment.ErrProviderUnavailable)
	}
	if out.OrderID == "" {
		out.OrderID = orderID
	}

	return &payment.RemoteOrderHandle{
		ProviderOrderID:  out.OrderID,
		CheckoutToken:    out.PaymentSessionID,
		AmountMinorUnits: req.AmountMinorUnits,
		Currency:         currency,
	}, nil
}

// ConfirmPayment lists the payments of an order. The first SUCCESS wins.
// The assertion is ignored; the browser is not trusted here.
func (g *Gateway) ConfirmPayment(ctx context.Context, providerOrderID string, _ *payment.Assertion) (payment.PaymentOutcome, error) {
	endpoint := g.baseURL + "/orders/" + url.PathEscape(providerOrderID) + "/payments"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return payment.NotVerified(), fmt.Errorf("failed to create cashfree request: %w", err)
	}
	g.setHeaders(httpReq)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return payment.NotVerified(), payment.TransportError(Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return payment.NotVerified(), payment.StatusError(Name, resp.StatusCode, raw)
	}

	var payments []paymentEntity
	if err := json.NewDecoder(resp.Body).Decode(&payments); err != nil {
		return payment.NotVerified(), fmt.Errorf("%w: decode cashfree payments: %w", payment.ErrProviderUnavailable, err)
	}
	for _, p := range payments {
		if p.PaymentStatus == "SUCCESS" {
			return payment.Verified(p.CFPaymentID.String()), nil
		}
	}
	return payment.NoSuccessfulPayment(), nil
}

func (g *Gateway) setHeaders(r *http.Request) {
	r.Header.Set("x-client-id", g.appID)
	r.Header.Set("x-client-secret", g.secretKey)
	r.Header.Set("x-api-version", APIVersion)
	r.Header.Set("Accept", "application/json")
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// order_<unix ms>_<5 random base36 chars>
func (g *Gateway) newOrderID() string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return fmt.Sprintf("order_%d_%s", g.now().UnixMilli(), suffix)
}

// MajorUnits renders paise as a rupee decimal with two places, e.g 9900 -> 99.00.
func MajorUnits(minor int64) json.Number {
	return json.Number(fmt.Sprintf("%d.%02d", minor/100, minor%100))
}

var customerIDUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// CustomerID derives a cashfree-safe customer id from an email.
func CustomerID(email string) string {
	return customerIDUnsafe.ReplaceAllString(email, "_")
}
