// Package httptransport exposes checkout over HTTP JSON.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/checkout"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/order"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

const (
	maxBodyBytes    = 64 << 10
	maxWebhookBytes = 1 << 20
)

type checkoutService interface {
	InitiateCheckout(ctx context.Context, req checkout.CheckoutRequest) (*checkout.CheckoutSession, error)
	ConfirmCheckout(ctx context.Context, providerOrderID string, assertion *payment.Assertion) (checkout.ConfirmResult, error)
	HandleWebhookEvent(ctx context.Context, ev payment.NormalizedEvent) (checkout.ConfirmResult, error)
}

// Handler handles HTTP requests for checkout.
type Handler struct {
	svc            checkoutService
	processors     map[string]payment.WebhookProcessor
	logger         *slog.Logger
	requestTimeout time.Duration
	healthCheck    func(ctx context.Context) error
}

type Option func(*Handler)

func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.requestTimeout = d
		}
	}
}

// WithHealthCheck makes /healthz fail when check fails (e.g. db ping).
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(h *Handler) { h.healthCheck = check }
}

// New returns a Handler. It panics if svc is nil.
// processors are keyed by provider name, the {provider} segment of /webhooks/{provider}.
func New(svc checkoutService, processors []payment.WebhookProcessor, logger *slog.Logger, opts ...Option) *Handler {
	if svc == nil {
		panic("httptransport.New: nil checkout service")
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		svc:            svc,
		processors:     make(map[string]payment.WebhookProcessor, len(processors)),
		logger:         logger.With("component", "http"),
		requestTimeout: 30 * time.Second,
	}
	for _, p := range processors {
		h.processors[p.Provider()] = p
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type createOrderRequest struct {
	ProductID string `json:"productId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

type createOrderResponse struct {
	OrderID         string `json:"orderId"`
	ProviderOrderID string `json:"providerOrderId"`
	Provider        string `json:"provider"`
	CheckoutToken   string `json:"checkoutToken"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	KeyID           string `json:"keyId,omitempty"`
	ProductTitle    string `json:"productTitle"`
}

// verifyRequest accepts our own field names plus the ones the Razorpay
// widget and the Cashfree return page post back verbatim.
type verifyRequest struct {
	ProviderOrderID string `json:"providerOrderId"`
	PaymentID       string `json:"paymentId"`
	Signature       string `json:"signature"`

	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`

	OrderID string `json:"orderId"`
}

func (v verifyRequest) orderID() string {
	return firstNonEmpty(v.ProviderOrderID, v.RazorpayOrderID, v.OrderID)
}

func (v verifyRequest) assertion() *payment.Assertion {
	pid := firstNonEmpty(v.PaymentID, v.RazorpayPaymentID)
	sig := firstNonEmpty(v.Signature, v.RazorpaySignature)
	if pid == "" && sig == "" {
		return nil
	}
	return &payment.Assertion{PaymentID: pid, Signature: sig}
}

type verifyResponse struct {
	Success          bool   `json:"success"`
	Reason           string `json:"reason,omitempty"`
	AlreadyProcessed bool   `json:"alreadyProcessed,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateOrder handles POST /api/checkout/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.ProductID) == "" || strings.TrimSpace(req.Email) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	sess, err := h.svc.InitiateCheckout(ctx, checkout.CheckoutRequest{
		ProductID:  req.ProductID,
		BuyerEmail: req.Email,
		BuyerName:  req.Name,
	})
	if err != nil {
		h.writeError(w, r, "create order", err)
		return
	}
	writeJSON(w, http.StatusOK, createOrderResponse{
		OrderID:         sess.OrderID,
		ProviderOrderID: sess.ProviderOrderID,
		Provider:        sess.Provider,
		CheckoutToken:   sess.CheckoutToken,
		Amount:          sess.AmountMinorUnits,
		Currency:        sess.Currency,
		KeyID:           sess.PublicKey,
		ProductTitle:    sess.ProductTitle,
	})
}

// Verify handles POST /api/checkout/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	h.verify(w, r, req.orderID(), req.assertion())
}

// VerifyReturn handles GET /api/checkout/verify?order_id=..., the provider return url.
func (h *Handler) VerifyReturn(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, r.URL.Query().Get("order_id"), nil)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, providerOrderID string, assertion *payment.Assertion) {
	if strings.TrimSpace(providerOrderID) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	res, err := h.svc.ConfirmCheckout(ctx, providerOrderID, assertion)
	if err != nil {
		h.writeError(w, r, "verify", err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{
		Success:          res.Success,
		Reason:           res.Reason,
		AlreadyProcessed: res.AlreadyProcessed,
	})
}

// Webhook handles POST /webhooks/{provider}.
// 2xx tells the provider to stop retrying, so only transient failures get a 5xx.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	proc, ok := h.processors[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown provider"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable body"})
		return
	}

	ev, err := proc.VerifyAndParse(payload, r.Header)
	if err != nil {
		h.logger.Warn("webhook rejected", "provider", name, "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid webhook"})
		return
	}
	if ev == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	if _, err := h.svc.HandleWebhookEvent(ctx, *ev); err != nil {
		// retrying will not change either outcome
		switch {
		case errors.Is(err, checkout.ErrValidation):
			h.logger.Warn("webhook event missing order or payment id, ignored", "provider", name, "event_type", ev.EventType, "error", err)
			writeJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		case errors.Is(err, order.ErrOrderNotFound):
			h.logger.Warn("webhook for unknown order ignored", "provider", name, "provider_order_id", ev.ProviderOrderID, "error", err)
			writeJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		h.writeError(w, r, "webhook", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.healthCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.healthCheck(ctx); err != nil {
			h.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := httpStatus(err)
	attrs := []any{"op", op, "status", status, "path", r.URL.Path, "error", err}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", attrs...)
	} else {
		h.logger.Info("request rejected", attrs...)
	}
	writeJSON(w, status, errorResponse{Error: errorMessage(err)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
