// services/storefront-service/internal/config/config.storefront.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderRazorpay = "razorpay"
	ProviderCashfree = "cashfree"
	ProviderStripe   = "stripe"

	NotifierDirect = "direct"
	NotifierQueue  = "queue"
)

type CheckoutConfig struct {
	CommonConfig *CommonConfig

	Provider        string
	Currency        string
	PublicBaseURL   string
	HTTPAddr        string
	ProviderTimeout time.Duration
	LogLevel        string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	CashfreeAppID     string
	CashfreeSecretKey string
	CashfreeEnv       string

	StripeSecretKey     string
	StripeWebhookSecret string

	Notifier        string
	ResendAPIKey    string
	ResendFromEmail string

	ReconcileInterval   time.Duration
	ReconcileStaleAfter time.Duration
	ReconcileBatch      int
	ReconcileWorkers    int

	RateRPS   float64
	RateBurst int
}

// LoadConfig loads the storefront configuration. It fails when the selected
// provider is missing its credentials or a value does not parse.
func LoadConfig() (*CheckoutConfig, error) {
	c := &CheckoutConfig{
		CommonConfig: LoadCommonConfig(),

		Provider:      strings.ToLower(getenv("PAYMENT_PROVIDER", ProviderRazorpay)),
		Currency:      strings.ToUpper(getenv("CURRENCY", "INR")),
		PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),

		CashfreeAppID:     os.Getenv("CASHFREE_APP_ID"),
		CashfreeSecretKey: os.Getenv("CASHFREE_SECRET_KEY"),
		CashfreeEnv:       getenv("CASHFREE_ENV", "sandbox"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		Notifier:        strings.ToLower(getenv("NOTIFIER", NotifierDirect)),
		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		ResendFromEmail: os.Getenv("RESEND_FROM_EMAIL"),
	}

	var errs []error
	c.ProviderTimeout = durationEnv("PROVIDER_TIMEOUT", 10*time.Second, &errs)
	c.ReconcileInterval = durationEnv("RECONCILE_INTERVAL", 5*time.Minute, &errs)
	c.ReconcileStaleAfter = durationEnv("RECONCILE_STALE_AFTER", 5*time.Minute, &errs)
	c.ReconcileBatch = intEnv("RECONCILE_BATCH", 50, &errs)
	c.ReconcileWorkers = intEnv("RECONCILE_WORKERS", 5, &errs)
	c.RateBurst = intEnv("RATE_BURST", 20, &errs)
	c.RateRPS = floatEnv("RATE_RPS", 10, &errs)

	switch c.Provider {
	case ProviderRazorpay:
		if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
			errs = append(errs, errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required"))
		}
	case ProviderCashfree:
		if c.CashfreeAppID == "" || c.CashfreeSecretKey == "" {
			errs = append(errs, errors.New("CASHFREE_APP_ID and CASHFREE_SECRET_KEY are required"))
		}
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.Provider))
	}

	switch c.Notifier {
	case NotifierDirect, NotifierQueue:
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFIER %q", c.Notifier))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// WebhookSecret returns the signing secret of the configured provider.
// Cashfree signs webhooks with the API secret key.
func (c *CheckoutConfig) WebhookSecret() string {
	switch c.Provider {
	case ProviderRazorpay:
		return c.RazorpayWebhookSecret
	case ProviderCashfree:
		return c.CashfreeSecretKey
	case ProviderStripe:
		return c.StripeWebhookSecret
	}
	return ""
}

func durationEnv(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func intEnv(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid positive integer %q", key, v))
		return def
	}
	return n
}

func floatEnv(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid positive number %q", key, v))
		return def
	}
	return f
}
