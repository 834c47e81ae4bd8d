package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/checkout"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/config"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/events"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/fulfillment"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment/cashfree"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment/razorpay"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment/stripe"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/queue/rabbitmq"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/store/sqlstore"
)

// app holds everything serve and reconcile share. close releases in reverse order.
type app struct {
	cfg       *config.CheckoutConfig
	logger    *slog.Logger
	db        *sql.DB
	orders    *sqlstore.OrderStore
	service   *checkout.Service
	processor payment.WebhookProcessor
	closers   []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown: close failed", "error", err)
		}
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)
	a := &app{cfg: cfg, logger: logger}

	db, dialect, err := sqlstore.Open(ctx, cfg.CommonConfig.DB_DRIVER, cfg.CommonConfig.GetDBURL())
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	a.orders = sqlstore.NewOrderStore(db, dialect)

	provider, processor, err := newProvider(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.processor = processor

	notifier, err := a.newNotifier()
	if err != nil {
		a.close()
		return nil, err
	}

	opts := []checkout.Option{checkout.WithLogger(logger)}
	if brokers := cfg.CommonConfig.KafkaBrokers(); brokers != nil {
		producer := events.NewKafkaProducer(brokers, cfg.CommonConfig.KAFKA_TOPIC)
		a.closers = append(a.closers, producer.Close)
		opts = append(opts, checkout.WithEventPublisher(producer))
		logger.Info("order events enabled", "brokers", brokers, "topic", cfg.CommonConfig.KAFKA_TOPIC)
	}

	a.service = checkout.NewService(
		a.orders,
		sqlstore.NewProductStore(db, dialect),
		provider,
		notifier,
		checkout.Config{
			Currency:        cfg.Currency,
			PublicBaseURL:   cfg.PublicBaseURL,
			ProviderTimeout: cfg.ProviderTimeout,
		},
		opts...,
	)
	return a, nil
}

func newProvider(cfg *config.CheckoutConfig) (payment.Provider, payment.WebhookProcessor, error) {
	switch cfg.Provider {
	case config.ProviderRazorpay:
		return razorpay.NewGateway(razorpay.Config{KeyID: cfg.RazorpayKeyID, KeySecret: cfg.RazorpayKeySecret}),
			razorpay.NewProcessor(cfg.WebhookSecret()), nil
	case config.ProviderCashfree:
		return cashfree.NewGateway(cashfree.Config{AppID: cfg.CashfreeAppID, SecretKey: cfg.CashfreeSecretKey, Env: cfg.CashfreeEnv}),
			cashfree.NewProcessor(cfg.WebhookSecret()), nil
	case config.ProviderStripe:
		return stripe.NewGateway(stripe.Config{SecretKey: cfg.StripeSecretKey}),
			stripe.NewProcessor(cfg.WebhookSecret()), nil
	}
	return nil, nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
}

func (a *app) newNotifier() (fulfillment.Notifier, error) {
	if a.cfg.Notifier == config.NotifierQueue {
		mq, err := openQueue(a.cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mq.Close)
		a.logger.Info("download emails go through rabbitmq", "queue", fulfillment.EmailQueue)
		return fulfillment.NewQueueNotifier(mq), nil
	}
	mailer, err := newMailer(a.cfg)
	if err != nil {
		return nil, err
	}
	return fulfillment.NewMailNotifier(mailer, a.logger), nil
}

func newMailer(cfg *config.CheckoutConfig) (*fulfillment.ResendMailer, error) {
	if cfg.ResendAPIKey == "" {
		return nil, errors.New("RESEND_API_KEY is required to send download emails")
	}
	return fulfillment.NewResendMailer(cfg.ResendAPIKey, cfg.ResendFromEmail), nil
}

func openQueue(cfg *config.CheckoutConfig) (*rabbitmq.Client, error) {
	mq, err := rabbitmq.NewClient(cfg.CommonConfig.GetRabbitMQURL())
	if err != nil {
		return nil, err
	}
	if err := mq.CreateQueue(fulfillment.EmailQueue); err != nil {
		_ = mq.Close()
		return nil, fmt.Errorf("declare %s: %w", fulfillment.EmailQueue, err)
	}
	return mq, nil
}
