package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/config"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/events"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/fulfillment"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/store/sqlstore"
)

func emailWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "email-worker",
		Short: "Mail queued download links (NOTIFIER=queue)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)

			mailer, err := newMailer(cfg)
			if err != nil {
				return err
			}
			mq, err := openQueue(cfg)
			if err != nil {
				return err
			}
			defer mq.Close()

			return fulfillment.NewEmailWorker(mq, mailer, logger).Run(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the product and order tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			common := config.LoadCommonConfig()
			logger := newLogger("info")

			db, _, err := sqlstore.Open(cmd.Context(), common.DB_DRIVER, common.GetDBURL())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqlstore.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("schema applied", "driver", common.DB_DRIVER)
			return nil
		},
	}
}

func watchPaidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch-paid",
		Short: "Log order.paid events from Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			common := config.LoadCommonConfig()
			logger := newLogger("info")
			brokers := common.KafkaBrokers()
			if brokers == nil {
				return fmt.Errorf("KAFKA_BROKER is required")
			}

			consumer := events.NewConsumer(brokers, common.KAFKA_TOPIC, common.KAFKA_GROUP, logger)
			defer consumer.Close()

			logger.Info("watching order events", "topic", common.KAFKA_TOPIC, "group", common.KAFKA_GROUP)
			consumer.Start(ctx, func(ctx context.Context, key, value []byte) error {
				var ev events.OrderPaid
				if err := json.Unmarshal(value, &ev); err != nil {
					// poison message, commit it and move on
					logger.Warn("undecodable event", "key", string(key), "error", err)
					return nil
				}
				if ev.Event != events.OrderPaidEvent {
					return nil
				}
				logger.Info("order paid",
					"order_id", ev.OrderID,
					"provider", ev.Provider,
					"provider_order_id", ev.ProviderOrderID,
					"payment_id", ev.PaymentID,
					"amount_minor", ev.AmountMinor,
					"currency", ev.Currency,
					"paid_at", ev.PaidAt,
				)
				return nil
			})
			return nil
		},
	}
}
