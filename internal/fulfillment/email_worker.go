// services/storefront-service/internal/fulfillment/email_worker.go
package fulfillment

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueConsumer is the subset of the rabbitmq client the worker needs.
type QueueConsumer interface {
	Consume(queueName string) (<-chan amqp.Delivery, error)
}

// EmailWorker drains EmailQueue and mails each job.
//
//   - success: ack
//   - malformed job: nack without requeue, it will never parse
//   - mail failure on first delivery: nack with requeue
//   - mail failure on a redelivery: nack without requeue and log loudly
type EmailWorker struct {
	consumer    QueueConsumer
	mailer      Mailer
	logger      *slog.Logger
	sendTimeout time.Duration
}

func NewEmailWorker(consumer QueueConsumer, mailer Mailer, logger *slog.Logger) *EmailWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailWorker{
		consumer:    consumer,
		mailer:      mailer,
		logger:      logger.With("component", "email_worker"),
		sendTimeout: 15 * time.Second,
	}
}

// Run blocks until ctx is cancelled or the delivery channel closes.
func (w *EmailWorker) Run(ctx context.Context) error {
	msgs, err := w.consumer.Consume(EmailQueue)
	if err != nil {
		return err
	}
	w.logger.Info("email worker started", "queue", EmailQueue)
	for {
		select {
		//manager says stop
		case <-ctx.Done():
			w.logger.Info("email worker stopping")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *EmailWorker) handle(ctx context.Context, d amqp.Delivery) {
	var job Delivery
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.logger.Error("dropping malformed job", "error", err)
		w.nack(d, false)
		return
	}
	msg, err := RenderMessage(job)
	if err != nil {
		w.logger.Error("dropping invalid job", "provider_order_id", job.ProviderOrderID, "error", err)
		w.nack(d, false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	err = w.mailer.SendEmail(sendCtx, msg)
	cancel()
	if err != nil {
		// shutting down mid-send is not the job's fault, put it back
		if d.Redelivered && ctx.Err() == nil {
			w.logger.Error("[CRITICAL] delivery email failed twice, buyer has no download link",
				"provider_order_id", job.ProviderOrderID, "payment_id", job.PaymentID, "error", err)
			w.nack(d, false)
			return
		}
		w.logger.Warn("delivery email failed, requeueing", "provider_order_id", job.ProviderOrderID, "error", err)
		w.nack(d, true)
		return
	}

	// Sign the receipt. RabbitMQ can delete this.
	if err := d.Ack(false); err != nil {
		w.logger.Error("failed to ack job", "error", err)
		return
	}
	w.logger.Info("delivery email sent", "provider_order_id", job.ProviderOrderID)
}

func (w *EmailWorker) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		w.logger.Error("failed to nack job", "error", err)
	}
}
