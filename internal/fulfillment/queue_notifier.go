package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
)

// EmailQueue holds pending download emails.
const EmailQueue = "fulfillment_emails"

// QueuePublisher is the subset of the rabbitmq client the notifier needs.
type QueuePublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// QueueNotifier hands the delivery to the email worker instead of mailing inline.
type QueueNotifier struct {
	publisher QueuePublisher
	queue     string
}

func NewQueueNotifier(publisher QueuePublisher) *QueueNotifier {
	return &QueueNotifier{publisher: publisher, queue: EmailQueue}
}

func (n *QueueNotifier) Send(ctx context.Context, d Delivery) error {
	if err := d.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal delivery job: %w", err)
	}
	if err := n.publisher.Publish(ctx, n.queue, body); err != nil {
		return fmt.Errorf("publish delivery job: %w", err)
	}
	return nil
}
